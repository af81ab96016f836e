package constants

// DefaultPolicyDescription is attached to every policy iamsync creates.
const DefaultPolicyDescription = "generated by iamsync"

// DefaultRoleDescription is used when a role is created without a description.
const DefaultRoleDescription = "Lambda execution role"

// MaxPolicyVersions is IAM's cap on stored versions per managed policy.
// Pruning non-default versions before each new version keeps us under it.
const MaxPolicyVersions = 5

// ConfigDir is the directory under the user's config home holding config.yaml.
const ConfigDir = "iamsync"
