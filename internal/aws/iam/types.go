package iam

import "time"

type IAMRole struct {
	Name                     string
	RoleID                   string
	ARN                      string
	Path                     string
	Description              string
	CreatedAt                time.Time
	AssumeRolePolicyDocument string // decoded JSON
}

type IAMPolicy struct {
	Name             string
	PolicyID         string
	ARN              string
	Path             string
	DefaultVersionID string
	AttachmentCount  int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type IAMPolicyVersion struct {
	VersionID        string
	IsDefaultVersion bool
	CreatedAt        time.Time
}

type IAMAttachedPolicy struct {
	Name string
	ARN  string
}

type IAMPolicyEntity struct {
	Name string
	Type string // "User", "Role", "Group"
}
