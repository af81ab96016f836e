package iam

import (
	"fmt"
	"strings"
)

// PolicyType says who manages a policy.
type PolicyType string

const (
	// PolicyTypeCustom is a customer-managed policy in the caller's account.
	PolicyTypeCustom PolicyType = "Custom"
	// PolicyTypeSystem is an AWS-managed policy, read-only to iamsync.
	PolicyTypeSystem PolicyType = "System"
)

// ParsePolicyType accepts "custom" or "system" in any case.
func ParsePolicyType(s string) (PolicyType, error) {
	switch {
	case strings.EqualFold(s, string(PolicyTypeCustom)):
		return PolicyTypeCustom, nil
	case strings.EqualFold(s, string(PolicyTypeSystem)):
		return PolicyTypeSystem, nil
	}
	return "", fmt.Errorf("unknown policy type %q (want Custom or System)", s)
}

// NormalizeName replaces underscores with hyphens so names coming from
// function or service identifiers fit role and policy naming rules.
func NormalizeName(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

const defaultPartition = "aws"

func policyARN(partition, accountID, name string, t PolicyType) string {
	owner := accountID
	if t == PolicyTypeSystem {
		owner = "aws"
	}
	return fmt.Sprintf("arn:%s:iam::%s:policy/%s", partition, owner, name)
}
