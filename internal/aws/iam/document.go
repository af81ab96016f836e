package iam

import (
	"encoding/json"
	"errors"
	"fmt"
)

// PolicyDocument is an IAM policy or trust policy.
type PolicyDocument struct {
	Version   string            `json:"Version"`
	Statement []PolicyStatement `json:"Statement"`
}

type PolicyStatement struct {
	Effect    string           `json:"Effect"`
	Action    Value            `json:"Action,omitempty"`
	Principal *PolicyPrincipal `json:"Principal,omitempty"`
	Resource  Value            `json:"Resource,omitempty"`
}

type PolicyPrincipal struct {
	Service []string `json:"Service,omitempty"`
	AWS     []string `json:"AWS,omitempty"`
}

// Value is an IAM element that may be written as a single string or a list.
type Value []string

func (v Value) MarshalJSON() ([]byte, error) {
	if len(v) == 1 {
		return json.Marshal(v[0])
	}
	return json.Marshal([]string(v))
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Value{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("policy value must be a string or list of strings: %w", err)
	}
	*v = list
	return nil
}

const policyVersion = "2012-10-17"

// AssumeRolePolicy returns a trust policy letting the given service
// principals assume the role.
func AssumeRolePolicy(services ...string) PolicyDocument {
	return PolicyDocument{
		Version: policyVersion,
		Statement: []PolicyStatement{
			{
				Effect:    "Allow",
				Action:    Value{"sts:AssumeRole"},
				Principal: &PolicyPrincipal{Service: services},
			},
		},
	}
}

var (
	// LambdaAssumeRolePolicy trusts the function compute service. It is the
	// default trust policy for roles created by EnsureRole.
	LambdaAssumeRolePolicy = AssumeRolePolicy("lambda.amazonaws.com")

	// StatesAssumeRolePolicy trusts the workflow orchestration service.
	StatesAssumeRolePolicy = AssumeRolePolicy("states.amazonaws.com")
)

var errEmptyDocument = errors.New("policy document is empty")

// MarshalDocument renders doc as the JSON string IAM expects. Strings, []byte
// and json.RawMessage are passed through after validation; anything else is
// JSON-encoded. Failures are InvalidParameter errors.
func MarshalDocument(doc any) (string, error) {
	var raw []byte
	switch d := doc.(type) {
	case nil:
		return "", invalidDocument(errEmptyDocument)
	case string:
		raw = []byte(d)
	case []byte:
		raw = d
	case json.RawMessage:
		raw = d
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return "", invalidDocument(err)
		}
		return string(b), nil
	}
	if len(raw) == 0 {
		return "", invalidDocument(errEmptyDocument)
	}
	if !json.Valid(raw) {
		return "", invalidDocument(errors.New("policy document is not valid JSON"))
	}
	return string(raw), nil
}

func invalidDocument(err error) error {
	return &Error{Kind: KindInvalidParameter, Action: "MarshalDocument", Err: err}
}
