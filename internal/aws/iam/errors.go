package iam

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

// Kind classifies a failed IAM call. Reconcilers switch on the Kind instead of
// matching provider error codes.
type Kind int

const (
	KindTransient Kind = iota
	KindNotFound
	KindPermissionDenied
	KindInvalidParameter
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindPermissionDenied:
		return "permission_denied"
	case KindInvalidParameter:
		return "invalid_parameter"
	default:
		return "transient"
	}
}

// Fatal reports whether an error of this kind is guaranteed to repeat.
func (k Kind) Fatal() bool {
	return k == KindPermissionDenied || k == KindInvalidParameter
}

var exactCodes = map[string]Kind{
	"NoSuchEntity":            KindNotFound,
	"AccessDenied":            KindPermissionDenied,
	"AccessDeniedException":   KindPermissionDenied,
	"UnauthorizedOperation":   KindPermissionDenied,
	"NoPermission":            KindPermissionDenied,
	"InvalidInput":            KindInvalidParameter,
	"MalformedPolicyDocument": KindInvalidParameter,
	"ValidationError":         KindInvalidParameter,
}

var prefixCodes = []struct {
	prefix string
	kind   Kind
}{
	{"EntityNotExist", KindNotFound},
	{"InvalidParameter", KindInvalidParameter},
}

// KindForCode maps a provider error code to a Kind. Unknown codes are transient.
func KindForCode(code string) Kind {
	if k, ok := exactCodes[code]; ok {
		return k
	}
	for _, p := range prefixCodes {
		if strings.HasPrefix(code, p.prefix) {
			return p.kind
		}
	}
	return KindTransient
}

// Error is a classified IAM failure.
type Error struct {
	Kind   Kind
	Action string // IAM action, e.g. "CreatePolicy"
	Target string // role or policy the action was about
	Code   string // provider error code, empty for local failures
	Err    error
}

func (e *Error) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s: %v", e.Action, e.Err)
	}
	return fmt.Sprintf("%s(%s): %v", e.Action, e.Target, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// classify wraps err as an *Error tagged from its smithy error code.
func classify(action, target string, err error) *Error {
	var existing *Error
	if errors.As(err, &existing) {
		return existing
	}
	e := &Error{Kind: KindTransient, Action: action, Target: target, Err: err}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		e.Code = apiErr.ErrorCode()
		e.Kind = KindForCode(e.Code)
	}
	return e
}

// KindOf returns the Kind carried by err, or KindTransient if err was never
// classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransient
}

// IsNotFound reports whether err means the entity is absent.
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

// IsFatal reports whether err must not be retried.
func IsFatal(err error) bool {
	return err != nil && KindOf(err).Fatal()
}
