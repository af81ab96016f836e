package iam

import "fmt"

// Translator may replace a failed call's error with a clearer one. It returns
// nil to keep the original error.
type Translator func(err error, action string) error

// PermissionError explains which IAM permission the caller is missing.
type PermissionError struct {
	Action string
	Err    error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("you are not authorized to perform iam:%s; grant iam:%s "+
		"(for example with arn:aws:iam::aws:policy/IAMFullAccess) to the credentials in use: %v",
		e.Action, e.Action, e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// TranslatePermissionError is the default Translator. It only rewrites
// permission-denied failures.
func TranslatePermissionError(err error, action string) error {
	if KindOf(err) != KindPermissionDenied {
		return nil
	}
	return &PermissionError{Action: action, Err: err}
}
