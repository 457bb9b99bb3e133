package orchestrator

import (
	"errors"
	"fmt"
)

// Kind is the discriminant reported to callers for every failure.
type Kind string

const (
	KindInvalidProject       Kind = "InvalidProjectError"
	KindDependencyMissing    Kind = "DependencyMissingError"
	KindConfirmationDeclined Kind = "ConfirmationDeclinedError"
	KindConfirmationTimeout  Kind = "ConfirmationTimeoutError"
	KindRemediationLaunch    Kind = "RemediationLaunchError"
	KindResolution           Kind = "ResolutionError"
	KindPersistence          Kind = "PersistenceError"
)

// credentialsHint is attached to every resolution failure.
const credentialsHint = "Ensure you have valid AWS credentials configured or the necessary environment variables set to resolve configuration values."

// Error is a request-scoped failure with a discriminant and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Hint    string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorDetail is the serialisable form of an Error.
type ErrorDetail struct {
	Error   Kind   `json:"error"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// Detail returns the serialisable form of e.
func (e *Error) Detail() *ErrorDetail {
	return &ErrorDetail{Error: e.Kind, Message: e.Message, Hint: e.Hint}
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return ""
}
