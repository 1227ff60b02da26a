package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork indicates the transport rejected a request or returned a
	// non-success result.
	ErrNetwork = errors.New("network failure")

	// ErrNotFound indicates the conversation or message is not in the store.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates an action was refused before any network call.
	ErrValidation = errors.New("validation failed")

	// ErrStale indicates an async result arrived after the user navigated away.
	ErrStale = errors.New("stale result")

	// ErrForwardUnsupported is returned by the forward action, whose target
	// selection is handled outside this module.
	ErrForwardUnsupported = errors.New("forward target selection not supported")
)

// ValidationError carries a short user-visible reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Invalid builds a ValidationError.
func Invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NetworkError wraps a transport failure for op.
func NetworkError(op string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", op, ErrNetwork)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrNetwork, err)
}
