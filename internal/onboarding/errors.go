package onboarding

import "errors"

var (
	ErrNotFound     = errors.New("onboarding session not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrRelayFailed  = errors.New("failed to trigger verification workflow")
)

// ValidationError describes rejected input. It matches ErrInvalidInput with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// RelayError is returned by Upload after the record was marked failed.
// It matches ErrRelayFailed with errors.Is and unwraps to the relay cause.
type RelayError struct {
	Cause error
}

func (e *RelayError) Error() string {
	return ErrRelayFailed.Error() + ": " + e.Cause.Error()
}

func (e *RelayError) Is(target error) bool {
	return target == ErrRelayFailed
}

func (e *RelayError) Unwrap() error {
	return e.Cause
}
