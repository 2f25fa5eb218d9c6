package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for every failure the workflow engine reports. Callers
// branch with errors.Is; the HTTP layer maps each to a stable code.
var (
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrUnknownPost           = errors.New("post not found")
	ErrUnknownInteraction    = errors.New("interaction not found")
	ErrAlreadyResponded      = errors.New("interaction already responded")
	ErrGenerationUnavailable = errors.New("content generation unavailable")
)

// ValidationError reports a malformed input together with the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
