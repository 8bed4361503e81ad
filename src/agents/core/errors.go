package core

import (
	"errors"
	"fmt"
)

var (
	// ErrAgentNotFound is returned when a caller references an unknown agent ID.
	ErrAgentNotFound = errors.New("agents: agent not found")
	// ErrValidation marks caller supplied data that was rejected before any mutation.
	ErrValidation = errors.New("agents: validation failed")
	// ErrInvalidTransition marks a status change the state machine does not allow.
	ErrInvalidTransition = errors.New("agents: invalid status transition")
)

// ValidationError describes why a request was rejected.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// TransitionError reports a rejected status change.
type TransitionError struct {
	Kind string
	ID   string
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s %s: cannot move from %q to %q", e.Kind, e.ID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
