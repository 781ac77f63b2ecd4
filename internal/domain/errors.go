package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrStatusConflict     = errors.New("payment status changed")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRequest     = errors.New("invalid request")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type Transition string

const (
	TransitionVerify Transition = "verify"
	TransitionSubmit Transition = "submit"
)

// StateGuardError reports a transition attempted from a status that does not
// allow it. Reason is safe to show to callers.
type StateGuardError struct {
	Transition Transition
	Reason     string
}

func (e *StateGuardError) Error() string {
	return string(e.Transition) + ": " + e.Reason
}
