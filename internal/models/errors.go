package models

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the root of every input rejection.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidArgument marks a value that can never be accepted (e.g. a non-positive limit).
	ErrInvalidArgument = fmt.Errorf("%w: invalid argument", ErrValidation)
	// ErrOutOfRange marks a value outside its physical bounds.
	ErrOutOfRange = fmt.Errorf("%w: out of range", ErrValidation)

	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("invalid credentials")
	ErrConflict     = errors.New("conflict")
)

// FieldError names the field that failed validation.
type FieldError struct {
	Field  string
	Reason string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func invalidArgument(field, reason string) error {
	return &FieldError{Field: field, Reason: reason, Err: ErrInvalidArgument}
}

func outOfRange(field, reason string) error {
	return &FieldError{Field: field, Reason: reason, Err: ErrOutOfRange}
}
