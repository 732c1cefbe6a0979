package application

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned when no valid credential accompanies the request.
	ErrUnauthenticated = errors.New("application: unauthenticated")
	// ErrForbidden is returned when the acting principal's role may not perform the action.
	ErrForbidden = errors.New("application: forbidden")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique attribute is already taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrConflict is returned when a write collides with existing state.
	ErrConflict = errors.New("application: conflict")
	// ErrInvalidCode is returned when a one-time code is wrong, expired or already used.
	ErrInvalidCode = errors.New("application: invalid or expired code")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error. The first message for a field wins.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

func newValidationError(field, message string) *ValidationError {
	vErr := &ValidationError{}
	vErr.add(field, message)
	return vErr
}

// ConflictError identifies the existing record a write collided with.
type ConflictError struct {
	Resource      string
	ConflictingID string
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	if c.ConflictingID == "" {
		return fmt.Sprintf("%s conflicts with an existing record", c.Resource)
	}
	return fmt.Sprintf("%s conflicts with %s", c.Resource, c.ConflictingID)
}

// Is makes ConflictError match ErrConflict.
func (c *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
