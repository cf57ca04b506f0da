package application

import (
	"errors"
	"sort"
)

// ErrNotFound is returned when a referenced task or meeting does not exist.
var ErrNotFound = errors.New("application: not found")

// ParseError reports input a command could not make sense of. Hint is shown
// to the user as is.
type ParseError struct {
	Command string
	Hint    string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return "parse " + e.Command + ": " + e.Err.Error()
	}
	return "parse " + e.Command
}

// Unwrap exposes the parser failure.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

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

// Message returns the user facing text of the first field in name order.
func (v *ValidationError) Message() string {
	if !v.HasErrors() {
		return ""
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return v.FieldErrors[fields[0]]
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

func newValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.add(field, message)
	return v
}

// NotFoundError names the entity and reference that matched nothing.
type NotFoundError struct {
	Entity string
	Ref    string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e == nil {
		return ""
	}
	return e.Entity + " " + e.Ref + " not found"
}

// Unwrap lets errors.Is match ErrNotFound.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
