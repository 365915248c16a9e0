package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound          = errors.New("booking not found")
	ErrValidation        = errors.New("validation failed")
	ErrPastDate          = errors.New("date is in the past")
	ErrDateTooFar        = errors.New("date is too far in the future")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrReadOnly          = errors.New("caller is not allowed to create bookings")
)

// ValidationError collects per-field failures. It matches ErrValidation and
// every cause passed to Wrap under errors.Is.
type ValidationError struct {
	fields map[string][]string
	causes []error
}

func NewValidationError() *ValidationError {
	return &ValidationError{fields: make(map[string][]string)}
}

// Invalid builds a single-field ValidationError wrapping cause.
func Invalid(field string, cause error) *ValidationError {
	ve := NewValidationError()
	ve.Wrap(field, cause)
	return ve
}

// AsValidationError returns the ValidationError in err's chain, or nil.
func AsValidationError(err error) *ValidationError {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

func (e *ValidationError) Add(field, msg string) {
	e.fields[field] = append(e.fields[field], msg)
}

func (e *ValidationError) Wrap(field string, cause error) {
	e.Add(field, cause.Error())
	e.causes = append(e.causes, cause)
}

func (e *ValidationError) Len() int {
	return len(e.fields)
}

func (e *ValidationError) Fields() map[string][]string {
	return e.fields
}

// OrNil returns nil when nothing was recorded.
func (e *ValidationError) OrNil() error {
	if e.Len() == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.fields[k], ", ")))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() []error {
	return append([]error{ErrValidation}, e.causes...)
}
