// Package apperr holds the error values shared by the service, tool and HTTP
// layers. Callers test them with errors.Is / errors.As; server/api maps them
// to status codes.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized is returned when no principal is present in the context.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound covers both missing rows and rows owned by someone else.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on unique-key collisions (e.g. a taken email).
	ErrConflict = errors.New("already exists")
)

// NotFound wraps ErrNotFound with the entity name, e.g. "task not found".
func NotFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

// FieldError names one rejected input field using its payload path.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports every failing field of a request at once.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Reason
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Invalid builds a single-field validation error.
func Invalid(field, reason string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Reason: reason}}}
}

// AsValidation unwraps err into a *ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Fields collects field errors while a payload is checked.
type Fields []FieldError

// Add records a failure for field.
func (f *Fields) Add(field, reason string) {
	*f = append(*f, FieldError{Field: field, Reason: reason})
}

// Err returns a *ValidationError, or nil when nothing was recorded.
func (f Fields) Err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

// Path joins a payload prefix and a field name: Path("blocks[2]", "endTs")
// yields "blocks[2].endTs". An empty prefix returns field unchanged.
func Path(prefix, field string) string {
	if prefix == "" {
		return field
	}
	return prefix + "." + field
}
