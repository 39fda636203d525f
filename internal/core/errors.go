package core

import (
	"errors"
	"strings"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field problem found in one payload.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// Add records err against field; nil errors are ignored.
func (v *ValidationError) Add(field string, err error) {
	if err == nil {
		return
	}
	v.Fields = append(v.Fields, FieldError{Field: field, Message: err.Error()})
}

func (v *ValidationError) HasErrors() bool {
	return len(v.Fields) > 0
}

func (v *ValidationError) Error() string {
	parts := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
