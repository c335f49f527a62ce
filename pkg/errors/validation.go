package errors

import (
	"fmt"
	"strings"
)

// FieldError describes a single invalid or missing input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every failing field of one request so callers
// can report all problems at once instead of one per round trip.
type ValidationError struct {
	Fields []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCodeValidationFailed, e.Summary())
}

// Summary joins the field errors into one human-readable line.
func (e *ValidationError) Summary() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return strings.Join(parts, "; ")
}

// Add records a failing field.
func (e *ValidationError) Add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Has reports whether field has at least one recorded failure.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Merge appends the failures of other, which may be nil.
func (e *ValidationError) Merge(other *ValidationError) {
	if other != nil {
		e.Fields = append(e.Fields, other.Fields...)
	}
}

// Err returns e as an error when it holds failures, nil otherwise.
// It avoids the typed-nil pitfall of returning a nil *ValidationError.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// FieldErrors extracts the per-field breakdown from err, if any.
func FieldErrors(err error) []FieldError {
	var ve *ValidationError
	if As(err, &ve) {
		return ve.Fields
	}
	return nil
}
