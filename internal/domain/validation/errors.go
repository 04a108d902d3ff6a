package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidationFailed is matched by every *ValidationError
var ErrValidationFailed = errors.New("validation failed")

// Field error codes
const (
	CodeRequired   = "required"
	CodeInvalid    = "invalid"
	CodeNotAllowed = "not_allowed"
	CodeOutOfRange = "out_of_range"
	CodeDateOrder  = "date_order"
)

// FieldError describes a single field that failed validation
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError carries the field errors of a rejected payload
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// Has reports whether any error is attached to field
func (e *ValidationError) Has(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// FieldErrors extracts the field errors from err, or nil when err is not a validation failure
func FieldErrors(err error) []FieldError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Errors
	}
	return nil
}
