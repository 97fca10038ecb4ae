package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/portfolio/internal/common"
)

// ValidationError reports a rejected input field. It matches
// common.ErrorValidation and, when set, Cause.
type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() []error {
	if e.Cause != nil {
		return []error{common.ErrorValidation, e.Cause}
	}
	return []error{common.ErrorValidation}
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// FieldOf returns the offending field of a validation error, or "".
func FieldOf(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Field
	}
	return ""
}
