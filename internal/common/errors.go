// Package common defines shared constants and sentinel errors used across
// the portfolio server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound  = errors.New("not found")
	ErrPersistence = errors.New("persistence error")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Validation errors. Field-level details are wrapped around ErrorValidation.
	ErrorValidation     = errors.New("validation error")
	ErrInvalidDateRange = errors.New("end date precedes start date")

	// Account errors.
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Session token errors (invalid, malformed or expired).
	ErrInvalidToken = errors.New("invalid token")

	// Media host errors.
	ErrUpload      = errors.New("image upload failed")
	ErrImageDelete = errors.New("image delete failed")
)
