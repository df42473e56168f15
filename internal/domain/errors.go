package domain

import "errors"

var (
	// ErrValidation wraps every entity validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned for malformed or nil identifiers.
	ErrInvalidID = errors.New("invalid ID")

	// ErrUnauthorized is returned when the caller lacks the role an operation needs.
	ErrUnauthorized = errors.New("unauthorized operation")
)
