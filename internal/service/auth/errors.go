package auth

import "errors"

// Token verification errors. Callers map all of them to 401.
var (
	ErrInvalidToken     = errors.New("invalid authentication token")
	ErrExpiredToken     = errors.New("authentication token has expired")
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrWrongTokenType is returned for a well-signed token whose type claim
	// is not "access".
	ErrWrongTokenType = errors.New("wrong authentication token type")

	ErrMissingToken = errors.New("authentication token is missing")
)
