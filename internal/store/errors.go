package store

import (
	"errors"
	"fmt"
)

// Base sentinels. Implementations wrap them so callers only ever need errors.Is.
var (
	ErrNotFound          = errors.New("entity not found")
	ErrDuplicate         = errors.New("entity already exists")
	ErrInvalidEntity     = errors.New("invalid entity")
	ErrTransactionFailed = errors.New("transaction failed")
)

// Entity-specific variants.
var (
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrNotificationNotFound is also returned for notifications owned by
	// another user, so existence is never disclosed across accounts.
	ErrNotificationNotFound = fmt.Errorf("%w: notification", ErrNotFound)

	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)
)

// IsNotFoundError reports whether err wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError reports whether err wraps ErrDuplicate.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError records which entity and operation a persistence failure belongs to.
type StoreError struct {
	Entity    string
	Operation string
	Message   string
	Err       error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
	}
	return fmt.Sprintf("%s operation on %s failed: %s: %v", e.Operation, e.Entity, e.Message, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a StoreError.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{Entity: entity, Operation: operation, Message: message, Err: err}
}
