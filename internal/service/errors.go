package service

import (
	"errors"
	"fmt"
)

// ErrMissingDependency is returned by constructors given a nil collaborator.
var ErrMissingDependency = errors.New("missing dependency")

// NotificationServiceError is a custom error type for notification service errors.
type NotificationServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for NotificationServiceError.
func (e *NotificationServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("notification service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("notification service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *NotificationServiceError) Unwrap() error {
	return e.Err
}

// NewNotificationServiceError creates a new NotificationServiceError.
func NewNotificationServiceError(operation, message string, err error) *NotificationServiceError {
	return &NotificationServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

func missing(name string) error {
	return fmt.Errorf("%w: %s cannot be nil", ErrMissingDependency, name)
}
