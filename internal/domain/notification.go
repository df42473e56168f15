package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NotificationType identifies the lifecycle event a notification describes.
type NotificationType string

// Possible notification types
const (
	NotificationNewTask    NotificationType = "NEW_TASK"
	NotificationUpdateTask NotificationType = "UPDATE_TASK"
	NotificationDeleteTask NotificationType = "DELETE_TASK"
	NotificationNewUser    NotificationType = "NEW_USER"
)

// Title returns the human-readable title stored with notifications of type t.
func (t NotificationType) Title() string {
	switch t {
	case NotificationNewTask:
		return "New task assigned"
	case NotificationUpdateTask:
		return "Task updated"
	case NotificationDeleteTask:
		return "Task deleted"
	case NotificationNewUser:
		return "New user registered"
	default:
		return "Notification"
	}
}

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationNewTask, NotificationUpdateTask, NotificationDeleteTask, NotificationNewUser:
		return true
	default:
		return false
	}
}

// Validation errors for Notification
var (
	ErrEmptyNotificationID          = errors.New("notification ID cannot be empty")
	ErrEmptyNotificationDestination = errors.New("notification destination user ID cannot be empty")
	ErrInvalidNotificationType      = errors.New("invalid notification type")
	ErrEmptyNotificationTitle       = errors.New("notification title cannot be empty")
	ErrNotificationTitleTooLong     = errors.New("notification title must be at most 255 characters")
	ErrEmptyNotificationMessage     = errors.New("notification message cannot be empty")
)

// maxTitleLength matches the width of the title column.
const maxTitleLength = 255

// Notification is a persisted record that a specific user should be told about an event.
// Read only ever moves from false to true.
type Notification struct {
	ID                uuid.UUID        `json:"id"`
	DestinationUserID uuid.UUID        `json:"destinationUserId"`
	TaskID            *uuid.UUID       `json:"taskId,omitempty"`
	Type              NotificationType `json:"type"`
	Title             string           `json:"title"`
	Message           string           `json:"message"`
	Read              bool             `json:"read"`
	CreatedAt         time.Time        `json:"createdAt"`
}

// NewNotification creates an unread notification for destination.
// taskID may be nil for notifications that do not refer to an existing task.
func NewNotification(
	destination uuid.UUID,
	taskID *uuid.UUID,
	typ NotificationType,
	message string,
) (*Notification, error) {
	n := &Notification{
		ID:                uuid.New(),
		DestinationUserID: destination,
		TaskID:            taskID,
		Type:              typ,
		Title:             typ.Title(),
		Message:           message,
		CreatedAt:         time.Now().UTC(),
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// Validate checks if the Notification has valid data.
func (n *Notification) Validate() error {
	if n.ID == uuid.Nil {
		return ErrEmptyNotificationID
	}
	if n.DestinationUserID == uuid.Nil {
		return ErrEmptyNotificationDestination
	}
	if !n.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidNotificationType, n.Type)
	}
	if n.Title == "" {
		return ErrEmptyNotificationTitle
	}
	if len(n.Title) > maxTitleLength {
		return ErrNotificationTitleTooLong
	}
	if n.Message == "" {
		return ErrEmptyNotificationMessage
	}
	return nil
}

// MarkRead sets Read. Calling it on an already-read notification is a no-op.
func (n *Notification) MarkRead() {
	n.Read = true
}

// Messages stored with each notification type.

// NewTaskMessage is the message for the owner of a newly assigned task.
func NewTaskMessage(taskTitle string) string {
	return fmt.Sprintf("You have been assigned a new task \"%s\"", taskTitle)
}

// TaskUpdatedMessage is the message for an updated task.
func TaskUpdatedMessage(taskTitle string) string {
	return fmt.Sprintf("Task \"%s\" has been updated", taskTitle)
}

// TaskDeletedMessage is the message for a deleted task.
func TaskDeletedMessage(taskTitle string) string {
	return fmt.Sprintf("Task \"%s\" has been deleted", taskTitle)
}

// NewUserMessage is the message administrators receive when someone registers.
func NewUserMessage(u *User) string {
	return fmt.Sprintf("New user %s (%s) registered", u.FullName(), u.Email)
}
