package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub/internal/domain"
)

// NotificationStore defines the persistence boundary for notification records
// and their read state. Every read or write that acts on behalf of a user is
// scoped by that user's id.
type NotificationStore interface {
	// Create inserts a new notification record.
	// Returns ErrInvalidEntity if the notification fails validation.
	Create(ctx context.Context, n *domain.Notification) error

	// ListByUser returns the user's notifications ordered newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error)

	// GetForUser returns notification id only if it belongs to userID.
	// Returns ErrNotificationNotFound otherwise.
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Notification, error)

	// MarkRead sets read=true on notification id if it belongs to userID and
	// returns the updated record. Marking an already-read notification succeeds.
	// Returns ErrNotificationNotFound if the id is unknown or belongs to another user.
	MarkRead(ctx context.Context, id, userID uuid.UUID) (*domain.Notification, error)

	// MarkAllRead marks every unread notification of userID as read and returns
	// how many changed.
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)

	// CountUnread returns the number of unread notifications for userID.
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)

	// WithTx returns a new NotificationStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) NotificationStore
}
