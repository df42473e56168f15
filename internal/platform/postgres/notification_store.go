package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub/internal/domain"
	"github.com/phrazzld/taskhub/internal/platform/logger"
	"github.com/phrazzld/taskhub/internal/store"
)

const notificationColumns = `id, destination_user_id, task_id, type, title, message, read, created_at`

// PostgresNotificationStore implements the store.NotificationStore interface
// using a PostgreSQL database as the storage backend.
type PostgresNotificationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNotificationStore creates a new PostgreSQL implementation of the NotificationStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresNotificationStore(db store.DBTX, logger *slog.Logger) *PostgresNotificationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresNotificationStore{
		db:     db,
		logger: logger.With(slog.String("component", "notification_store")),
	}
}

var _ store.NotificationStore = (*PostgresNotificationStore)(nil)

// Create implements store.NotificationStore.Create
// Returns store.ErrInvalidEntity if validation fails or the destination user does not exist.
func (s *PostgresNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := n.Validate(); err != nil {
		log.Warn("notification validation failed during create",
			slog.String("error", err.Error()),
			slog.String("notification_id", n.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO notifications (id, destination_user_id, task_id, type, title, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		n.ID,
		n.DestinationUserID,
		nullableUUID(n.TaskID),
		string(n.Type),
		n.Title,
		n.Message,
		n.Read,
		n.CreatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("notification destination does not exist",
				slog.String("notification_id", n.ID.String()),
				slog.String("destination_user_id", n.DestinationUserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, n.DestinationUserID)
		}
		log.Error("failed to create notification",
			slog.String("error", err.Error()),
			slog.String("notification_id", n.ID.String()))
		return MapError(entityNotification, "create", err)
	}

	log.Debug("notification created",
		slog.String("notification_id", n.ID.String()),
		slog.String("destination_user_id", n.DestinationUserID.String()),
		slog.String("type", string(n.Type)))
	return nil
}

// ListByUser implements store.NotificationStore.ListByUser
func (s *PostgresNotificationStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE destination_user_id = $1
		ORDER BY created_at DESC, id
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list notifications",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(entityNotification, "list", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	notifications := make([]*domain.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			log.Error("failed to scan notification row", slog.String("error", err.Error()))
			return nil, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating notification rows", slog.String("error", err.Error()))
		return nil, err
	}

	return notifications, nil
}

// GetForUser implements store.NotificationStore.GetForUser
func (s *PostgresNotificationStore) GetForUser(
	ctx context.Context,
	id, userID uuid.UUID,
) (*domain.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE id = $1 AND destination_user_id = $2
	`
	n, err := scanNotification(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, s.lookupError(ctx, "get", id, userID, err)
	}
	return n, nil
}

// MarkRead implements store.NotificationStore.MarkRead
// The ownership check and the update are a single statement.
func (s *PostgresNotificationStore) MarkRead(
	ctx context.Context,
	id, userID uuid.UUID,
) (*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE notifications
		SET read = TRUE
		WHERE id = $1 AND destination_user_id = $2
		RETURNING ` + notificationColumns

	n, err := scanNotification(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, s.lookupError(ctx, "mark_read", id, userID, err)
	}

	log.Debug("notification marked as read",
		slog.String("notification_id", id.String()),
		slog.String("user_id", userID.String()))
	return n, nil
}

// MarkAllRead implements store.NotificationStore.MarkAllRead
func (s *PostgresNotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE destination_user_id = $1 AND read = FALSE`,
		userID)
	if err != nil {
		log.Error("failed to mark all notifications as read",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, MapError(entityNotification, "mark_all_read", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected", slog.String("error", err.Error()))
		return 0, err
	}

	log.Debug("marked notifications as read",
		slog.String("user_id", userID.String()),
		slog.Int64("count", affected))
	return affected, nil
}

// CountUnread implements store.NotificationStore.CountUnread
func (s *PostgresNotificationStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE destination_user_id = $1 AND read = FALSE`,
		userID,
	).Scan(&count)
	if err != nil {
		log.Error("failed to count unread notifications",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, MapError(entityNotification, "count_unread", err)
	}
	return count, nil
}

// WithTx implements store.NotificationStore.WithTx
func (s *PostgresNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore {
	return &PostgresNotificationStore{db: tx, logger: s.logger}
}

func (s *PostgresNotificationStore) lookupError(
	ctx context.Context,
	op string,
	id, userID uuid.UUID,
	err error,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("notification not found for user",
			slog.String("operation", op),
			slog.String("notification_id", id.String()),
			slog.String("user_id", userID.String()))
		return store.ErrNotificationNotFound
	}
	log.Error("notification lookup failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
		slog.String("notification_id", id.String()))
	return MapError(entityNotification, op, err)
}

func scanNotification(row rowScanner) (*domain.Notification, error) {
	var (
		n      domain.Notification
		taskID uuid.NullUUID
		typ    string
	)
	err := row.Scan(
		&n.ID,
		&n.DestinationUserID,
		&taskID,
		&typ,
		&n.Title,
		&n.Message,
		&n.Read,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if taskID.Valid {
		id := taskID.UUID
		n.TaskID = &id
	}
	n.Type = domain.NotificationType(typ)
	return &n, nil
}

func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
