package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub/internal/domain"
	"github.com/phrazzld/taskhub/internal/platform/logger"
	"github.com/phrazzld/taskhub/internal/realtime"
	"github.com/phrazzld/taskhub/internal/store"
)

// Source event names echoed to clients as _sourceEvent.
const (
	SourceTaskNotification = "taskNotification"
	SourceUserNotification = "userNotification"
	SourceAnnouncement     = "announcement"
)

// EventDispatcher delivers events to connected clients.
type EventDispatcher interface {
	Dispatch(ctx context.Context, ev realtime.Event) realtime.DispatchResult
}

// NotificationService records notifications for task and user lifecycle
// events, pushes them to connected clients, and serves the read side.
//
// The Notify methods never return errors. A task or user operation must not
// fail because its notification could not be stored or delivered, so failures
// are logged and dropped.
type NotificationService interface {
	// NotifyNewTask tells the task owner about a newly assigned task.
	NotifyNewTask(ctx context.Context, task *domain.Task, actorID uuid.UUID)

	// NotifyTaskUpdate tells the task owner their task changed.
	NotifyTaskUpdate(ctx context.Context, task *domain.Task, actorID uuid.UUID)

	// NotifyTaskDeletion tells the task owner their task was removed. A task
	// without a known owner is announced to everyone and not stored.
	NotifyTaskDeletion(ctx context.Context, task *domain.Task, actorID uuid.UUID)

	// NotifyNewUser stores a notification for every administrator and pushes
	// one admin-only event.
	NotifyNewUser(ctx context.Context, user *domain.User)

	// Announce broadcasts a message to every connected client without storing it.
	Announce(ctx context.Context, title, message string)

	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error)

	// MarkRead marks the notification read if it belongs to userID.
	// Returns an error wrapping store.ErrNotificationNotFound otherwise.
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (*domain.Notification, error)

	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)

	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)

	// LookupRoles returns the roles of an active user. Unknown or inactive
	// users have no roles.
	LookupRoles(ctx context.Context, userID uuid.UUID) (domain.Roles, error)
}

type notificationServiceImpl struct {
	notificationStore store.NotificationStore
	userStore         store.UserStore
	db                store.TxBeginner
	dispatcher        EventDispatcher
	logger            *slog.Logger
}

var _ NotificationService = (*notificationServiceImpl)(nil)

// NewNotificationService creates a NotificationService.
func NewNotificationService(
	notificationStore store.NotificationStore,
	userStore store.UserStore,
	db store.TxBeginner,
	dispatcher EventDispatcher,
	logger *slog.Logger,
) (NotificationService, error) {
	if notificationStore == nil {
		return nil, missing("notificationStore")
	}
	if userStore == nil {
		return nil, missing("userStore")
	}
	if db == nil {
		return nil, missing("db")
	}
	if dispatcher == nil {
		return nil, missing("dispatcher")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &notificationServiceImpl{
		notificationStore: notificationStore,
		userStore:         userStore,
		db:                db,
		dispatcher:        dispatcher,
		logger:            logger.With(slog.String("component", "notification_service")),
	}, nil
}

func (s *notificationServiceImpl) NotifyNewTask(ctx context.Context, task *domain.Task, actorID uuid.UUID) {
	s.notifyOwner(ctx, task, actorID, domain.NotificationNewTask, domain.NewTaskMessage(task.Title), true)
}

func (s *notificationServiceImpl) NotifyTaskUpdate(ctx context.Context, task *domain.Task, actorID uuid.UUID) {
	s.notifyOwner(ctx, task, actorID, domain.NotificationUpdateTask, domain.TaskUpdatedMessage(task.Title), true)
}

func (s *notificationServiceImpl) NotifyTaskDeletion(ctx context.Context, task *domain.Task, actorID uuid.UUID) {
	s.notifyOwner(ctx, task, actorID, domain.NotificationDeleteTask, domain.TaskDeletedMessage(task.Title), false)
}

// notifyOwner stores a notification for the task owner and dispatches it to
// the owner with an admin shadow. Deleted tasks are not referenced by id.
func (s *notificationServiceImpl) notifyOwner(
	ctx context.Context,
	task *domain.Task,
	actorID uuid.UUID,
	typ domain.NotificationType,
	message string,
	linkTask bool,
) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("notification_type", string(typ)),
		slog.String("task_id", task.ID.String()),
	)

	if task.UserID == uuid.Nil {
		log.Warn("task has no owner, broadcasting without a record")
		s.dispatcher.Dispatch(ctx, realtime.Event{
			Name: SourceTaskNotification,
			Type: typ,
			Payload: map[string]any{
				"type":      typ,
				"title":     typ.Title(),
				"message":   message,
				"taskId":    task.ID,
				"createdAt": time.Now().UTC(),
			},
			ExcludeUserID: actorID,
		})
		return
	}

	var taskID *uuid.UUID
	if linkTask && task.ID != uuid.Nil {
		id := task.ID
		taskID = &id
	}

	n, err := domain.NewNotification(task.UserID, taskID, typ, message)
	if err != nil {
		log.Error("failed to build notification", "error", err)
		return
	}
	if err := s.notificationStore.Create(ctx, n); err != nil {
		log.Error("failed to store notification",
			"error", err,
			"user_id", task.UserID)
		return
	}

	result := s.dispatcher.Dispatch(ctx, realtime.Event{
		Name:          SourceTaskNotification,
		Type:          typ,
		Payload:       n,
		TargetUserID:  task.UserID,
		ExcludeUserID: actorID,
	})
	log.Debug("task notification sent",
		"notification_id", n.ID,
		"recipients", result.Recipients)
}

func (s *notificationServiceImpl) NotifyNewUser(ctx context.Context, user *domain.User) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("new_user_id", user.ID.String()))
	message := domain.NewUserMessage(user)

	var stored int
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		admins, err := s.userStore.WithTx(tx).ListByRole(ctx, domain.RoleAdmin)
		if err != nil {
			return fmt.Errorf("failed to list administrators: %w", err)
		}

		txStore := s.notificationStore.WithTx(tx)
		for _, admin := range admins {
			if admin.ID == user.ID {
				continue
			}
			n, err := domain.NewNotification(admin.ID, nil, domain.NotificationNewUser, message)
			if err != nil {
				return err
			}
			if err := txStore.Create(ctx, n); err != nil {
				return err
			}
			stored++
		}
		return nil
	})
	if err != nil {
		log.Error("failed to store new user notifications", "error", err)
		return
	}

	result := s.dispatcher.Dispatch(ctx, realtime.Event{
		Name: SourceUserNotification,
		Type: domain.NotificationNewUser,
		Payload: map[string]any{
			"type":      domain.NotificationNewUser,
			"title":     domain.NotificationNewUser.Title(),
			"message":   message,
			"userId":    user.ID,
			"createdAt": time.Now().UTC(),
		},
		ExcludeUserID: user.ID,
	})
	log.Debug("new user notification sent",
		"stored", stored,
		"recipients", result.Recipients)
}

func (s *notificationServiceImpl) Announce(ctx context.Context, title, message string) {
	result := s.dispatcher.Dispatch(ctx, realtime.Event{
		Name: SourceAnnouncement,
		Payload: map[string]any{
			"title":     title,
			"message":   message,
			"createdAt": time.Now().UTC(),
		},
	})
	logger.FromContextOrDefault(ctx, s.logger).Info("announcement broadcast",
		"recipients", result.Recipients,
		"failed", result.Failed)
}

func (s *notificationServiceImpl) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error) {
	list, err := s.notificationStore.ListByUser(ctx, userID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list notifications",
			"error", err,
			"user_id", userID)
		return nil, NewNotificationServiceError("list_notifications", "failed to list notifications", err)
	}
	return list, nil
}

func (s *notificationServiceImpl) MarkRead(
	ctx context.Context,
	userID, notificationID uuid.UUID,
) (*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	n, err := s.notificationStore.MarkRead(ctx, notificationID, userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("notification not found for user",
				"user_id", userID,
				"notification_id", notificationID)
		} else {
			log.Error("failed to mark notification as read",
				"error", err,
				"user_id", userID,
				"notification_id", notificationID)
		}
		return nil, NewNotificationServiceError("mark_read", "failed to mark notification as read", err)
	}
	return n, nil
}

func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	changed, err := s.notificationStore.MarkAllRead(ctx, userID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to mark all notifications as read",
			"error", err,
			"user_id", userID)
		return 0, NewNotificationServiceError("mark_all_read", "failed to mark notifications as read", err)
	}
	return changed, nil
}

func (s *notificationServiceImpl) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := s.notificationStore.CountUnread(ctx, userID)
	if err != nil {
		return 0, NewNotificationServiceError("unread_count", "failed to count unread notifications", err)
	}
	return count, nil
}

func (s *notificationServiceImpl) LookupRoles(ctx context.Context, userID uuid.UUID) (domain.Roles, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			logger.FromContextOrDefault(ctx, s.logger).Debug("role lookup for unknown user", "user_id", userID)
			return domain.Roles{}, nil
		}
		return nil, NewNotificationServiceError("lookup_roles", "failed to look up user roles", err)
	}
	if !user.IsActive {
		return domain.Roles{}, nil
	}
	return user.Identity().Roles, nil
}
