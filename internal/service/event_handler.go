package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskhub/internal/domain"
	"github.com/phrazzld/taskhub/internal/events"
)

// NotificationEventHandler turns domain events into notifications.
type NotificationEventHandler struct {
	notifications NotificationService
	logger        *slog.Logger
}

var _ events.EventHandler = (*NotificationEventHandler)(nil)

// NewNotificationEventHandler creates a NotificationEventHandler.
func NewNotificationEventHandler(notifications NotificationService, logger *slog.Logger) *NotificationEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationEventHandler{
		notifications: notifications,
		logger:        logger.With("component", "notification_event_handler"),
	}
}

// HandleEvent implements events.EventHandler. Unknown event types are ignored;
// a payload that cannot be decoded is an error.
func (h *NotificationEventHandler) HandleEvent(ctx context.Context, event *events.DomainEvent) error {
	switch event.Type {
	case events.TypeTaskCreated, events.TypeTaskUpdated, events.TypeTaskDeleted:
		var payload events.TaskPayload
		if err := event.UnmarshalPayload(&payload); err != nil {
			return h.badPayload(event, err)
		}
		task := payload.Task
		switch event.Type {
		case events.TypeTaskCreated:
			h.notifications.NotifyNewTask(ctx, &task, payload.ActorID)
		case events.TypeTaskUpdated:
			h.notifications.NotifyTaskUpdate(ctx, &task, payload.ActorID)
		default:
			h.notifications.NotifyTaskDeletion(ctx, &task, payload.ActorID)
		}

	case events.TypeUserRegistered:
		var payload events.UserPayload
		if err := event.UnmarshalPayload(&payload); err != nil {
			return h.badPayload(event, err)
		}
		h.notifications.NotifyNewUser(ctx, &domain.User{
			ID:        payload.ID,
			Email:     payload.Email,
			FirstName: payload.FirstName,
			LastName:  payload.LastName,
		})

	case events.TypeAnnouncement:
		var payload events.AnnouncementPayload
		if err := event.UnmarshalPayload(&payload); err != nil {
			return h.badPayload(event, err)
		}
		h.notifications.Announce(ctx, payload.Title, payload.Message)

	default:
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
	}
	return nil
}

func (h *NotificationEventHandler) badPayload(event *events.DomainEvent, err error) error {
	h.logger.Error("failed to unmarshal payload",
		"error", err,
		"event_id", event.ID,
		"event_type", event.Type)
	return fmt.Errorf("failed to unmarshal %s payload: %w", event.Type, err)
}
