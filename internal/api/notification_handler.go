package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub/internal/api/shared"
	"github.com/phrazzld/taskhub/internal/domain"
	"github.com/phrazzld/taskhub/internal/platform/logger"
)

// NotificationService is the read side of the notification service used by
// the REST endpoints.
type NotificationService interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}

// UnreadCountPusher pushes a user's current unread count to their live
// connections.
type UnreadCountPusher interface {
	RefreshUnreadCount(ctx context.Context, userID uuid.UUID)
}

// NotificationHandler serves the notification REST endpoints.
type NotificationHandler struct {
	notifications NotificationService
	pusher        UnreadCountPusher
	logger        *slog.Logger
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(
	notifications NotificationService,
	pusher UnreadCountPusher,
	logger *slog.Logger,
) *NotificationHandler {
	if notifications == nil || pusher == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("notification handler dependencies cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHandler{
		notifications: notifications,
		pusher:        pusher,
		logger:        logger.With(slog.String("component", "notification_handler")),
	}
}

// List handles GET /api/notifications.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	list, err := h.notifications.ListForUser(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to fetch notifications")
		return
	}
	if list == nil {
		list = []*domain.Notification{}
	}

	log.Debug("listed notifications", slog.Int("count", len(list)))
	shared.RespondWithJSON(w, r, http.StatusOK, NotificationListResponse{Notifications: list})
}

// UnreadCount handles GET /api/notifications/unread-count.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	count, err := h.notifications.UnreadCount(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to count notifications")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, UnreadCountResponse{Count: count})
}

// MarkRead handles POST /api/notifications/{id}/read. On success the user's
// live connections receive the new unread count.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, notificationID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	n, err := h.notifications.MarkRead(r.Context(), userID, notificationID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to mark notification as read")
		return
	}

	h.pusher.RefreshUnreadCount(r.Context(), userID)
	log.Debug("notification marked read", slog.String("notification_id", notificationID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, n)
}

// MarkAllRead handles POST /api/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	updated, err := h.notifications.MarkAllRead(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to mark notifications as read")
		return
	}
	if updated > 0 {
		h.pusher.RefreshUnreadCount(r.Context(), userID)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, MarkAllReadResponse{Updated: updated})
}
