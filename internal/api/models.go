package api

import "github.com/phrazzld/taskhub/internal/domain"

// NotificationListResponse is returned by GET /api/notifications.
type NotificationListResponse struct {
	Notifications []*domain.Notification `json:"notifications"`
}

// UnreadCountResponse is returned by GET /api/notifications/unread-count.
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// MarkAllReadResponse reports how many notifications changed state.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// AnnouncementRequest is the body of POST /api/announcements.
type AnnouncementRequest struct {
	Title   string `json:"title"   validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=2000"`
}
