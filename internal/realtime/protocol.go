package realtime

import (
	"encoding/json"

	"github.com/phrazzld/taskhub/internal/domain"
)

// Client-to-server request names.
const (
	EventSubscribe        = "subscribeToNotifications"
	EventGetNotifications = "getNotifications"
	EventMarkAsRead       = "markAsRead"
)

// Server-to-client event names.
const (
	EventUnreadCount = "unreadCount"
	EventAck         = "ack"
)

// Payload keys added to every routed notification.
const (
	SourceEventKey = "_sourceEvent"
	TimestampKey   = "timestamp"
)

// Error messages returned in responses.
const (
	msgNotAuthenticated = "Not authenticated"
	msgNotFound         = "Notification not found"
	msgUnknownEvent     = "Unknown event"
	msgListFailed       = "Failed to fetch notifications"
	msgMarkReadFailed   = "Failed to mark notification as read"
)

// Frame is the envelope of every websocket message in both directions.
// Ack correlates a response with the request that caused it.
type Frame struct {
	Event string          `json:"event"`
	Ack   string          `json:"ack,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outboundFrame struct {
	Event string `json:"event"`
	Ack   string `json:"ack,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// UnreadCount is the payload of the unreadCount push.
type UnreadCount struct {
	Count int `json:"count"`
}

// Response answers subscribe and mark-read requests, and any failed request.
type Response struct {
	Success      bool                 `json:"success"`
	Error        string               `json:"error,omitempty"`
	Notification *domain.Notification `json:"notification,omitempty"`
}

// ListResponse answers a successful getNotifications request.
type ListResponse struct {
	Success       bool                   `json:"success"`
	Notifications []*domain.Notification `json:"notifications"`
}

// MarkAsReadRequest is the payload of a markAsRead request.
type MarkAsReadRequest struct {
	NotificationID string `json:"notificationId"`
}

func failure(msg string) Response {
	return Response{Success: false, Error: msg}
}
