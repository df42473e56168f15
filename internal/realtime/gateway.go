package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/phrazzld/taskhub/internal/config"
	"github.com/phrazzld/taskhub/internal/domain"
	"github.com/phrazzld/taskhub/internal/platform/logger"
	"github.com/phrazzld/taskhub/internal/store"
)

// NotificationReader is the part of the notification service a session needs.
type NotificationReader interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error)
	// MarkRead must return an error matching store.ErrNotFound when the
	// notification does not exist or belongs to another user.
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (*domain.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}

// SessionState is the lifecycle position of a connection.
type SessionState int

// Session states. Closed is terminal.
const (
	StateConnecting SessionState = iota
	StateAuthenticated
	StateActive
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type session struct {
	identity domain.Identity
	conn     *wsConn
	state    SessionState
}

type requestHandler func(ctx context.Context, s *session, data json.RawMessage) any

// Gateway is the websocket endpoint for notification sessions.
type Gateway struct {
	handshake     *Handshake
	registry      *Registry
	router        *Router
	notifications NotificationReader
	upgrader      websocket.Upgrader
	sendBuffer    int
	handlers      map[string]requestHandler
	logger        *slog.Logger
}

// NewGateway creates a Gateway.
func NewGateway(
	handshake *Handshake,
	registry *Registry,
	router *Router,
	notifications NotificationReader,
	cfg config.RealtimeConfig,
	logger *slog.Logger,
) *Gateway {
	if handshake == nil || registry == nil || router == nil || notifications == nil {
		panic("gateway dependencies cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	g := &Gateway{
		handshake:     handshake,
		registry:      registry,
		router:        router,
		notifications: notifications,
		sendBuffer:    cfg.SendBufferSize,
		logger:        logger.With(slog.String("component", "notification_gateway")),
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}
	g.handlers = map[string]requestHandler{
		EventSubscribe:        g.handleSubscribe,
		EventGetNotifications: g.handleGetNotifications,
		EventMarkAsRead:       g.handleMarkAsRead,
	}
	return g
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[strings.TrimRight(origin, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}

// ServeHTTP authenticates the request, upgrades it and runs the session until
// the client disconnects. Authentication failures are answered with 401
// before any upgrade.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, g.logger)

	identity, err := g.handshake.Authenticate(ctx, r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		log.Warn("websocket upgrade failed", "user_id", identity.UserID, "error", err)
		return
	}

	s := &session{
		identity: identity,
		conn:     newWSConn(ws, g.sendBuffer, g.logger),
		state:    StateAuthenticated,
	}
	ctx = logger.WithLogger(ctx, log.With(
		slog.String("user_id", identity.UserID.String()),
		slog.String("connection_id", s.conn.ID()),
	))

	go s.conn.writePump()
	g.handshake.Bind(ctx, identity, s.conn)
	defer g.close(ctx, s)

	g.welcome(ctx, s)
	s.state = StateActive

	s.conn.readPump(func(raw []byte) {
		g.handleMessage(ctx, s, raw)
	})
}

func (g *Gateway) close(ctx context.Context, s *session) {
	s.state = StateClosed
	g.registry.Unregister(s.identity.UserID, s.conn)
	_ = s.conn.Close()
	logger.FromContextOrDefault(ctx, g.logger).Info("client disconnected")
}

// welcome sends the current unread count to the new connection only. A
// failed count is logged and the session continues.
func (g *Gateway) welcome(ctx context.Context, s *session) {
	count, err := g.notifications.UnreadCount(ctx, s.identity.UserID)
	if err != nil {
		logger.FromContextOrDefault(ctx, g.logger).Error("failed to load unread count for welcome push",
			"error", err)
		return
	}
	if err := s.conn.Send(EventUnreadCount, UnreadCount{Count: count}); err != nil {
		logger.FromContextOrDefault(ctx, g.logger).Warn("failed to send welcome push", "error", err)
	}
}

func (g *Gateway) handleMessage(ctx context.Context, s *session, raw []byte) {
	log := logger.FromContextOrDefault(ctx, g.logger)

	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Event == "" {
		log.Debug("ignoring malformed frame", "size", len(raw))
		return
	}

	resp := g.handle(ctx, s, frame)
	if err := s.conn.reply(frame.Ack, resp); err != nil {
		log.Warn("failed to send response", "event", frame.Event, "error", err)
	}
}

func (g *Gateway) handle(ctx context.Context, s *session, frame Frame) any {
	handler, ok := g.handlers[frame.Event]
	if !ok {
		return failure(msgUnknownEvent)
	}
	if s.state != StateActive || s.identity.UserID == uuid.Nil {
		logger.FromContextOrDefault(ctx, g.logger).Warn("rejected request on inactive session",
			"event", frame.Event, "error", ErrNotAuthenticated)
		return failure(msgNotAuthenticated)
	}
	return handler(ctx, s, frame.Data)
}

func (g *Gateway) handleSubscribe(ctx context.Context, s *session, _ json.RawMessage) any {
	logger.FromContextOrDefault(ctx, g.logger).Info("user subscribed to notifications")
	return Response{Success: true}
}

func (g *Gateway) handleGetNotifications(ctx context.Context, s *session, _ json.RawMessage) any {
	list, err := g.notifications.ListForUser(ctx, s.identity.UserID)
	if err != nil {
		logger.FromContextOrDefault(ctx, g.logger).Error("failed to list notifications", "error", err)
		return failure(msgListFailed)
	}
	if list == nil {
		list = []*domain.Notification{}
	}
	return ListResponse{Success: true, Notifications: list}
}

func (g *Gateway) handleMarkAsRead(ctx context.Context, s *session, data json.RawMessage) any {
	log := logger.FromContextOrDefault(ctx, g.logger)

	var req MarkAsReadRequest
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			log.Debug("malformed markAsRead payload", "error", err)
			return failure(msgNotFound)
		}
	}
	id, err := uuid.Parse(req.NotificationID)
	if err != nil {
		return failure(msgNotFound)
	}

	n, err := g.notifications.MarkRead(ctx, s.identity.UserID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Debug("markAsRead on unknown notification", "notification_id", id)
			return failure(msgNotFound)
		}
		log.Error("failed to mark notification as read", "notification_id", id, "error", err)
		return failure(msgMarkReadFailed)
	}

	g.RefreshUnreadCount(ctx, s.identity.UserID)
	return Response{Success: true, Notification: n}
}

// RefreshUnreadCount pushes userID's current unread count to all of their
// connections.
func (g *Gateway) RefreshUnreadCount(ctx context.Context, userID uuid.UUID) {
	count, err := g.notifications.UnreadCount(ctx, userID)
	if err != nil {
		logger.FromContextOrDefault(ctx, g.logger).Error("failed to refresh unread count",
			"user_id", userID,
			"error", err)
		return
	}
	g.router.PushToUser(ctx, userID, EventUnreadCount, UnreadCount{Count: count})
}
