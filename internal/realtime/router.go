package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub/internal/domain"
	"github.com/phrazzld/taskhub/internal/platform/logger"
	"go.opentelemetry.io/otel/attribute"
)

// timestampLayout renders UTC times with millisecond precision and a Z suffix.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Event is something that happened which connected users may need to hear about.
type Event struct {
	// Name is the source event, echoed to clients as _sourceEvent.
	Name string
	// Type selects the routing policy and, when set, the client-facing event name.
	Type domain.NotificationType
	// Payload must marshal to a JSON object. Other values are sent under "data".
	Payload any
	// TargetUserID, when set, addresses the event to one user with an
	// administrator shadow copy.
	TargetUserID uuid.UUID
	// ExcludeUserID is left out of the administrator shadow and of broadcasts.
	// It never suppresses delivery to TargetUserID.
	ExcludeUserID uuid.UUID
}

// wireName is the event name clients receive.
func (e Event) wireName() string {
	if e.Type != "" {
		return string(e.Type)
	}
	return e.Name
}

// DispatchResult counts the deliveries attempted by a dispatch.
type DispatchResult struct {
	Recipients int
	Delivered  int
	Failed     int
}

// Router fans events out to live connections.
type Router struct {
	registry *Registry
	logger   *slog.Logger
	now      func() time.Time
}

// NewRouter creates a Router over registry.
func NewRouter(registry *Registry, logger *slog.Logger) *Router {
	if registry == nil {
		panic("registry cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		registry: registry,
		logger:   logger.With(slog.String("component", "notification_router")),
		now:      time.Now,
	}
}

// Dispatch delivers ev according to its routing policy:
//   - NEW_USER events reach connected administrators only.
//   - Events with a TargetUserID reach the target and every other connected
//     administrator. An administrator who is the target gets one copy.
//   - Anything else is broadcast to every connection.
//
// Every delivery carries its own _sourceEvent and timestamp. Failed sends are
// logged and do not affect other recipients; Dispatch never fails.
func (r *Router) Dispatch(ctx context.Context, ev Event) DispatchResult {
	ctx, span := tracer.Start(ctx, "Realtime.Router.Dispatch")
	defer span.End()

	log := logger.FromContextOrDefault(ctx, r.logger).With(
		slog.String("event", ev.Name),
		slog.String("notification_type", string(ev.Type)),
	)

	base := payloadObject(ev.Payload)
	recipients := r.recipients(ev)

	result := DispatchResult{Recipients: len(recipients)}
	for _, conn := range recipients {
		data := make(map[string]any, len(base)+2)
		for k, v := range base {
			data[k] = v
		}
		data[SourceEventKey] = ev.Name
		data[TimestampKey] = r.now().UTC().Format(timestampLayout)

		if err := conn.Send(ev.wireName(), data); err != nil {
			result.Failed++
			log.Warn("failed to deliver notification",
				"connection_id", conn.ID(),
				"error", err)
			continue
		}
		result.Delivered++
	}

	span.SetAttributes(
		attribute.String("event", ev.Name),
		attribute.Int("recipients", result.Recipients),
		attribute.Int("failed", result.Failed),
	)
	log.Debug("notification dispatched",
		"recipients", result.Recipients,
		"delivered", result.Delivered,
		"failed", result.Failed)

	return result
}

// PushToUser sends data unchanged to every connection of userID.
func (r *Router) PushToUser(ctx context.Context, userID uuid.UUID, event string, data any) DispatchResult {
	log := logger.FromContextOrDefault(ctx, r.logger)

	conns := r.registry.ConnectionsFor(userID)
	result := DispatchResult{Recipients: len(conns)}
	for _, conn := range conns {
		if err := conn.Send(event, data); err != nil {
			result.Failed++
			log.Warn("failed to push to user",
				"user_id", userID,
				"connection_id", conn.ID(),
				"event", event,
				"error", err)
			continue
		}
		result.Delivered++
	}
	return result
}

func (r *Router) recipients(ev Event) []Conn {
	if ev.Type == domain.NotificationNewUser {
		return r.connectionsOf(r.admins(ev.ExcludeUserID))
	}

	if ev.TargetUserID != uuid.Nil {
		users := []uuid.UUID{ev.TargetUserID}
		for _, admin := range r.admins(ev.ExcludeUserID) {
			if admin != ev.TargetUserID {
				users = append(users, admin)
			}
		}
		return r.connectionsOf(users)
	}

	return r.registry.AllConnectionsExcept(ev.ExcludeUserID)
}

func (r *Router) admins(exclude uuid.UUID) []uuid.UUID {
	admins := r.registry.UsersWithRole(domain.RoleAdmin)
	out := admins[:0]
	for _, id := range admins {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}

func (r *Router) connectionsOf(users []uuid.UUID) []Conn {
	seen := make(map[string]struct{})
	var out []Conn
	for _, userID := range users {
		for _, conn := range r.registry.ConnectionsFor(userID) {
			if _, dup := seen[conn.ID()]; dup {
				continue
			}
			seen[conn.ID()] = struct{}{}
			out = append(out, conn)
		}
	}
	return out
}

// payloadObject converts v into a JSON object map.
func payloadObject(v any) map[string]any {
	if v == nil {
		return map[string]any{}
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]any{"data": v}
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return map[string]any{"data": v}
	}
	return obj
}
