package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	apimw "github.com/phrazzld/taskhub/internal/api/middleware"
	"github.com/phrazzld/taskhub/internal/api/shared"
	"github.com/phrazzld/taskhub/internal/domain"
	"github.com/phrazzld/taskhub/internal/realtime"
	"github.com/phrazzld/taskhub/internal/service/auth"
)

// GatewayPath is where the websocket gateway is mounted.
const GatewayPath = "/notifications"

// StatsProvider reports live connection counts.
type StatsProvider interface {
	Stats() realtime.Stats
}

// RouterDeps holds everything the router mounts. Ready is optional and backs
// the readiness half of /health.
type RouterDeps struct {
	Logger        *slog.Logger
	JWTService    auth.JWTService
	Roles         apimw.RoleLookup
	Notifications NotificationService
	Pusher        UnreadCountPusher
	Announcer     Announcer
	Gateway       http.Handler
	Stats         StatsProvider
	Ready         func(ctx context.Context) error
}

// NewRouter builds the HTTP handler for the service.
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(apimw.NewTraceMiddleware(log))

	notificationHandler := NewNotificationHandler(deps.Notifications, deps.Pusher, log)
	announcementHandler := NewAnnouncementHandler(deps.Announcer, log)
	authMiddleware := apimw.NewAuthMiddleware(deps.JWTService, log)

	r.Get("/health", healthHandler(deps.Ready, log))

	// The gateway authenticates during the handshake itself.
	r.Handle(GatewayPath, deps.Gateway)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Use(chimw.Timeout(30 * time.Second))

		r.Get("/notifications", notificationHandler.List)
		r.Get("/notifications/unread-count", notificationHandler.UnreadCount)
		r.Post("/notifications/read-all", notificationHandler.MarkAllRead)
		r.Post("/notifications/{id}/read", notificationHandler.MarkRead)

		r.Group(func(r chi.Router) {
			r.Use(apimw.RequireRole(deps.Roles, domain.RoleAdmin))
			r.Post("/announcements", announcementHandler.Create)
			if deps.Stats != nil {
				r.Get("/admin/connections", func(w http.ResponseWriter, r *http.Request) {
					shared.RespondWithJSON(w, r, http.StatusOK, deps.Stats.Stats())
				})
			}
		})
	})

	return r
}

func healthHandler(ready func(ctx context.Context) error, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, "Not ready", err)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error("failed to write health check response", "error", err)
		}
	}
}
