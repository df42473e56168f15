package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskhub/internal/api/shared"
	"github.com/phrazzld/taskhub/internal/platform/logger"
	"github.com/phrazzld/taskhub/internal/redact"
)

// Announcer broadcasts a message to every connected client.
type Announcer interface {
	Announce(ctx context.Context, title, message string)
}

// AnnouncementHandler serves POST /api/announcements. Routing restricts it
// to administrators.
type AnnouncementHandler struct {
	announcer Announcer
	logger    *slog.Logger
}

// NewAnnouncementHandler creates an AnnouncementHandler.
func NewAnnouncementHandler(announcer Announcer, logger *slog.Logger) *AnnouncementHandler {
	if announcer == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("announcer cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnnouncementHandler{
		announcer: announcer,
		logger:    logger.With(slog.String("component", "announcement_handler")),
	}
}

// Create validates the announcement and broadcasts it. Nothing is stored.
func (h *AnnouncementHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req AnnouncementRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Debug("invalid announcement body", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	h.announcer.Announce(r.Context(), req.Title, req.Message)
	log.Info("announcement accepted", slog.String("title", req.Title))
	w.WriteHeader(http.StatusAccepted)
}
