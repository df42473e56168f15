package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub/internal/domain"
	"github.com/phrazzld/taskhub/internal/platform/logger"
	"github.com/phrazzld/taskhub/internal/service/auth"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("realtime")

// TokenQueryParam is the query parameter browsers use to pass the access token,
// since the websocket API cannot set request headers.
const TokenQueryParam = "token"

// CredentialVerifier validates access tokens.
type CredentialVerifier interface {
	ValidateToken(ctx context.Context, token string) (*auth.Claims, error)
}

// RoleLookup resolves the roles of a user. A user that does not exist may be
// reported either as an error or as an empty role set.
type RoleLookup interface {
	LookupRoles(ctx context.Context, userID uuid.UUID) (domain.Roles, error)
}

// Handshake authenticates connection attempts and binds accepted connections
// to the registry.
type Handshake struct {
	verifier CredentialVerifier
	roles    RoleLookup
	registry *Registry
	logger   *slog.Logger
}

// NewHandshake creates a Handshake.
func NewHandshake(verifier CredentialVerifier, roles RoleLookup, registry *Registry, logger *slog.Logger) *Handshake {
	if verifier == nil || roles == nil || registry == nil {
		panic("handshake dependencies cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handshake{
		verifier: verifier,
		roles:    roles,
		registry: registry,
		logger:   logger.With(slog.String("component", "realtime_handshake")),
	}
}

// ExtractCredential returns the bearer token of a connection attempt, taken
// from the token query parameter or else the Authorization header.
func ExtractCredential(r *http.Request) (string, error) {
	if token := strings.TrimSpace(r.URL.Query().Get(TokenQueryParam)); token != "" {
		return token, nil
	}

	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingCredential
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingCredential
	}
	return token, nil
}

// Authenticate verifies the credential of r and resolves the caller's roles.
// It returns ErrMissingCredential or ErrInvalidCredential on failure. Role
// lookup failures are logged and yield an identity without roles.
func (h *Handshake) Authenticate(ctx context.Context, r *http.Request) (domain.Identity, error) {
	ctx, span := tracer.Start(ctx, "Realtime.Handshake.Authenticate")
	defer span.End()

	log := logger.FromContextOrDefault(ctx, h.logger)

	token, err := ExtractCredential(r)
	if err != nil {
		log.Warn("connection attempt without credential", "remote_addr", r.RemoteAddr)
		span.RecordError(err)
		return domain.Identity{}, err
	}

	claims, err := h.verifier.ValidateToken(ctx, token)
	if err != nil {
		log.Warn("connection attempt with invalid credential",
			"remote_addr", r.RemoteAddr,
			"reason", err.Error())
		span.RecordError(err)
		return domain.Identity{}, ErrInvalidCredential
	}

	identity := domain.Identity{UserID: claims.UserID}
	span.SetAttributes(attribute.String("user_id", identity.UserID.String()))

	roles, err := h.roles.LookupRoles(ctx, claims.UserID)
	if err != nil {
		log.Warn("role lookup failed, continuing without roles",
			"user_id", claims.UserID,
			"error", err)
		return identity, nil
	}
	identity.Roles = roles
	return identity, nil
}

// Bind registers conn for identity and caches its roles.
func (h *Handshake) Bind(ctx context.Context, identity domain.Identity, conn Conn) {
	h.registry.RegisterWithRoles(identity.UserID, conn, identity.Roles)

	logger.FromContextOrDefault(ctx, h.logger).Info("client connected",
		"user_id", identity.UserID,
		"connection_id", conn.ID(),
		"roles", identity.Roles.Strings())
}
