package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub/internal/api/shared"
	"github.com/phrazzld/taskhub/internal/domain"
	"github.com/phrazzld/taskhub/internal/platform/logger"
)

// RoleLookup resolves the roles of an authenticated user.
type RoleLookup interface {
	LookupRoles(ctx context.Context, userID uuid.UUID) (domain.Roles, error)
}

// RequireRole rejects requests whose user lacks role with 403. It must run
// after AuthMiddleware.Authenticate.
func RequireRole(roles RoleLookup, role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r)
			if !ok {
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
				return
			}

			held, err := roles.LookupRoles(r.Context(), userID)
			if err != nil {
				shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
					"Authorization error", err)
				return
			}
			if !held.Has(role) {
				logger.FromContext(r.Context()).Warn("role required",
					slog.String("role", string(role)))
				shared.RespondWithError(w, r, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
