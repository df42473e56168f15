package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/phrazzld/taskhub/internal/domain"
	"github.com/phrazzld/taskhub/internal/events"
)

// RoleLookup resolves a user's roles.
type RoleLookup interface {
	LookupRoles(ctx context.Context, userID uuid.UUID) (domain.Roles, error)
}

// CachedRoleLookup keeps successful role lookups for a fixed time so that a
// user opening many connections does not hit the database each time.
// Failures are not cached.
type CachedRoleLookup struct {
	next   RoleLookup
	cache  *cache.Cache
	logger *slog.Logger
}

var (
	_ RoleLookup          = (*CachedRoleLookup)(nil)
	_ events.EventHandler = (*CachedRoleLookup)(nil)
)

// NewCachedRoleLookup wraps next. A ttl of zero or less disables caching.
func NewCachedRoleLookup(next RoleLookup, ttl time.Duration, logger *slog.Logger) *CachedRoleLookup {
	if logger == nil {
		logger = slog.Default()
	}
	c := &CachedRoleLookup{
		next:   next,
		logger: logger.With("component", "role_cache"),
	}
	if ttl > 0 {
		c.cache = cache.New(ttl, 2*ttl)
	}
	return c
}

// LookupRoles implements RoleLookup.
func (c *CachedRoleLookup) LookupRoles(ctx context.Context, userID uuid.UUID) (domain.Roles, error) {
	if c.cache == nil {
		return c.next.LookupRoles(ctx, userID)
	}

	key := userID.String()
	if x, found := c.cache.Get(key); found {
		return copyRoles(x.(domain.Roles)), nil
	}

	roles, err := c.next.LookupRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, copyRoles(roles), cache.DefaultExpiration)
	c.logger.Debug("cached user roles", "user_id", userID, "roles", roles.Strings())
	return roles, nil
}

// Invalidate forgets the cached roles of userID.
func (c *CachedRoleLookup) Invalidate(userID uuid.UUID) {
	if c.cache != nil {
		c.cache.Delete(userID.String())
	}
}

// HandleEvent drops the cached entry of a newly registered user. A client may
// have connected with that id before the user row was committed, leaving an
// empty role set in the cache.
func (c *CachedRoleLookup) HandleEvent(_ context.Context, event *events.DomainEvent) error {
	if event.Type != events.TypeUserRegistered {
		return nil
	}
	var payload events.UserPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", event.Type, err)
	}
	c.Invalidate(payload.ID)
	return nil
}

func copyRoles(roles domain.Roles) domain.Roles {
	out := make(domain.Roles, len(roles))
	copy(out, roles)
	return out
}
