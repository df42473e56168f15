package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub/internal/domain"
	"github.com/phrazzld/taskhub/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLookup struct {
	calls int
	roles domain.Roles
	err   error
}

func (l *countingLookup) LookupRoles(context.Context, uuid.UUID) (domain.Roles, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return l.roles, nil
}

func TestCachedRoleLookup(t *testing.T) {
	t.Parallel()

	next := &countingLookup{roles: domain.Roles{domain.RoleAdmin}}
	c := NewCachedRoleLookup(next, time.Minute, nil)
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		roles, err := c.LookupRoles(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, domain.Roles{domain.RoleAdmin}, roles)
	}
	assert.Equal(t, 1, next.calls)

	// callers cannot mutate the cached value
	roles, _ := c.LookupRoles(context.Background(), userID)
	roles[0] = domain.RoleUser
	roles, _ = c.LookupRoles(context.Background(), userID)
	assert.Equal(t, domain.Roles{domain.RoleAdmin}, roles)

	c.Invalidate(userID)
	_, err := c.LookupRoles(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedRoleLookup_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	next := &countingLookup{err: errors.New("database unavailable")}
	c := NewCachedRoleLookup(next, time.Minute, nil)
	userID := uuid.New()

	_, err := c.LookupRoles(context.Background(), userID)
	require.Error(t, err)

	next.err = nil
	next.roles = domain.Roles{domain.RoleUser}
	roles, err := c.LookupRoles(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, domain.Roles{domain.RoleUser}, roles)
	assert.Equal(t, 2, next.calls)
}

func TestCachedRoleLookup_Disabled(t *testing.T) {
	t.Parallel()

	next := &countingLookup{roles: domain.Roles{domain.RoleUser}}
	c := NewCachedRoleLookup(next, 0, nil)
	userID := uuid.New()

	_, _ = c.LookupRoles(context.Background(), userID)
	_, _ = c.LookupRoles(context.Background(), userID)
	c.Invalidate(userID)

	assert.Equal(t, 2, next.calls)
}

func TestCachedRoleLookup_HandleEvent(t *testing.T) {
	t.Parallel()

	next := &countingLookup{roles: domain.Roles{}}
	c := NewCachedRoleLookup(next, time.Minute, nil)
	userID := uuid.New()
	ctx := context.Background()

	_, _ = c.LookupRoles(ctx, userID)

	other, err := events.NewDomainEvent(events.TypeAnnouncement, events.AnnouncementPayload{Title: "t", Message: "m"})
	require.NoError(t, err)
	require.NoError(t, c.HandleEvent(ctx, other))
	_, _ = c.LookupRoles(ctx, userID)
	assert.Equal(t, 1, next.calls)

	registered, err := events.NewDomainEvent(events.TypeUserRegistered, events.UserPayload{ID: userID, Email: "new@example.com"})
	require.NoError(t, err)
	require.NoError(t, c.HandleEvent(ctx, registered))

	next.roles = domain.Roles{domain.RoleUser}
	roles, err := c.LookupRoles(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.Roles{domain.RoleUser}, roles)
	assert.Equal(t, 2, next.calls)

	bad := &events.DomainEvent{Type: events.TypeUserRegistered, Payload: []byte(`"nope"`)}
	assert.Error(t, c.HandleEvent(ctx, bad))
}
