package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub/internal/domain"
	"github.com/phrazzld/taskhub/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routerFixture struct {
	registry *Registry
	router   *Router
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	log, _ := logger.NewTestLogger()
	registry := NewRegistry()
	router := NewRouter(registry, log)
	router.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return &routerFixture{registry: registry, router: router}
}

func (f *routerFixture) connect(user uuid.UUID, roles domain.Roles, conns ...Conn) {
	for _, c := range conns {
		f.registry.Register(user, c)
	}
	f.registry.SetRoles(user, roles)
}

func admin() domain.Roles { return domain.Roles{domain.RoleAdmin} }
func regular() domain.Roles { return domain.Roles{domain.RoleUser} }

func TestRouter_NewUserReachesAdminsOnly(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	admin1, admin2, user := newFakeConn(), newFakeConn(), newFakeConn()
	adminID := uuid.New()
	f.connect(adminID, admin(), admin1, admin2)
	f.connect(uuid.New(), regular(), user)

	// the target is ignored for admin-only events
	result := f.router.Dispatch(context.Background(), Event{
		Name:         "userNotification",
		Type:         domain.NotificationNewUser,
		Payload:      map[string]any{"message": "someone joined"},
		TargetUserID: uuid.New(),
	})

	assert.Equal(t, DispatchResult{Recipients: 2, Delivered: 2}, result)
	assert.Len(t, admin1.frames(), 1)
	assert.Len(t, admin2.frames(), 1)
	assert.Empty(t, user.frames())
}

func TestRouter_TargetedEventShadowsAdmins(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	target, otherAdmin, bystander := newFakeConn(), newFakeConn(), newFakeConn()
	targetID := uuid.New()
	f.connect(targetID, regular(), target)
	f.connect(uuid.New(), admin(), otherAdmin)
	f.connect(uuid.New(), regular(), bystander)

	f.router.Dispatch(context.Background(), Event{
		Name:         "taskNotification",
		Type:         domain.NotificationNewTask,
		Payload:      map[string]any{"message": "hi"},
		TargetUserID: targetID,
	})

	assert.Len(t, target.frames(), 1)
	assert.Len(t, otherAdmin.frames(), 1)
	assert.Empty(t, bystander.frames())
}

func TestRouter_AdminTargetGetsSingleCopy(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	conn := newFakeConn()
	adminID := uuid.New()
	f.connect(adminID, admin(), conn)

	result := f.router.Dispatch(context.Background(), Event{
		Name:         "taskNotification",
		Type:         domain.NotificationUpdateTask,
		TargetUserID: adminID,
	})

	assert.Equal(t, 1, result.Recipients)
	assert.Len(t, conn.frames(), 1)
}

func TestRouter_ExcludeSkipsShadowButNotTarget(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	target, actingAdmin := newFakeConn(), newFakeConn()
	targetID, actorID := uuid.New(), uuid.New()
	f.connect(targetID, regular(), target)
	f.connect(actorID, admin(), actingAdmin)

	f.router.Dispatch(context.Background(), Event{
		Name:          "taskNotification",
		Type:          domain.NotificationUpdateTask,
		TargetUserID:  targetID,
		ExcludeUserID: actorID,
	})
	assert.Len(t, target.frames(), 1)
	assert.Empty(t, actingAdmin.frames())

	f.router.Dispatch(context.Background(), Event{
		Name:          "taskNotification",
		Type:          domain.NotificationUpdateTask,
		TargetUserID:  targetID,
		ExcludeUserID: targetID,
	})
	assert.Len(t, target.frames(), 2)
}

func TestRouter_Broadcast(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	a, b, c := newFakeConn(), newFakeConn(), newFakeConn()
	excluded := uuid.New()
	f.connect(uuid.New(), admin(), a)
	f.connect(uuid.New(), regular(), b)
	f.connect(excluded, regular(), c)

	result := f.router.Dispatch(context.Background(), Event{
		Name:          "announcement",
		Payload:       map[string]any{"message": "maintenance tonight"},
		ExcludeUserID: excluded,
	})

	assert.Equal(t, 2, result.Delivered)
	require.Len(t, a.frames(), 1)
	assert.Equal(t, "announcement", a.frames()[0].Event, "untyped events use their source name")
	assert.Len(t, b.frames(), 1)
	assert.Empty(t, c.frames())
}

func TestRouter_DeadHandleIsIsolated(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	ok1, dead, ok2 := newFakeConn(), deadConn(), newFakeConn()
	userID := uuid.New()
	f.connect(userID, regular(), ok1, dead, ok2)

	result := f.router.Dispatch(context.Background(), Event{
		Name:         "taskNotification",
		Type:         domain.NotificationNewTask,
		TargetUserID: userID,
	})

	assert.Equal(t, DispatchResult{Recipients: 3, Delivered: 2, Failed: 1}, result)
	assert.Len(t, ok1.frames(), 1)
	assert.Len(t, ok2.frames(), 1)
}

func TestRouter_EnrichesEachSend(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	a, b := newFakeConn(), newFakeConn()
	f.connect(uuid.New(), regular(), a)
	f.connect(uuid.New(), regular(), b)

	type payload struct {
		Message string `json:"message"`
	}
	f.router.Dispatch(context.Background(), Event{
		Name:    "taskNotification",
		Type:    domain.NotificationDeleteTask,
		Payload: payload{Message: "gone"},
	})

	for _, conn := range []*fakeConn{a, b} {
		frames := conn.frames()
		require.Len(t, frames, 1)
		assert.Equal(t, "DELETE_TASK", frames[0].Event)
		data, ok := frames[0].Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "gone", data["message"])
		assert.Equal(t, "taskNotification", data[SourceEventKey])
		assert.Equal(t, "2025-06-01T12:00:00.000Z", data[TimestampKey])
	}

	// each recipient gets its own map
	a.frames()[0].Data.(map[string]any)["message"] = "changed"
	assert.Equal(t, "gone", b.frames()[0].Data.(map[string]any)["message"])
}

func TestRouter_NonObjectPayload(t *testing.T) {
	t.Parallel()

	assert.Equal(t, map[string]any{"data": 42}, payloadObject(42))
	assert.Equal(t, map[string]any{}, payloadObject(nil))
	assert.Equal(t, map[string]any{"count": float64(3)}, payloadObject(UnreadCount{Count: 3}))
}

func TestRouter_PushToUser(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	a, b, other := newFakeConn(), newFakeConn(), newFakeConn()
	userID := uuid.New()
	f.connect(userID, regular(), a, b)
	f.connect(uuid.New(), admin(), other)

	result := f.router.PushToUser(context.Background(), userID, EventUnreadCount, UnreadCount{Count: 2})

	assert.Equal(t, 2, result.Delivered)
	require.Len(t, a.frames(), 1)
	assert.Equal(t, UnreadCount{Count: 2}, a.frames()[0].Data)
	assert.Len(t, b.frames(), 1)
	assert.Empty(t, other.frames(), "admins do not shadow direct pushes")
}

// An admin and a regular user are connected. The user's new task reaches both
// of them, and a later registration reaches only the admin.
func TestRouter_TaskThenRegistrationScenario(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	a1, b1 := newFakeConn(), newFakeConn()
	adminID, userID := uuid.New(), uuid.New()
	f.connect(adminID, admin(), a1)
	f.connect(userID, regular(), b1)

	f.router.Dispatch(context.Background(), Event{
		Name:         "taskNotification",
		Type:         domain.NotificationNewTask,
		Payload:      map[string]any{"message": "new task"},
		TargetUserID: userID,
	})
	assert.Len(t, a1.frames(), 1)
	assert.Len(t, b1.frames(), 1)

	f.router.Dispatch(context.Background(), Event{
		Name:    "userNotification",
		Type:    domain.NotificationNewUser,
		Payload: map[string]any{"message": "new user"},
	})
	assert.Len(t, a1.frames(), 2)
	assert.Len(t, b1.frames(), 1)
}
