package api

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub/internal/domain"
)

// fakeNotifications implements NotificationService with overridable functions.
type fakeNotifications struct {
	ListForUserFn func(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error)
	MarkReadFn    func(ctx context.Context, userID, notificationID uuid.UUID) (*domain.Notification, error)
	MarkAllReadFn func(ctx context.Context, userID uuid.UUID) (int64, error)
	UnreadCountFn func(ctx context.Context, userID uuid.UUID) (int, error)
}

func (f *fakeNotifications) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error) {
	if f.ListForUserFn != nil {
		return f.ListForUserFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeNotifications) MarkRead(
	ctx context.Context,
	userID, notificationID uuid.UUID,
) (*domain.Notification, error) {
	if f.MarkReadFn != nil {
		return f.MarkReadFn(ctx, userID, notificationID)
	}
	return nil, nil
}

func (f *fakeNotifications) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if f.MarkAllReadFn != nil {
		return f.MarkAllReadFn(ctx, userID)
	}
	return 0, nil
}

func (f *fakeNotifications) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	if f.UnreadCountFn != nil {
		return f.UnreadCountFn(ctx, userID)
	}
	return 0, nil
}

// recordingPusher records the users whose unread count was refreshed.
type recordingPusher struct {
	mu    sync.Mutex
	users []uuid.UUID
}

func (p *recordingPusher) RefreshUnreadCount(_ context.Context, userID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = append(p.users, userID)
}

func (p *recordingPusher) refreshed() []uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uuid.UUID(nil), p.users...)
}

type announcement struct {
	title, message string
}

// recordingAnnouncer records broadcast announcements.
type recordingAnnouncer struct {
	mu   sync.Mutex
	sent []announcement
}

func (a *recordingAnnouncer) Announce(_ context.Context, title, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = append(a.sent, announcement{title, message})
}

func (a *recordingAnnouncer) announcements() []announcement {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]announcement(nil), a.sent...)
}
