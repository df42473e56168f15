package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub/internal/domain"
	"github.com/phrazzld/taskhub/internal/realtime"
	"github.com/phrazzld/taskhub/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockNotificationStore mocks the store.NotificationStore interface
type MockNotificationStore struct {
	mock.Mock
}

func (m *MockNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

func (m *MockNotificationStore) GetForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Notification, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *MockNotificationStore) MarkRead(ctx context.Context, id, userID uuid.UUID) (*domain.Notification, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *MockNotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// WithTx records only whether a transaction was given. Keeping the live *sql.Tx
// in the call record races with database/sql's own goroutine.
func (m *MockNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore {
	m.Called(tx != nil)
	return m
}

// MockUserStore mocks the store.UserStore interface
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserStore) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockUserStore) WithTx(tx *sql.Tx) store.UserStore {
	m.Called(tx != nil)
	return m
}

// MockDispatcher records dispatched events
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, ev realtime.Event) realtime.DispatchResult {
	args := m.Called(ctx, ev)
	return args.Get(0).(realtime.DispatchResult)
}

// MockNotificationService mocks NotificationService for the event handler tests
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) NotifyNewTask(ctx context.Context, task *domain.Task, actorID uuid.UUID) {
	m.Called(ctx, task, actorID)
}

func (m *MockNotificationService) NotifyTaskUpdate(ctx context.Context, task *domain.Task, actorID uuid.UUID) {
	m.Called(ctx, task, actorID)
}

func (m *MockNotificationService) NotifyTaskDeletion(ctx context.Context, task *domain.Task, actorID uuid.UUID) {
	m.Called(ctx, task, actorID)
}

func (m *MockNotificationService) NotifyNewUser(ctx context.Context, user *domain.User) {
	m.Called(ctx, user)
}

func (m *MockNotificationService) Announce(ctx context.Context, title, message string) {
	m.Called(ctx, title, message)
}

func (m *MockNotificationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) (*domain.Notification, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationService) LookupRoles(ctx context.Context, userID uuid.UUID) (domain.Roles, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Roles), args.Error(1)
}

var _ NotificationService = (*MockNotificationService)(nil)
