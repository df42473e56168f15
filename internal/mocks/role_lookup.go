package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub/internal/domain"
)

// MockRoleLookup answers role lookups from a fixed table and counts calls.
// It is safe for concurrent use.
type MockRoleLookup struct {
	mu    sync.Mutex
	roles map[uuid.UUID]domain.Roles
	calls int

	// Err, when set, is returned by every lookup.
	Err error
}

// NewMockRoleLookup creates an empty MockRoleLookup.
func NewMockRoleLookup() *MockRoleLookup {
	return &MockRoleLookup{roles: make(map[uuid.UUID]domain.Roles)}
}

// Set assigns roles to userID.
func (m *MockRoleLookup) Set(userID uuid.UUID, roles ...domain.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[userID] = domain.Roles(roles)
}

func (m *MockRoleLookup) LookupRoles(_ context.Context, userID uuid.UUID) (domain.Roles, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.roles[userID], nil
}

// Calls returns how many lookups were made.
func (m *MockRoleLookup) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
