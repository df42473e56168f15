package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub/internal/domain"
	"github.com/phrazzld/taskhub/internal/service/auth"
)

type sentFrame struct {
	Event string
	Data  any
}

// fakeConn records what is sent to it. A non-nil err makes every Send fail.
type fakeConn struct {
	id  string
	err error

	mu   sync.Mutex
	sent []sentFrame
}

func newFakeConn() *fakeConn {
	return &fakeConn{id: uuid.NewString()}
}

func deadConn() *fakeConn {
	c := newFakeConn()
	c.err = ErrConnectionClosed
	return c
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(event string, data any) error {
	if c.err != nil {
		return c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentFrame{Event: event, Data: data})
	return nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) frames() []sentFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]sentFrame, len(c.sent))
	copy(out, c.sent)
	return out
}

// stubVerifier accepts the tokens it has been given.
type stubVerifier struct {
	mu     sync.RWMutex
	tokens map[string]uuid.UUID
}

func newStubVerifier() *stubVerifier {
	return &stubVerifier{tokens: make(map[string]uuid.UUID)}
}

func (v *stubVerifier) add(token string, id uuid.UUID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tokens[token] = id
}

func (v *stubVerifier) ValidateToken(_ context.Context, token string) (*auth.Claims, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	id, ok := v.tokens[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{UserID: id, TokenType: "access"}, nil
}

// stubRoles serves roles from memory. Failing users make the lookup error.
type stubRoles struct {
	mu      sync.RWMutex
	roles   map[uuid.UUID]domain.Roles
	failing map[uuid.UUID]bool
}

func newStubRoles() *stubRoles {
	return &stubRoles{
		roles:   make(map[uuid.UUID]domain.Roles),
		failing: make(map[uuid.UUID]bool),
	}
}

func (s *stubRoles) set(id uuid.UUID, roles ...domain.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[id] = roles
}

func (s *stubRoles) fail(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[id] = true
}

func (s *stubRoles) LookupRoles(_ context.Context, id uuid.UUID) (domain.Roles, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failing[id] {
		return nil, errors.New("database unavailable")
	}
	return s.roles[id], nil
}
