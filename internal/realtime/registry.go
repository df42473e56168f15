package realtime

import (
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub/internal/domain"
)

// Registry tracks the live connections of every connected user and the roles
// resolved for that user at handshake time. A user has an entry exactly while
// they have at least one connection; the cached roles go with the entry.
//
// Lookups return snapshots so callers never hold the lock while sending.
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]map[string]Conn
	roles map[uuid.UUID]domain.Roles
}

// Stats summarizes the registry contents.
type Stats struct {
	Users       int `json:"users"`
	Connections int `json:"connections"`
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[uuid.UUID]map[string]Conn),
		roles: make(map[uuid.UUID]domain.Roles),
	}
}

// Register adds conn to userID's connection set. Registering the same
// connection twice has no effect.
func (r *Registry) Register(userID uuid.UUID, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		set = make(map[string]Conn)
		r.conns[userID] = set
	}
	set[conn.ID()] = conn
}

// RegisterWithRoles adds conn and replaces userID's cached roles under one
// lock, so a concurrent dispatch never sees the connection without its roles.
func (r *Registry) RegisterWithRoles(userID uuid.UUID, conn Conn, roles domain.Roles) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		set = make(map[string]Conn)
		r.conns[userID] = set
	}
	set[conn.ID()] = conn
	stored := make(domain.Roles, len(roles))
	copy(stored, roles)
	r.roles[userID] = stored
}

// Unregister removes conn from userID's connection set. When the set becomes
// empty the user's entry and cached roles are removed. Unknown users or
// connections are ignored.
func (r *Registry) Unregister(userID uuid.UUID, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		return
	}
	delete(set, conn.ID())
	if len(set) == 0 {
		delete(r.conns, userID)
		delete(r.roles, userID)
	}
}

// SetRoles replaces the cached roles of a connected user. It reports false and
// stores nothing when userID has no live connection.
func (r *Registry) SetRoles(userID uuid.UUID, roles domain.Roles) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[userID]; !ok {
		return false
	}
	stored := make(domain.Roles, len(roles))
	copy(stored, roles)
	r.roles[userID] = stored
	return true
}

// Roles returns a copy of the cached roles of userID.
func (r *Registry) Roles(userID uuid.UUID) (domain.Roles, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roles, ok := r.roles[userID]
	if !ok {
		return nil, false
	}
	out := make(domain.Roles, len(roles))
	copy(out, roles)
	return out, true
}

// ConnectionsFor returns a snapshot of userID's connections.
func (r *Registry) ConnectionsFor(userID uuid.UUID) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.conns[userID]
	out := make([]Conn, 0, len(set))
	for _, conn := range set {
		out = append(out, conn)
	}
	return out
}

// UsersWithRole returns the connected users whose cached roles include role.
// It scans every connected user.
func (r *Registry) UsersWithRole(role domain.Role) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []uuid.UUID
	for userID, roles := range r.roles {
		if roles.Has(role) {
			out = append(out, userID)
		}
	}
	return out
}

// AllConnections returns a snapshot of every live connection.
func (r *Registry) AllConnections() []Conn {
	return r.AllConnectionsExcept(uuid.Nil)
}

// AllConnectionsExcept returns a snapshot of every live connection not owned
// by exclude.
func (r *Registry) AllConnectionsExcept(exclude uuid.UUID) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Conn
	for userID, set := range r.conns {
		if userID == exclude {
			continue
		}
		for _, conn := range set {
			out = append(out, conn)
		}
	}
	return out
}

// IsConnected reports whether userID has at least one live connection.
func (r *Registry) IsConnected(userID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.conns[userID]
	return ok
}

// Stats returns the number of connected users and live connections.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{Users: len(r.conns)}
	for _, set := range r.conns {
		stats.Connections += len(set)
	}
	return stats
}
