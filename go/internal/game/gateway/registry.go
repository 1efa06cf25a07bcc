package gateway

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/breachops/ghostnet/go/internal/game"
)

// Registry tracks at most one live connection per role. A fresh
// connection for a role supersedes the prior one (last-writer-wins); the
// evicted transport is closed asynchronously so registration never blocks
// on network I/O.
type Registry struct {
	mu    sync.RWMutex
	slots map[game.Role]*Connection
}

func NewRegistry() *Registry {
	return &Registry{slots: make(map[game.Role]*Connection, 2)}
}

// Register stores conn as the occupant of its role and returns the
// evicted prior occupant, if any.
func (r *Registry) Register(conn *Connection) *Connection {
	r.mu.Lock()
	evicted := r.slots[conn.Role]
	r.slots[conn.Role] = conn
	r.mu.Unlock()

	if evicted != nil {
		log.Info().
			Str("role", string(conn.Role)).
			Str("evicted_connection_id", evicted.ID.String()).
			Str("connection_id", conn.ID.String()).
			Msg("role slot taken over, evicting prior connection")
		go evicted.Close()
	}

	return evicted
}

// Unregister clears the slot if conn is still the occupant. Idempotent:
// unregistering an already-replaced connection is a no-op and returns
// false.
func (r *Registry) Unregister(conn *Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slots[conn.Role] != conn {
		return false
	}
	delete(r.slots, conn.Role)
	return true
}

// Get returns the current occupant of a role, or false when the role is
// offline.
func (r *Registry) Get(role game.Role) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.slots[role]
	return conn, ok
}
