package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breachops/ghostnet/go/internal/game"
)

// serverSideConn upgrades a loopback WebSocket and returns the server end.
func serverSideConn(t *testing.T) *websocket.Conn {
	t.Helper()

	accepted := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		accepted <- ws
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	ws := <-accepted
	t.Cleanup(func() { ws.Close() })
	return ws
}

func newRegistryConn(t *testing.T, registry *Registry, role game.Role) *Connection {
	t.Helper()
	return newConnection(serverSideConn(t), role, DefaultConnectionConfig(), registry, nil)
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	registry := NewRegistry()
	conn := newRegistryConn(t, registry, game.RoleOperator)

	assert.Nil(t, registry.Register(conn))

	got, ok := registry.Get(game.RoleOperator)
	require.True(t, ok)
	assert.Same(t, conn, got)

	_, ok = registry.Get(game.RoleAgent)
	assert.False(t, ok)
}

func TestRegistry_LastWriterWins(t *testing.T) {
	registry := NewRegistry()
	first := newRegistryConn(t, registry, game.RoleOperator)
	second := newRegistryConn(t, registry, game.RoleOperator)

	require.Nil(t, registry.Register(first))
	evicted := registry.Register(second)

	assert.Same(t, first, evicted)
	got, ok := registry.Get(game.RoleOperator)
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestRegistry_RolesAreIndependent(t *testing.T) {
	registry := NewRegistry()
	operator := newRegistryConn(t, registry, game.RoleOperator)
	agent := newRegistryConn(t, registry, game.RoleAgent)

	assert.Nil(t, registry.Register(operator))
	assert.Nil(t, registry.Register(agent), "different roles never evict each other")
}

func TestRegistry_UnregisterIsIdempotent(t *testing.T) {
	registry := NewRegistry()
	old := newRegistryConn(t, registry, game.RoleOperator)
	fresh := newRegistryConn(t, registry, game.RoleOperator)

	registry.Register(old)
	registry.Register(fresh)

	// unregistering the replaced connection must not clear the fresh one
	assert.False(t, registry.Unregister(old))
	got, ok := registry.Get(game.RoleOperator)
	require.True(t, ok)
	assert.Same(t, fresh, got)

	assert.True(t, registry.Unregister(fresh))
	_, ok = registry.Get(game.RoleOperator)
	assert.False(t, ok)

	assert.False(t, registry.Unregister(fresh))
}
