package gateway

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/breachops/ghostnet/go/internal/game"
)

// ConnectionConfig holds the WebSocket transport settings.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns the default WebSocket settings.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// Dispatcher is what a connection needs from the session coordinator: a
// place to deliver decoded messages and lifecycle events.
type Dispatcher interface {
	Receive(msg game.Inbound)
	Connected(role game.Role)
	Disconnected(role game.Role)
}

// Connection is one live role-tagged WebSocket. Outbound messages flow
// through the buffered send channel drained by writePump; inbound frames
// are decoded by readPump and handed to the dispatcher in arrival order.
type Connection struct {
	ID   uuid.UUID
	Role game.Role

	conn       *websocket.Conn
	send       chan []byte
	config     ConnectionConfig
	registry   *Registry
	dispatcher Dispatcher

	closeOnce sync.Once
	done      chan struct{}
}

func newConnection(ws *websocket.Conn, role game.Role, cfg ConnectionConfig, registry *Registry, dispatcher Dispatcher) *Connection {
	return &Connection{
		ID:         uuid.New(),
		Role:       role,
		conn:       ws,
		send:       make(chan []byte, 64),
		config:     cfg,
		registry:   registry,
		dispatcher: dispatcher,
		done:       make(chan struct{}),
	}
}

// start launches the read and write pumps.
func (c *Connection) start() {
	go c.writePump()
	go c.readPump()
}

// Enqueue offers a marshaled frame for delivery. Best-effort: a closed or
// saturated connection drops the frame and reports false.
func (c *Connection) Enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Close shuts the transport down. Safe to call from any goroutine and
// more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID.String()).
					Str("role", string(c.Role)).
					Msg("failed to write message to WebSocket")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID.String()).
					Str("role", string(c.Role)).
					Msg("failed to send ping")
				return
			}
		}
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.Close()
		// Only the current occupant reports a disconnect; an evicted
		// connection's pump exiting must not mark the fresh one offline.
		if c.registry.Unregister(c) {
			c.dispatcher.Disconnected(c.Role)
		}
	}()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		return nil
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID.String()).
					Str("role", string(c.Role)).
					Msg("unexpected WebSocket close error")
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			// Malformed payloads are dropped whole; no transition, no reply.
			log.Warn().
				Err(err).
				Str("connection_id", c.ID.String()).
				Str("role", string(c.Role)).
				Msg("dropping malformed client payload")
			c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
			continue
		}

		c.dispatcher.Receive(game.Inbound{Role: c.Role, Type: msg.Type, Message: msg.Message})
		c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	}
}
