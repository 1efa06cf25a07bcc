package gateway

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/breachops/ghostnet/go/internal/game"
)

// Handler upgrades HTTP requests into role-tagged WebSocket connections.
// The endpoint a client hits is its role assignment: /ws/operator or
// /ws/agent.
type Handler struct {
	registry   *Registry
	dispatcher Dispatcher
	upgrader   websocket.Upgrader
	config     ConnectionConfig
}

func NewHandler(registry *Registry, dispatcher Dispatcher, cfg ConnectionConfig) *Handler {
	return &Handler{
		registry:   registry,
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     cfg.CheckOrigin,
		},
		config: cfg,
	}
}

// RegisterRoutes registers the two role endpoints on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/operator", h.handleRole(game.RoleOperator))
	mux.HandleFunc("/ws/agent", h.handleRole(game.RoleAgent))
	log.Info().Msg("gateway routes registered")
}

func (h *Handler) handleRole(role game.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error().Err(err).Str("role", string(role)).Msg("failed to upgrade WebSocket connection")
			return
		}

		conn := newConnection(ws, role, h.config, h.registry, h.dispatcher)
		h.registry.Register(conn)
		conn.start()
		h.dispatcher.Connected(role)

		log.Info().
			Str("connection_id", conn.ID.String()).
			Str("role", string(role)).
			Str("remote_addr", r.RemoteAddr).
			Msg("WebSocket connection established")
	}
}
