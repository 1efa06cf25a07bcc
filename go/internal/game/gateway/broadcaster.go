package gateway

import (
	"github.com/rs/zerolog/log"

	"github.com/breachops/ghostnet/go/internal/game"
)

// Broadcaster formats coordinator output into the wire protocol and fans
// it out over the registry. It implements game.Sink. Delivery is
// best-effort per connection: a broken or saturated connection drops the
// frame without blocking delivery to the other role.
type Broadcaster struct {
	registry *Registry
}

func NewBroadcaster(registry *Registry) *Broadcaster {
	return &Broadcaster{registry: registry}
}

// State broadcasts a full snapshot to both roles, marshaling once.
func (b *Broadcaster) State(snap game.Snapshot) {
	payload, err := marshalState(snap)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal state broadcast")
		return
	}
	b.sendTo(game.RoleOperator, payload)
	b.sendTo(game.RoleAgent, payload)
}

// StateTo sends a full snapshot to one role.
func (b *Broadcaster) StateTo(role game.Role, snap game.Snapshot) {
	payload, err := marshalState(snap)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal state message")
		return
	}
	b.sendTo(role, payload)
}

// Timer broadcasts the lightweight tick variant to both roles.
func (b *Broadcaster) Timer(seconds int) {
	payload, err := marshalTimer(seconds)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal timer broadcast")
		return
	}
	b.sendTo(game.RoleOperator, payload)
	b.sendTo(game.RoleAgent, payload)
}

// Event broadcasts a point event to both roles.
func (b *Broadcaster) Event(kind game.EventKind, text string) {
	payload, err := marshalEvent(kind, text)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event broadcast")
		return
	}
	b.sendTo(game.RoleOperator, payload)
	b.sendTo(game.RoleAgent, payload)
}

// EventTo sends a point event to one role.
func (b *Broadcaster) EventTo(role game.Role, kind game.EventKind, text string) {
	payload, err := marshalEvent(kind, text)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event message")
		return
	}
	b.sendTo(role, payload)
}

func (b *Broadcaster) sendTo(role game.Role, payload []byte) {
	conn, ok := b.registry.Get(role)
	if !ok {
		return
	}
	if !conn.Enqueue(payload) {
		log.Warn().
			Str("connection_id", conn.ID.String()).
			Str("role", string(role)).
			Msg("dropping frame for unavailable connection")
	}
}
