package game

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ResetNotice is the stable sentinel included in the info broadcast on
// every restart. Consumers watch for this exact substring to clear any
// locally buffered transcript; it is part of the protocol contract and
// must not change between releases.
const ResetNotice = ">>> SYSTEM REBOOT"

// Client message types accepted by the coordinator.
const (
	InboundTypeCommand = "command"
	InboundTypeChat    = "chat"
	InboundTypeRestart = "restart"
)

// EventKind discriminates the one-shot point events of the wire protocol.
type EventKind string

const (
	EventPuzzle  EventKind = "puzzle"
	EventError   EventKind = "error"
	EventSuccess EventKind = "success"
	EventInfo    EventKind = "info"
)

// Sink receives coordinator output for delivery to the connected roles.
// Implementations must be best-effort and never block the coordinator on
// network I/O.
type Sink interface {
	// State broadcasts a full snapshot to both roles.
	State(snap Snapshot)
	// StateTo sends a full snapshot to one role.
	StateTo(role Role, snap Snapshot)
	// Timer broadcasts the lightweight tick variant to both roles.
	Timer(seconds int)
	// Event broadcasts a point event to both roles.
	Event(kind EventKind, text string)
	// EventTo sends a point event to one role.
	EventTo(role Role, kind EventKind, text string)
}

// PuzzleEngine supplies challenges and verdicts for ladder nodes. Calls
// are made only from the coordinator goroutine.
type PuzzleEngine interface {
	// Challenge returns the prompt shown to the operator and the intel
	// shown to the field agent. Idempotent within a node until Reset.
	Challenge(node Node) (prompt, intel string)
	// Validate returns the verdict for a submitted command. Pure: no side
	// effects beyond the verdict.
	Validate(node Node, input string) bool
	// Reset discards per-node challenge selections after a restart.
	Reset()
}

// Inbound is a decoded client message tagged with the role that sent it.
type Inbound struct {
	Role    Role
	Type    string
	Message string
}

type inboundEvent struct{ msg Inbound }
type connectEvent struct{ role Role }
type disconnectEvent struct{ role Role }

const mailboxSize = 256

// Coordinator is the single actor with write access to the session state.
// Connection handlers and the countdown ticker communicate with it only
// by sending events into its mailbox; the Run loop applies them one at a
// time, so no two transitions ever interleave.
type Coordinator struct {
	sessionID uuid.UUID
	state     *SessionState
	engine    PuzzleEngine
	sink      Sink
	clock     clockwork.Clock

	mailbox chan any
	ticker  clockwork.Ticker

	// prompt of the challenge currently on the wire, replayed to a
	// reconnecting operator
	prompt string
}

// NewCoordinator wires a session around the given ladder and rules. In
// production pass clockwork.NewRealClock(); tests inject a fake clock.
func NewCoordinator(ladder []Node, rules Rules, engine PuzzleEngine, sink Sink, clock clockwork.Clock) *Coordinator {
	return &Coordinator{
		sessionID: uuid.New(),
		state:     NewSessionState(ladder, rules),
		engine:    engine,
		sink:      sink,
		clock:     clock,
		mailbox:   make(chan any, mailboxSize),
	}
}

// SessionID identifies this session in logs and keeps the API ready for
// multi-session routing.
func (c *Coordinator) SessionID() uuid.UUID {
	return c.sessionID
}

// Receive hands a decoded client message to the coordinator. Messages
// from a single connection arrive in send order because each connection's
// read pump calls this sequentially.
func (c *Coordinator) Receive(msg Inbound) {
	c.post(inboundEvent{msg: msg})
}

// Connected notifies the coordinator that a role came online.
func (c *Coordinator) Connected(role Role) {
	c.post(connectEvent{role: role})
}

// Disconnected notifies the coordinator that a role went offline.
func (c *Coordinator) Disconnected(role Role) {
	c.post(disconnectEvent{role: role})
}

func (c *Coordinator) post(ev any) {
	select {
	case c.mailbox <- ev:
	default:
		log.Warn().
			Str("session_id", c.sessionID.String()).
			Str("event", fmt.Sprintf("%T", ev)).
			Msg("coordinator mailbox full, dropping event")
	}
}

// Run executes the control loop until ctx is cancelled. It must be
// running before connections are accepted.
func (c *Coordinator) Run(ctx context.Context) error {
	log.Info().
		Str("session_id", c.sessionID.String()).
		Int("nodes", len(c.state.ladder)).
		Int("time_budget_sec", c.state.rules.TimeBudgetSec).
		Msg("session coordinator started")

	c.refreshChallenge()
	c.startTicker()
	defer c.stopTicker()

	for {
		// The ticker is nil while the session is terminal; a nil channel
		// blocks forever, which is exactly the suspension we want.
		var tickCh <-chan time.Time
		if c.ticker != nil {
			tickCh = c.ticker.Chan()
		}

		select {
		case <-ctx.Done():
			log.Info().Str("session_id", c.sessionID.String()).Msg("session coordinator shutting down")
			return nil
		case <-tickCh:
			c.handleTick()
		case ev := <-c.mailbox:
			switch event := ev.(type) {
			case inboundEvent:
				c.handleInbound(event.msg)
			case connectEvent:
				c.handleConnect(event.role)
			case disconnectEvent:
				c.handleDisconnect(event.role)
			default:
				log.Error().
					Str("session_id", c.sessionID.String()).
					Str("event", fmt.Sprintf("%T", event)).
					Msg("unhandled coordinator event type")
			}
		}
	}
}

func (c *Coordinator) startTicker() {
	c.ticker = c.clock.NewTicker(time.Second)
}

func (c *Coordinator) stopTicker() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
}

// refreshChallenge pulls the active node's challenge from the engine and
// records prompt and intel.
func (c *Coordinator) refreshChallenge() {
	node, ok := c.state.CurrentNode()
	if !ok {
		return
	}
	prompt, intel := c.engine.Challenge(node)
	c.prompt = prompt
	c.state.SetIntel(intel)
}

func (c *Coordinator) handleTick() {
	res := c.state.OnTick()
	if !res.Applied {
		return
	}

	c.sink.Timer(c.state.TimeLeft())
	c.sink.State(c.state.Snapshot())

	if res.Lost {
		log.Info().Str("session_id", c.sessionID.String()).Msg("time budget exhausted, session lost")
		c.sink.Event(EventError, "UPLINK TIMEOUT: trace completed before extraction. Operation failed.")
		c.stopTicker()
	}
}

func (c *Coordinator) handleInbound(msg Inbound) {
	switch msg.Type {
	case InboundTypeRestart:
		c.restart(msg.Role)
	case InboundTypeCommand:
		c.handleCommand(msg)
	case InboundTypeChat:
		c.handleChat(msg)
	default:
		// Unknown types are ignored per the protocol contract.
		log.Warn().
			Str("session_id", c.sessionID.String()).
			Str("role", string(msg.Role)).
			Str("type", msg.Type).
			Msg("ignoring message with unknown type")
	}
}

func (c *Coordinator) handleCommand(msg Inbound) {
	if msg.Role != RoleOperator {
		log.Warn().
			Str("session_id", c.sessionID.String()).
			Str("role", string(msg.Role)).
			Msg("ignoring command from non-operator role")
		return
	}

	if c.state.GameOver() {
		c.sink.EventTo(msg.Role, EventInfo, "Session terminated. Send restart to run a new operation.")
		return
	}

	node, ok := c.state.CurrentNode()
	if !ok {
		return
	}

	if c.engine.Validate(node, msg.Message) {
		c.applyCorrect(node)
	} else {
		c.applyIncorrect()
	}
}

func (c *Coordinator) applyCorrect(node Node) {
	res := c.state.OnCorrect()
	if !res.Applied {
		return
	}

	c.sink.EventTo(RoleOperator, EventSuccess, fmt.Sprintf("ACCESS GRANTED: security layer of %s bypassed.", node.Name))

	if res.NodeCleared {
		log.Info().
			Str("session_id", c.sessionID.String()).
			Str("node", res.ClearedNode.Name).
			Msg("node compromised")
		c.sink.Event(EventInfo, fmt.Sprintf("Node %s fully compromised.", res.ClearedNode.Name))
	}

	switch {
	case res.Won:
		log.Info().Str("session_id", c.sessionID.String()).Msg("ladder exhausted, session won")
		c.sink.Event(EventSuccess, "SYSTEM BREACHED: every node compromised. Extraction complete.")
		c.stopTicker()
	case res.NodeCleared:
		c.refreshChallenge()
		c.sink.EventTo(RoleOperator, EventPuzzle, c.prompt)
	}

	c.sink.State(c.state.Snapshot())
}

func (c *Coordinator) applyIncorrect() {
	res := c.state.OnIncorrect()
	if !res.Applied {
		return
	}

	c.sink.EventTo(RoleOperator, EventError, "ACCESS DENIED: countermeasure triggered, integrity compromised.")

	if res.Lost {
		log.Info().Str("session_id", c.sessionID.String()).Msg("lives exhausted, session lost")
		c.sink.Event(EventError, "CONNECTION TRACED: all integrity lost. Operation failed.")
		c.stopTicker()
	}

	c.sink.State(c.state.Snapshot())
}

func (c *Coordinator) handleChat(msg Inbound) {
	text := strings.TrimSpace(msg.Message)
	if text == "" {
		return
	}

	// Free text never drives state transitions; it is relayed to the
	// partner like the comms channel it is.
	c.sink.EventTo(msg.Role.Partner(), EventInfo, fmt.Sprintf("[%s] %s", msg.Role, text))
	c.sink.EventTo(msg.Role, EventInfo, "Transmission relayed.")
}

func (c *Coordinator) restart(by Role) {
	log.Info().
		Str("session_id", c.sessionID.String()).
		Str("requested_by", string(by)).
		Msg("session restart")

	c.state.Reset()
	c.engine.Reset()
	c.refreshChallenge()

	c.stopTicker()
	c.startTicker()

	c.sink.Event(EventInfo, ResetNotice+": new operation initialized.")
	c.sink.State(c.state.Snapshot())
	c.sink.EventTo(RoleOperator, EventPuzzle, c.prompt)
}

func (c *Coordinator) handleConnect(role Role) {
	log.Info().
		Str("session_id", c.sessionID.String()).
		Str("role", string(role)).
		Msg("role connected")

	c.sink.StateTo(role, c.state.Snapshot())
	if role == RoleOperator && !c.state.GameOver() {
		c.sink.EventTo(RoleOperator, EventPuzzle, c.prompt)
	}
	c.sink.EventTo(role.Partner(), EventInfo, fmt.Sprintf("Partner online: %s joined the uplink.", role))
}

func (c *Coordinator) handleDisconnect(role Role) {
	log.Info().
		Str("session_id", c.sessionID.String()).
		Str("role", string(role)).
		Msg("role disconnected")

	c.sink.EventTo(role.Partner(), EventInfo, fmt.Sprintf("Partner offline: %s dropped from the uplink.", role))
}
