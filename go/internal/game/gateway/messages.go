package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/breachops/ghostnet/go/internal/game"
)

// ClientMessage is the only shape clients send:
// { "type": "command" | "chat" | "restart", "message"?: string }.
type ClientMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// StateMessage is the full session snapshot, sent on every state change
// and on every tick.
type StateMessage struct {
	Type         string      `json:"type"`
	Map          []game.Node `json:"map"`
	CurrentNode  int         `json:"currentNode"`
	NodeProgress int         `json:"nodeProgress"`
	Score        int         `json:"score"`
	GameOver     bool        `json:"gameOver"`
	Lives        int         `json:"lives"`
	TimeLeft     int         `json:"timeLeft"`
	CurrentIntel string      `json:"currentIntel,omitempty"`
}

// TimerMessage is the lightweight tick-only variant. Both it and the
// snapshot's timeLeft are formatted from the same canonical tick event.
type TimerMessage struct {
	Type string `json:"type"`
	Time int    `json:"time"`
}

// EventMessage carries the one-shot point events: puzzle, error, success
// and info. An info message containing game.ResetNotice signals "session
// reset in progress" and instructs consumers to clear local transcripts.
type EventMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func marshalState(snap game.Snapshot) ([]byte, error) {
	msg := StateMessage{
		Type:         "state",
		Map:          snap.Ladder,
		CurrentNode:  snap.CurrentNode,
		NodeProgress: snap.NodeProgress,
		Score:        snap.Score,
		GameOver:     snap.GameOver,
		Lives:        snap.Lives,
		TimeLeft:     snap.TimeLeft,
		CurrentIntel: snap.Intel,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state message: %w", err)
	}
	return payload, nil
}

func marshalTimer(seconds int) ([]byte, error) {
	payload, err := json.Marshal(TimerMessage{Type: "timer", Time: seconds})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timer message: %w", err)
	}
	return payload, nil
}

func marshalEvent(kind game.EventKind, text string) ([]byte, error) {
	payload, err := json.Marshal(EventMessage{Type: string(kind), Message: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s message: %w", kind, err)
	}
	return payload, nil
}
