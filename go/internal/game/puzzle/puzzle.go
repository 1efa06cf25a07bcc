// Package puzzle implements the challenge generation and answer
// validation policy behind the coordinator's PuzzleEngine interface.
// Challenges are configured per ladder node; a node with several
// challenges gets one picked at node entry, stable until a restart.
package puzzle

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog/log"

	"github.com/breachops/ghostnet/go/internal/config"
	"github.com/breachops/ghostnet/go/internal/game"
)

type challenge struct {
	prompt  string
	intel   string
	answer  string
	program *vm.Program
}

// verdict evaluates the submitted input against the challenge policy:
// exact match when an answer is configured, otherwise the compiled rule.
func (ch *challenge) verdict(input string) bool {
	input = strings.TrimSpace(input)
	if ch.answer != "" {
		return strings.EqualFold(input, ch.answer)
	}

	out, err := expr.Run(ch.program, map[string]any{"input": input})
	if err != nil {
		log.Debug().Err(err).Str("prompt", ch.prompt).Msg("rule evaluation failed, treating as incorrect")
		return false
	}
	ok, _ := out.(bool)
	return ok
}

// Engine holds the compiled challenge sets. It is driven exclusively by
// the coordinator goroutine, so it needs no locking.
type Engine struct {
	rng    *rand.Rand
	byNode map[int][]*challenge
	active map[int]*challenge
}

// NewEngine compiles the configured challenges. Rules are compiled once
// with expr so a malformed expression fails at startup, not mid-game.
func NewEngine(challenges map[int][]config.ChallengeConfig) (*Engine, error) {
	byNode := make(map[int][]*challenge, len(challenges))
	for nodeID, list := range challenges {
		for i, cc := range list {
			ch := &challenge{
				prompt: cc.Prompt,
				intel:  cc.Intel,
				answer: strings.TrimSpace(cc.Answer),
			}
			if ch.answer == "" {
				program, err := expr.Compile(cc.Rule, expr.Env(map[string]any{"input": ""}), expr.AsBool())
				if err != nil {
					return nil, fmt.Errorf("node %d puzzle %d: failed to compile rule: %w", nodeID, i, err)
				}
				ch.program = program
			}
			byNode[nodeID] = append(byNode[nodeID], ch)
		}
	}

	return &Engine{
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		byNode: byNode,
		active: make(map[int]*challenge),
	}, nil
}

// Challenge returns the prompt and intel for the node's active challenge,
// selecting one on first entry. Idempotent within the node until Reset.
func (e *Engine) Challenge(node game.Node) (string, string) {
	ch := e.activeFor(node.ID)
	if ch == nil {
		return "", ""
	}
	return ch.prompt, ch.intel
}

// Validate returns the binary verdict for a submitted command against the
// node's active challenge. Unknown nodes are always incorrect.
func (e *Engine) Validate(node game.Node, input string) bool {
	ch := e.activeFor(node.ID)
	if ch == nil {
		return false
	}
	return ch.verdict(input)
}

// Reset discards the per-node selections so a restarted session re-rolls
// its challenges.
func (e *Engine) Reset() {
	e.active = make(map[int]*challenge)
}

func (e *Engine) activeFor(nodeID int) *challenge {
	if ch, ok := e.active[nodeID]; ok {
		return ch
	}
	list := e.byNode[nodeID]
	if len(list) == 0 {
		log.Error().Int("node_id", nodeID).Msg("no puzzles configured for node")
		return nil
	}
	ch := list[e.rng.Intn(len(list))]
	e.active[nodeID] = ch
	return ch
}
