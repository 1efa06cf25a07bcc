package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRules() Rules {
	return Rules{
		TimeBudgetSec: 300,
		MaxLives:      3,
		CorrectPoints: 10,
		NodeBonus:     50,
	}
}

func testLadder() []Node {
	return []Node{
		{ID: 1, Name: "FIREWALL_PERIMETER", RequiredHacks: 2},
		{ID: 2, Name: "AUTH_GATEWAY", RequiredHacks: 1},
	}
}

func TestSessionState_InitialState(t *testing.T) {
	s := NewSessionState(testLadder(), testRules())
	snap := s.Snapshot()

	assert.Equal(t, 0, snap.CurrentNode)
	assert.Equal(t, 0, snap.NodeProgress)
	assert.Equal(t, 0, snap.Score)
	assert.Equal(t, 3, snap.Lives)
	assert.Equal(t, 300, snap.TimeLeft)
	assert.False(t, snap.GameOver)
	assert.Equal(t, StatusInProgress, s.Status())
}

func TestSessionState_NodeAdvancesExactlyOnce(t *testing.T) {
	s := NewSessionState(testLadder(), testRules())

	res := s.OnCorrect()
	require.True(t, res.Applied)
	assert.False(t, res.NodeCleared)
	assert.Equal(t, 1, s.Snapshot().NodeProgress)

	res = s.OnCorrect()
	require.True(t, res.NodeCleared)
	assert.Equal(t, "FIREWALL_PERIMETER", res.ClearedNode.Name)
	assert.False(t, res.Won)

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.CurrentNode)
	assert.Equal(t, 0, snap.NodeProgress, "progress resets on advance")
}

func TestSessionState_LadderExhaustionWins(t *testing.T) {
	// ladder = [{required_hacks:2},{required_hacks:1}]: two correct
	// actions clear node 0, one more clears node 1 and wins.
	s := NewSessionState(testLadder(), testRules())

	s.OnCorrect()
	s.OnCorrect()
	res := s.OnCorrect()

	require.True(t, res.NodeCleared)
	assert.True(t, res.Won)
	assert.Equal(t, StatusWon, s.Status())

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.CurrentNode)
	assert.True(t, snap.GameOver)

	_, ok := s.CurrentNode()
	assert.False(t, ok, "no active node once the ladder is exhausted")
}

func TestSessionState_ScoreAwards(t *testing.T) {
	s := NewSessionState(testLadder(), testRules())

	s.OnCorrect()
	assert.Equal(t, 10, s.Snapshot().Score)

	s.OnCorrect() // clears node 0: correct points plus node bonus
	assert.Equal(t, 70, s.Snapshot().Score)
}

func TestSessionState_LivesExhaustionLoses(t *testing.T) {
	s := NewSessionState(testLadder(), testRules())

	s.OnCorrect() // some progress should not matter

	s.OnIncorrect()
	s.OnIncorrect()
	res := s.OnIncorrect()

	require.True(t, res.Applied)
	assert.True(t, res.Lost)
	assert.Equal(t, StatusLost, s.Status())
	assert.Equal(t, 0, s.Snapshot().Lives)
	assert.True(t, s.Snapshot().GameOver)
}

func TestSessionState_LivesNeverNegativeAndTerminalFreezes(t *testing.T) {
	s := NewSessionState(testLadder(), testRules())

	for i := 0; i < 5; i++ {
		s.OnIncorrect()
	}
	assert.Equal(t, 0, s.Snapshot().Lives)

	// Every transition is a no-op in a terminal state until restart.
	before := s.Snapshot()
	assert.False(t, s.OnCorrect().Applied)
	assert.False(t, s.OnIncorrect().Applied)
	assert.False(t, s.OnTick().Applied)
	assert.Equal(t, before, s.Snapshot())
}

func TestSessionState_TickCountdownAndExpiry(t *testing.T) {
	rules := testRules()
	rules.TimeBudgetSec = 2
	s := NewSessionState(testLadder(), rules)

	res := s.OnTick()
	require.True(t, res.Applied)
	assert.False(t, res.Lost)
	assert.Equal(t, 1, s.Snapshot().TimeLeft)

	res = s.OnTick()
	assert.True(t, res.Lost, "expiry loses even with lives and nodes remaining")
	assert.Equal(t, 0, s.Snapshot().TimeLeft)
	assert.Equal(t, StatusLost, s.Status())

	// floored at zero, and ticking has stopped having effects
	assert.False(t, s.OnTick().Applied)
	assert.Equal(t, 0, s.Snapshot().TimeLeft)
}

func TestSessionState_ResetFromAnyState(t *testing.T) {
	initial := NewSessionState(testLadder(), testRules()).Snapshot()

	tests := []struct {
		name string
		prep func(s *SessionState)
	}{
		{
			name: "mid session",
			prep: func(s *SessionState) {
				s.OnCorrect()
				s.OnCorrect()
				s.OnIncorrect()
				s.OnIncorrect()
				s.OnTick()
			},
		},
		{
			name: "won",
			prep: func(s *SessionState) {
				s.OnCorrect()
				s.OnCorrect()
				s.OnCorrect()
			},
		},
		{
			name: "lost",
			prep: func(s *SessionState) {
				s.OnIncorrect()
				s.OnIncorrect()
				s.OnIncorrect()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSessionState(testLadder(), testRules())
			tt.prep(s)

			s.Reset()

			assert.Equal(t, initial, s.Snapshot())
			assert.Equal(t, StatusInProgress, s.Status())
		})
	}
}

func TestSessionState_ScoreMonotonicBetweenRestarts(t *testing.T) {
	s := NewSessionState(testLadder(), testRules())

	last := 0
	moves := []func() Result{s.OnCorrect, s.OnIncorrect, s.OnTick, s.OnCorrect, s.OnIncorrect}
	for _, move := range moves {
		move()
		score := s.Snapshot().Score
		assert.GreaterOrEqual(t, score, last)
		last = score
	}
}
