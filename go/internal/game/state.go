package game

// Status is the lifecycle state of a session.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
	StatusLost       Status = "lost"
)

// Rules are the tunable parameters of a session, fixed at creation.
type Rules struct {
	TimeBudgetSec int
	MaxLives      int
	CorrectPoints int
	NodeBonus     int
}

// SessionState is the single mutable aggregate of a game session. It is
// pure transition logic with no I/O; the Coordinator owns the only
// instance and serializes every mutation through its loop.
type SessionState struct {
	ladder []Node
	rules  Rules

	currentNode  int
	nodeProgress int
	score        int
	lives        int
	timeLeft     int
	intel        string
	status       Status
}

// Result describes what a transition did, so the caller can emit the
// matching point events and broadcasts.
type Result struct {
	Applied     bool
	NodeCleared bool
	ClearedNode Node
	Won         bool
	Lost        bool
}

// NewSessionState creates a session at the initial state: node zero, no
// progress, full lives, full time budget.
func NewSessionState(ladder []Node, rules Rules) *SessionState {
	s := &SessionState{ladder: ladder, rules: rules}
	s.Reset()
	return s
}

// Reset returns the session to the exact initial state from any prior
// state. It always succeeds and has no preconditions.
func (s *SessionState) Reset() {
	s.currentNode = 0
	s.nodeProgress = 0
	s.score = 0
	s.lives = s.rules.MaxLives
	s.timeLeft = s.rules.TimeBudgetSec
	s.intel = ""
	s.status = StatusInProgress
}

// OnCorrect applies one correct operator action: progress and score
// increase, and the ladder advances when the node's hack count is met.
// No-op outside InProgress.
func (s *SessionState) OnCorrect() Result {
	if s.status != StatusInProgress {
		return Result{}
	}

	res := Result{Applied: true}
	s.nodeProgress++
	s.score += s.rules.CorrectPoints

	node := s.ladder[s.currentNode]
	if s.nodeProgress >= node.RequiredHacks {
		s.score += s.rules.NodeBonus
		s.currentNode++
		s.nodeProgress = 0
		res.NodeCleared = true
		res.ClearedNode = node

		if s.currentNode == len(s.ladder) {
			s.status = StatusWon
			res.Won = true
		}
	}

	return res
}

// OnIncorrect applies one incorrect operator action: a life is lost,
// floored at zero, and the session is lost when none remain. No-op
// outside InProgress.
func (s *SessionState) OnIncorrect() Result {
	if s.status != StatusInProgress {
		return Result{}
	}

	res := Result{Applied: true}
	if s.lives > 0 {
		s.lives--
	}
	if s.lives == 0 {
		s.status = StatusLost
		res.Lost = true
	}

	return res
}

// OnTick applies one countdown second: timeLeft decreases, floored at
// zero, and the session is lost on expiry. No-op outside InProgress.
func (s *SessionState) OnTick() Result {
	if s.status != StatusInProgress {
		return Result{}
	}

	res := Result{Applied: true}
	if s.timeLeft > 0 {
		s.timeLeft--
	}
	if s.timeLeft == 0 {
		s.status = StatusLost
		res.Lost = true
	}

	return res
}

// Status returns the lifecycle state.
func (s *SessionState) Status() Status {
	return s.status
}

// GameOver reports whether the session reached a terminal state.
func (s *SessionState) GameOver() bool {
	return s.status != StatusInProgress
}

// CurrentNode returns the active ladder node, or false when the ladder is
// exhausted.
func (s *SessionState) CurrentNode() (Node, bool) {
	if s.currentNode >= len(s.ladder) {
		return Node{}, false
	}
	return s.ladder[s.currentNode], true
}

// SetIntel records the hint text for the active node, shown on the field
// agent's dashboard.
func (s *SessionState) SetIntel(intel string) {
	s.intel = intel
}

// TimeLeft returns the remaining time budget in seconds.
func (s *SessionState) TimeLeft() int {
	return s.timeLeft
}

// Snapshot is a consistent copy of the session state for broadcast. The
// ladder slice is shared: nodes are immutable after session creation.
type Snapshot struct {
	Ladder       []Node
	CurrentNode  int
	NodeProgress int
	Score        int
	Lives        int
	TimeLeft     int
	GameOver     bool
	Intel        string
}

// Snapshot captures the current state. Safe to hand off: every field is a
// value except the immutable ladder.
func (s *SessionState) Snapshot() Snapshot {
	return Snapshot{
		Ladder:       s.ladder,
		CurrentNode:  s.currentNode,
		NodeProgress: s.nodeProgress,
		Score:        s.score,
		Lives:        s.lives,
		TimeLeft:     s.timeLeft,
		GameOver:     s.GameOver(),
		Intel:        s.intel,
	}
}
