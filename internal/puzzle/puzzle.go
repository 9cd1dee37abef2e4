// Package puzzle implements the minigame subsystem: a shared lifecycle
// contract, five concrete puzzle state machines, and the factory that owns
// the single live instance and translates outcomes into game state.
package puzzle

import (
	"time"

	"github.com/lanternworks/storyloom/internal/events"
)

// State is a puzzle instance's lifecycle state.
type State string

const (
	StateReady     State = "ready"
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Failure reasons on the two terminal-failure paths.
const (
	ReasonAttemptsExhausted = "Maximum attempts reached"
	ReasonTimeExpired       = "Time's up!"
)

// Outcome reports a terminal puzzle result to the factory callbacks.
type Outcome struct {
	PuzzleID      string
	Score         int
	Attempts      int
	HintsUsed     int
	TimeRemaining time.Duration
	Rewards       []Reward
	Reason        string // set on failure
}

// Puzzle is the contract every variant conforms to. Lifecycle methods are
// shared by the embedded tracker; Solution, ValidateSolution, and
// HandleInput are variant-specific.
type Puzzle interface {
	Definition() *Definition
	State() State
	Attempts() int
	HintsUsed() int
	TimeRemaining() time.Duration

	Start(now time.Time)
	Submit()
	Reset(now time.Time)
	UseHint()
	Tick(now time.Time)
	Destroy()

	Solution() interface{}
	ValidateSolution() bool
	HandleInput(action string, input map[string]interface{})
}

// mechanics is the variant-specific half of the state machine the shared
// tracker calls back into.
type mechanics interface {
	ValidateSolution() bool
	// begin (re)initializes working state when the puzzle starts or resets.
	begin(now time.Time)
	// tick advances variant-internal timing (sequence show/input phases).
	tick(now time.Time)
}

// tracker is the shared lifecycle state machine embedded by every variant:
// attempts, hints, countdown, scoring, terminal transitions, and signal
// emission. Variants reach terminal states only through complete and fail.
type tracker struct {
	def *Definition
	bus *events.Bus
	m   mechanics

	state        State
	attempts     int
	hintsUsed    int
	displayScore int

	// now is the last observed wall-clock sample; countdowns and phase
	// deadlines are judged against it, so expiry lands on the tick after
	// the deadline, never mid-input.
	now       time.Time
	deadline  time.Time // zero when untimed
	remaining time.Duration

	onComplete func(Outcome)
	onFail     func(Outcome)
	destroyed  bool
}

func newTracker(def *Definition, bus *events.Bus, m mechanics) tracker {
	return tracker{
		def:   def,
		bus:   bus,
		m:     m,
		state: StateReady,
	}
}

func (t *tracker) Definition() *Definition { return t.def }

func (t *tracker) State() State { return t.state }

func (t *tracker) Attempts() int { return t.attempts }

func (t *tracker) HintsUsed() int { return t.hintsUsed }

// TimeRemaining returns the countdown as of the last tick. Zero when the
// puzzle is untimed.
func (t *tracker) TimeRemaining() time.Duration {
	if t.remaining < 0 {
		return 0
	}
	return t.remaining
}

// Start transitions ready -> active, resetting counters and arming the
// countdown when a time limit is configured.
func (t *tracker) Start(now time.Time) {
	if t.state != StateReady {
		return
	}
	t.beginRun(now)
	t.emit("info", "puzzle.started", "", map[string]interface{}{
		"puzzle_id":    t.def.ID,
		"type":         t.def.Type,
		"title":        t.def.Title,
		"difficulty":   t.def.Difficulty,
		"max_attempts": t.def.MaxAttempts,
		"time_limit":   t.def.TimeLimit,
	})
}

// Reset returns a started puzzle to a fresh active round: attempts, hints,
// countdown, and working state all cleared, terminal state undone.
func (t *tracker) Reset(now time.Time) {
	if t.state == StateReady {
		return
	}
	t.beginRun(now)
	t.emit("info", "puzzle.reset", "", map[string]interface{}{
		"puzzle_id": t.def.ID,
	})
}

func (t *tracker) beginRun(now time.Time) {
	t.state = StateActive
	t.attempts = 0
	t.hintsUsed = 0
	t.displayScore = 100
	t.now = now
	if t.def.TimeLimit > 0 {
		limit := time.Duration(t.def.TimeLimit) * time.Millisecond
		t.deadline = now.Add(limit)
		t.remaining = limit
	} else {
		t.deadline = time.Time{}
		t.remaining = 0
	}
	t.m.begin(now)
}

// Submit runs the shared validation path: attempt accounting, terminal
// escalation at the attempt cap, non-terminal negative feedback otherwise.
// An incomplete working state is just an invalid solution here; there is
// no separate "not ready" error.
func (t *tracker) Submit() {
	if t.state != StateActive {
		return
	}
	t.attempts++

	if t.m.ValidateSolution() {
		t.complete()
		return
	}

	if t.def.MaxAttempts > 0 && t.attempts >= t.def.MaxAttempts {
		t.fail(ReasonAttemptsExhausted)
		return
	}

	t.emit("info", "puzzle.update", "incorrect solution", map[string]interface{}{
		"puzzle_id": t.def.ID,
		"correct":   false,
		"attempts":  t.attempts,
	})
}

// UseHint reveals the next unused hint while active. Each use costs 10
// points off the running display score; the final score formula applies
// its own per-hint deduction.
func (t *tracker) UseHint() {
	if t.state != StateActive {
		return
	}
	if t.hintsUsed >= t.def.HintBudget() {
		t.emit("info", "puzzle.update", "no hints available", map[string]interface{}{
			"puzzle_id":  t.def.ID,
			"hints_used": t.hintsUsed,
		})
		return
	}

	hint := t.def.Hints[t.hintsUsed]
	t.hintsUsed++
	t.displayScore -= 10
	if t.displayScore < 0 {
		t.displayScore = 0
	}
	t.emit("info", "puzzle.hint", "", map[string]interface{}{
		"puzzle_id":     t.def.ID,
		"hint":          hint,
		"hints_used":    t.hintsUsed,
		"display_score": t.displayScore,
	})
}

// Tick samples the countdown and advances variant timing. Expiry is
// detected here, at the first sample past the deadline.
func (t *tracker) Tick(now time.Time) {
	if t.state != StateActive {
		return
	}
	t.now = now
	if !t.deadline.IsZero() {
		t.remaining = t.deadline.Sub(now)
		if t.remaining <= 0 {
			t.remaining = 0
			t.fail(ReasonTimeExpired)
			return
		}
	}
	t.m.tick(now)
}

// Destroy disarms the instance: no further transitions, signals, or
// callbacks fire. The factory calls this when a puzzle is abandoned in
// place for a replacement.
func (t *tracker) Destroy() {
	t.destroyed = true
	t.onComplete = nil
	t.onFail = nil
}

func (t *tracker) complete() {
	if t.destroyed || t.state != StateActive {
		return
	}
	t.state = StateCompleted

	var limit time.Duration
	if t.def.TimeLimit > 0 {
		limit = time.Duration(t.def.TimeLimit) * time.Millisecond
	}
	score := finalScore(t.attempts, t.hintsUsed, t.TimeRemaining(), limit, t.def.Difficulty)

	out := Outcome{
		PuzzleID:      t.def.ID,
		Score:         score,
		Attempts:      t.attempts,
		HintsUsed:     t.hintsUsed,
		TimeRemaining: t.TimeRemaining(),
		Rewards:       t.def.Rewards,
	}
	t.emit("info", "puzzle.completed", "", map[string]interface{}{
		"puzzle_id":         t.def.ID,
		"score":             score,
		"attempts":          t.attempts,
		"hints_used":        t.hintsUsed,
		"time_remaining_ms": t.TimeRemaining().Milliseconds(),
		"rewards":           len(t.def.Rewards),
	})
	if t.onComplete != nil {
		t.onComplete(out)
	}
}

func (t *tracker) fail(reason string) {
	if t.destroyed || t.state != StateActive {
		return
	}
	t.state = StateFailed

	out := Outcome{
		PuzzleID:  t.def.ID,
		Attempts:  t.attempts,
		HintsUsed: t.hintsUsed,
		Reason:    reason,
	}
	t.emit("info", "puzzle.failed", reason, map[string]interface{}{
		"puzzle_id": t.def.ID,
		"reason":    reason,
		"attempts":  t.attempts,
	})
	if t.onFail != nil {
		t.onFail(out)
	}
}

// update emits a variant working-state change.
func (t *tracker) update(msg string, fields map[string]interface{}) {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["puzzle_id"] = t.def.ID
	t.emit("info", "puzzle.update", msg, fields)
}

func (t *tracker) emit(level, signal, msg string, fields map[string]interface{}) {
	if t.destroyed {
		return
	}
	t.bus.Emit(level, signal, msg, fields)
}
