package puzzle

import (
	"math/rand"
	"time"

	"github.com/lanternworks/storyloom/internal/events"
)

// Sequence phases within a round.
const (
	phaseShow  = "show"
	phaseInput = "input"
)

// Sequence is the multi-round memory puzzle: the target sequence is shown,
// the player replays it, and each completed round appends one random step.
// A wrong input or an input-phase timeout replays the current round's
// show/input cycle; only the final round's submission goes through the
// shared attempt-counting path, so round replays never consume attempts.
//
// The round-replay loop is deliberately uncapped: a stuck player repeats
// the same round until the puzzle's own time limit, if any, expires.
type Sequence struct {
	tracker
	cfg *SequenceConfig
	rng *rand.Rand

	round         int
	target        []string
	input         []string
	phase         string
	showUntil     time.Time
	inputDeadline time.Time
}

func newSequence(def *Definition, bus *events.Bus, rng *rand.Rand) *Sequence {
	p := &Sequence{cfg: def.Sequence, rng: rng}
	if p.cfg == nil {
		p.cfg = &SequenceConfig{}
	}
	p.tracker = newTracker(def, bus, p)
	return p
}

func (p *Sequence) begin(now time.Time) {
	p.round = 1
	p.target = nil
	for i := 0; i < p.cfg.initialLength(); i++ {
		p.target = append(p.target, p.randomStep())
	}
	p.startShow(now)
}

func (p *Sequence) randomStep() string {
	if len(p.cfg.Symbols) == 0 {
		return "0"
	}
	return p.cfg.Symbols[p.rng.Intn(len(p.cfg.Symbols))]
}

func (p *Sequence) startShow(now time.Time) {
	p.phase = phaseShow
	p.input = nil
	step := time.Duration(p.cfg.StepMillis) * time.Millisecond
	if step <= 0 {
		step = 800 * time.Millisecond
	}
	p.showUntil = now.Add(step * time.Duration(len(p.target)))
	p.update("", map[string]interface{}{
		"phase":    phaseShow,
		"round":    p.round,
		"sequence": append([]string{}, p.target...),
	})
}

func (p *Sequence) startInput(now time.Time) {
	p.phase = phaseInput
	timeout := time.Duration(p.cfg.InputTimeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	p.inputDeadline = now.Add(timeout)
	p.update("", map[string]interface{}{
		"phase": phaseInput,
		"round": p.round,
	})
}

// tick drives the show -> input transition and the input-phase timeout.
// Like the shared countdown, phase deadlines are judged at the next
// sample, not instantaneously.
func (p *Sequence) tick(now time.Time) {
	switch p.phase {
	case phaseShow:
		if !now.Before(p.showUntil) {
			p.startInput(now)
		}
	case phaseInput:
		if !now.Before(p.inputDeadline) {
			p.replayRound("timeout")
		}
	}
}

// replayRound restarts the current round's show/input cycle. The terminal
// attempt counter is untouched.
func (p *Sequence) replayRound(reason string) {
	p.update(reason, map[string]interface{}{
		"phase":  "replay",
		"round":  p.round,
		"reason": reason,
	})
	p.startShow(p.now)
}

// HandleInput routes sequence actions:
//
//	pad {symbol} : press a pad during the input phase
func (p *Sequence) HandleInput(action string, input map[string]interface{}) {
	if action == "pad" {
		symbol, _ := input["symbol"].(string)
		p.Press(symbol)
	}
}

// Press registers a pad press. Presses outside the input phase are
// ignored. A wrong press aborts only the current round; a full correct
// round either grows the sequence or, on the final round, submits.
func (p *Sequence) Press(symbol string) {
	if p.state != StateActive || p.phase != phaseInput {
		return
	}

	p.input = append(p.input, symbol)
	pos := len(p.input) - 1
	if p.target[pos] != symbol {
		p.replayRound("wrong input")
		return
	}

	if len(p.input) < len(p.target) {
		p.update("", map[string]interface{}{
			"phase":    phaseInput,
			"round":    p.round,
			"progress": len(p.input),
		})
		return
	}

	// Full round correct.
	if p.round >= p.cfg.maxRounds() {
		p.Submit()
		return
	}

	p.round++
	p.target = append(p.target, p.randomStep())
	p.update("round complete", map[string]interface{}{
		"round":  p.round,
		"length": len(p.target),
	})
	p.startShow(p.now)
}

// Round returns the current 1-based round number.
func (p *Sequence) Round() int { return p.round }

// TargetLength returns the current target sequence length.
func (p *Sequence) TargetLength() int { return len(p.target) }

// Phase returns the current round phase.
func (p *Sequence) Phase() string { return p.phase }

// Solution returns the current target sequence.
func (p *Sequence) Solution() interface{} {
	return append([]string{}, p.target...)
}

// ValidateSolution checks the player input position-wise against the
// current round's target.
func (p *Sequence) ValidateSolution() bool {
	if len(p.input) != len(p.target) || len(p.target) == 0 {
		return false
	}
	for i, s := range p.target {
		if p.input[i] != s {
			return false
		}
	}
	return true
}
