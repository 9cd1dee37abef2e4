package puzzle

import (
	"math"
	"time"

	"github.com/lanternworks/storyloom/internal/events"
)

// Resonance is the tuning puzzle: set the frequency dial and lock in each
// target note in order. Locking validates one note at a time rather than a
// whole pattern; the puzzle completes on its own when the last note is
// matched, bypassing the generic submit path.
type Resonance struct {
	tracker
	cfg *ResonanceConfig

	dials   map[string]float64
	matched []int
}

func newResonance(def *Definition, bus *events.Bus) *Resonance {
	p := &Resonance{cfg: def.Resonance}
	if p.cfg == nil {
		p.cfg = &ResonanceConfig{}
	}
	p.tracker = newTracker(def, bus, p)
	return p
}

func (p *Resonance) begin(now time.Time) {
	p.dials = make(map[string]float64, len(p.cfg.Dials))
	for _, d := range p.cfg.Dials {
		p.dials[d] = 0
	}
	p.matched = nil
}

func (p *Resonance) tick(now time.Time) {}

// HandleInput routes resonance actions:
//
//	dial {dial, value} : turn a dial
//	lock {}            : try to lock the current target note
func (p *Resonance) HandleInput(action string, input map[string]interface{}) {
	switch action {
	case "dial":
		name, _ := input["dial"].(string)
		value, _ := toFloat(input["value"])
		p.SetDial(name, value)
	case "lock":
		p.LockNote()
	}
}

// SetDial turns a dial. Turning the frequency dial reports the new audible
// frequency so the audio collaborator can retune.
func (p *Resonance) SetDial(name string, value float64) {
	if p.state != StateActive {
		return
	}
	if _, ok := p.dials[name]; !ok {
		return
	}
	p.dials[name] = value
	fields := map[string]interface{}{
		"dial":  name,
		"value": value,
	}
	if name == p.cfg.frequencyDial() {
		fields["frequency"] = value
	}
	p.update("", fields)
}

// LockNote matches the current target note iff the frequency dial is
// within tolerance. All notes matched completes the puzzle autonomously.
func (p *Resonance) LockNote() {
	if p.state != StateActive {
		return
	}
	idx := len(p.matched)
	if idx >= len(p.cfg.Notes) {
		return
	}

	freq := p.dials[p.cfg.frequencyDial()]
	target := p.cfg.Notes[idx]
	if math.Abs(freq-target) > p.cfg.tolerance() {
		p.update("off pitch", map[string]interface{}{
			"locked":    false,
			"note":      idx,
			"frequency": freq,
		})
		return
	}

	p.matched = append(p.matched, idx)
	p.update("note locked", map[string]interface{}{
		"locked":  true,
		"note":    idx,
		"matched": len(p.matched),
		"notes":   len(p.cfg.Notes),
	})

	if len(p.matched) == len(p.cfg.Notes) {
		// Locking the last note is the solution; no explicit submit.
		p.attempts++
		p.complete()
	}
}

// MatchedNotes returns the indices of notes matched so far.
func (p *Resonance) MatchedNotes() []int {
	return append([]int{}, p.matched...)
}

// Solution returns the target note frequencies.
func (p *Resonance) Solution() interface{} {
	return append([]float64{}, p.cfg.Notes...)
}

// ValidateSolution reports whether every target note has been matched.
func (p *Resonance) ValidateSolution() bool {
	return len(p.cfg.Notes) > 0 && len(p.matched) == len(p.cfg.Notes)
}
