package puzzle

import (
	"time"

	"github.com/lanternworks/storyloom/internal/events"
)

// Generic is the fallback contract for unknown puzzle types and
// placeholder definitions: it accepts any submit as a solution so a
// misconfigured puzzle never strands the story.
type Generic struct {
	tracker
}

func newGeneric(def *Definition, bus *events.Bus) *Generic {
	p := &Generic{}
	p.tracker = newTracker(def, bus, p)
	return p
}

func (p *Generic) begin(now time.Time) {}

func (p *Generic) tick(now time.Time) {}

func (p *Generic) HandleInput(action string, input map[string]interface{}) {}

func (p *Generic) Solution() interface{} { return nil }

func (p *Generic) ValidateSolution() bool { return true }
