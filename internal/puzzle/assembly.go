package puzzle

import (
	"math"
	"time"

	"github.com/lanternworks/storyloom/internal/events"
)

// Assembly is the mechanical assembly puzzle: place every part into its
// designated slot. Placement order is irrelevant; the puzzle auto-submits
// the moment every slot is filled.
type Assembly struct {
	tracker
	cfg *AssemblyConfig

	placements map[string]string   // slot -> part
	placed     map[string]struct{} // parts already committed to a slot
}

func newAssembly(def *Definition, bus *events.Bus) *Assembly {
	p := &Assembly{cfg: def.Assembly}
	if p.cfg == nil {
		p.cfg = &AssemblyConfig{}
	}
	p.tracker = newTracker(def, bus, p)
	return p
}

func (p *Assembly) begin(now time.Time) {
	p.placements = make(map[string]string, len(p.cfg.Slots))
	p.placed = make(map[string]struct{}, len(p.cfg.Slots))
}

func (p *Assembly) tick(now time.Time) {}

// HandleInput routes assembly actions:
//
//	place  {part, slot}  : commit a part to a slot
//	drop   {part, x, y}  : resolve the nearest slot within threshold
func (p *Assembly) HandleInput(action string, input map[string]interface{}) {
	switch action {
	case "place":
		part, _ := input["part"].(string)
		slot, _ := input["slot"].(string)
		p.Place(part, slot)
	case "drop":
		part, _ := input["part"].(string)
		x, _ := toFloat(input["x"])
		y, _ := toFloat(input["y"])
		p.Drop(part, x, y)
	}
}

// Place commits a part to a slot. A part already placed cannot be placed
// again, and an occupied slot rejects further parts.
func (p *Assembly) Place(part, slot string) {
	if p.state != StateActive {
		return
	}
	if p.findSlot(slot) == nil {
		p.update("unknown slot", map[string]interface{}{"slot": slot})
		return
	}
	if _, done := p.placed[part]; done {
		p.update("part already placed", map[string]interface{}{"part": part})
		return
	}
	if _, occupied := p.placements[slot]; occupied {
		p.update("slot occupied", map[string]interface{}{"slot": slot})
		return
	}

	p.placements[slot] = part
	p.placed[part] = struct{}{}
	p.update("", map[string]interface{}{
		"part":   part,
		"slot":   slot,
		"placed": len(p.placements),
		"slots":  len(p.cfg.Slots),
	})

	if len(p.placements) == len(p.cfg.Slots) {
		p.Submit()
	}
}

// Drop resolves a release point to the nearest slot within the configured
// threshold; a drop outside every threshold is a miss, not an error.
func (p *Assembly) Drop(part string, x, y float64) {
	if p.state != StateActive {
		return
	}
	slot := p.nearestSlot(x, y)
	if slot == "" {
		p.update("missed", map[string]interface{}{"part": part})
		return
	}
	p.Place(part, slot)
}

func (p *Assembly) nearestSlot(x, y float64) string {
	best := ""
	bestDist := p.cfg.threshold()
	for _, s := range p.cfg.Slots {
		d := math.Hypot(s.X-x, s.Y-y)
		if d <= bestDist {
			best = s.ID
			bestDist = d
		}
	}
	return best
}

func (p *Assembly) findSlot(id string) *AssemblySlot {
	for i := range p.cfg.Slots {
		if p.cfg.Slots[i].ID == id {
			return &p.cfg.Slots[i]
		}
	}
	return nil
}

// Solution returns the target slot -> part mapping.
func (p *Assembly) Solution() interface{} {
	target := make(map[string]string, len(p.cfg.Slots))
	for _, s := range p.cfg.Slots {
		target[s.ID] = s.Part
	}
	return target
}

// ValidateSolution checks that every defined slot holds its designated
// part.
func (p *Assembly) ValidateSolution() bool {
	if len(p.cfg.Slots) == 0 {
		return false
	}
	for _, s := range p.cfg.Slots {
		if p.placements[s.ID] != s.Part {
			return false
		}
	}
	return true
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
