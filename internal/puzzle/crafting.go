package puzzle

import (
	"time"

	"github.com/lanternworks/storyloom/internal/events"
)

// Crafting is the recipe puzzle: select ingredients in exactly the order
// the recipe prescribes. Selecting a selected ingredient deselects it;
// the selection is bounded by the configured maximum.
type Crafting struct {
	tracker
	cfg *CraftingConfig

	selected []string
}

func newCrafting(def *Definition, bus *events.Bus) *Crafting {
	p := &Crafting{cfg: def.Crafting}
	if p.cfg == nil {
		p.cfg = &CraftingConfig{}
	}
	p.tracker = newTracker(def, bus, p)
	return p
}

func (p *Crafting) begin(now time.Time) {
	p.selected = nil
}

func (p *Crafting) tick(now time.Time) {}

// HandleInput routes crafting actions:
//
//	select {ingredient} : toggle an ingredient in the ordered selection
func (p *Crafting) HandleInput(action string, input map[string]interface{}) {
	if action == "select" {
		ingredient, _ := input["ingredient"].(string)
		p.Select(ingredient)
	}
}

// Select toggles an ingredient. Selecting past the maximum is rejected
// with a notice; deselection preserves the order of the rest.
func (p *Crafting) Select(ingredient string) {
	if p.state != StateActive {
		return
	}

	for i, id := range p.selected {
		if id == ingredient {
			p.selected = append(p.selected[:i], p.selected[i+1:]...)
			p.update("deselected", map[string]interface{}{
				"ingredient": ingredient,
				"selected":   p.selectedCopy(),
			})
			return
		}
	}

	if len(p.selected) >= p.cfg.maxSelected() {
		p.update("no room for more ingredients", map[string]interface{}{
			"ingredient": ingredient,
			"max":        p.cfg.maxSelected(),
		})
		return
	}

	p.selected = append(p.selected, ingredient)
	p.update("", map[string]interface{}{
		"ingredient": ingredient,
		"selected":   p.selectedCopy(),
	})
}

func (p *Crafting) selectedCopy() []string {
	return append([]string{}, p.selected...)
}

// Solution returns the recipe's ordered ingredient list.
func (p *Crafting) Solution() interface{} {
	return append([]string{}, p.cfg.Recipe...)
}

// ValidateSolution requires exact sequence equality with the recipe: a
// correct multiset in the wrong order fails.
func (p *Crafting) ValidateSolution() bool {
	if len(p.selected) != len(p.cfg.Recipe) || len(p.cfg.Recipe) == 0 {
		return false
	}
	for i, id := range p.cfg.Recipe {
		if p.selected[i] != id {
			return false
		}
	}
	return true
}
