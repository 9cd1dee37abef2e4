package puzzle

import (
	"math/rand"
	"time"

	"github.com/lanternworks/storyloom/internal/events"
	"github.com/lanternworks/storyloom/internal/game"
)

// Constructor builds a fresh instance from a definition.
type Constructor func(def *Definition, bus *events.Bus, rng *rand.Rand) Puzzle

// OutcomeFunc observes the current puzzle's terminal result after the
// factory has applied its game-state mutations. The sequencer uses this to
// resume past a puzzle invocation.
type OutcomeFunc func(out Outcome, completed bool)

// Factory owns the type registry, the loaded definitions, and the single
// current-instance slot. At most one puzzle instance is active
// system-wide; starting another forcibly destroys the first.
type Factory struct {
	bus   *events.Bus
	state *game.State
	rng   *rand.Rand

	constructors map[string]Constructor
	definitions  map[string]*Definition

	current   Puzzle
	onOutcome OutcomeFunc
}

// NewFactory creates a factory with the five built-in types plus the
// generic fallback registered.
func NewFactory(bus *events.Bus, state *game.State, rng *rand.Rand) *Factory {
	f := &Factory{
		bus:          bus,
		state:        state,
		rng:          rng,
		constructors: make(map[string]Constructor),
		definitions:  make(map[string]*Definition),
	}

	f.Register(TypeAssembly, func(def *Definition, bus *events.Bus, _ *rand.Rand) Puzzle {
		return newAssembly(def, bus)
	})
	f.Register(TypeCrafting, func(def *Definition, bus *events.Bus, _ *rand.Rand) Puzzle {
		return newCrafting(def, bus)
	})
	f.Register(TypeDiagnosis, func(def *Definition, bus *events.Bus, _ *rand.Rand) Puzzle {
		return newDiagnosis(def, bus)
	})
	f.Register(TypeSequence, func(def *Definition, bus *events.Bus, rng *rand.Rand) Puzzle {
		return newSequence(def, bus, rng)
	})
	f.Register(TypeResonance, func(def *Definition, bus *events.Bus, _ *rand.Rand) Puzzle {
		return newResonance(def, bus)
	})
	f.Register(TypeGeneric, func(def *Definition, bus *events.Bus, _ *rand.Rand) Puzzle {
		return newGeneric(def, bus)
	})

	return f
}

// Register adds or replaces a type constructor.
func (f *Factory) Register(typeTag string, ctor Constructor) {
	f.constructors[typeTag] = ctor
}

// SetDefinitions replaces the loaded definition map.
func (f *Factory) SetDefinitions(defs map[string]*Definition) {
	f.definitions = defs
}

// Definition returns a loaded definition by ID.
func (f *Factory) Definition(id string) (*Definition, bool) {
	def, ok := f.definitions[id]
	return def, ok
}

// SetOutcomeFunc registers the terminal-outcome observer.
func (f *Factory) SetOutcomeFunc(fn OutcomeFunc) {
	f.onOutcome = fn
}

// Current returns the live instance, or nil.
func (f *Factory) Current() Puzzle {
	return f.current
}

// StartPuzzle starts the puzzle with the given ID. An unknown ID plays a
// generic placeholder rather than halting the story. Any live instance is
// abandoned in place first.
func (f *Factory) StartPuzzle(id string, now time.Time) Puzzle {
	def, ok := f.definitions[id]
	if !ok {
		f.bus.Emit("warning", "system.warning", "unknown puzzle id", map[string]interface{}{
			"puzzle_id": id,
		})
		def = &Definition{
			ID:    id,
			Type:  TypeGeneric,
			Title: "Unknown puzzle",
		}
	}
	return f.StartDefinition(def, now)
}

// StartDefinition starts a puzzle from an inline definition, tearing down
// any live instance first. The abandoned instance's callbacks are
// disarmed, not gracefully cancelled; none of its signals fire afterward.
func (f *Factory) StartDefinition(def *Definition, now time.Time) Puzzle {
	f.DestroyCurrent()

	ctor, ok := f.constructors[def.Type]
	if !ok {
		f.bus.Emit("warning", "system.warning", "unknown puzzle type", map[string]interface{}{
			"puzzle_id":   def.ID,
			"puzzle_type": def.Type,
		})
		ctor = f.constructors[TypeGeneric]
	}

	p := ctor(def, f.bus, f.rng)
	f.arm(p, def)
	f.current = p
	p.Start(now)
	return p
}

// arm attaches the outcome callbacks that translate terminal puzzle
// results into game-state mutations.
func (f *Factory) arm(p Puzzle, def *Definition) {
	type armable interface {
		setCallbacks(onComplete, onFail func(Outcome))
	}
	a, ok := p.(armable)
	if !ok {
		return
	}
	a.setCallbacks(
		func(out Outcome) {
			f.applyCompletion(def, out)
			f.current = nil
			if f.onOutcome != nil {
				f.onOutcome(out, true)
			}
		},
		func(out Outcome) {
			f.applyFailure(def, out)
			f.current = nil
			if f.onOutcome != nil {
				f.onOutcome(out, false)
			}
		},
	)
}

func (f *Factory) applyCompletion(def *Definition, out Outcome) {
	f.state.SetFlag("puzzle_"+def.ID+"_completed", true)
	f.state.SetVariable("puzzle_"+def.ID+"_score", out.Score)

	for _, r := range def.Rewards {
		switch r.Type {
		case "item":
			count := r.Count
			if count <= 0 {
				count = 1
			}
			f.state.AddItem(r.Item, count)
		case "flag":
			f.state.SetFlag(r.Flag, true)
		case "variable":
			f.state.SetVariable(r.Variable, r.Value)
		default:
			f.bus.Emit("warning", "system.warning", "unknown reward type", map[string]interface{}{
				"puzzle_id":   def.ID,
				"reward_type": r.Type,
			})
		}
	}
}

func (f *Factory) applyFailure(def *Definition, out Outcome) {
	key := "puzzle_" + def.ID + "_failures"
	failures := f.state.NumberVariable(key, 0)
	f.state.SetVariable(key, int(failures)+1)
}

// DestroyCurrent abandons the live instance, if any. No merge, no queue,
// no ordering guarantee on its pending work: its callbacks simply never
// fire.
func (f *Factory) DestroyCurrent() {
	if f.current == nil {
		return
	}
	f.current.Destroy()
	f.current = nil
}

// Tick drives the live instance's countdown and phase timing.
func (f *Factory) Tick(now time.Time) {
	if f.current != nil {
		f.current.Tick(now)
	}
}

// setCallbacks is the tracker half of the factory's arm hook.
func (t *tracker) setCallbacks(onComplete, onFail func(Outcome)) {
	t.onComplete = onComplete
	t.onFail = onFail
}
