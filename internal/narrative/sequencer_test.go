package narrative

import (
	"math/rand"
	"testing"
	"time"

	"github.com/lanternworks/storyloom/internal/events"
	"github.com/lanternworks/storyloom/internal/game"
	"github.com/lanternworks/storyloom/internal/puzzle"
)

var base = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newBus(t *testing.T) *events.Bus {
	t.Helper()
	return events.NewBus(256)
}

func lastSignal(bus *events.Bus, signal string) (events.Event, bool) {
	snap := bus.Snapshot()
	for i := len(snap) - 1; i >= 0; i-- {
		if snap[i].Name == signal {
			return snap[i], true
		}
	}
	return events.Event{}, false
}

func countSignal(bus *events.Bus, signal string) int {
	n := 0
	for _, e := range bus.Snapshot() {
		if e.Name == signal {
			n++
		}
	}
	return n
}

type sceneEndRecorder struct {
	ended  int
	target *Target
}

func (r *sceneEndRecorder) fn(target *Target, now time.Time) {
	r.ended++
	r.target = target
}

func newSequencer(t *testing.T, end SceneEndFunc) (*Sequencer, *game.State, *events.Bus) {
	t.Helper()
	bus := newBus(t)
	state := game.NewState(bus)
	factory := puzzle.NewFactory(bus, state, rand.New(rand.NewSource(1)))
	return NewSequencer(bus, state, factory, end), state, bus
}

func TestSequencerSkipsFalseConditions(t *testing.T) {
	var rec sceneEndRecorder
	seq, state, _ := newSequencer(t, rec.fn)
	state.SetFlag("have_key", false)

	scene := &Scene{ID: "hall", Content: []Content{
		{Type: CmdSetFlag, If: &game.Condition{Type: "flag", Flag: "have_key"}, Flag: "door_open"},
		{Type: CmdSetVariable, Variable: "steps", Value: 1},
	}}
	seq.StartScene(scene, base)

	if state.Flag("door_open") {
		t.Errorf("gated mutation ran despite false condition")
	}
	if got := state.NumberVariable("steps", 0); got != 1 {
		t.Errorf("steps = %v, want 1", got)
	}
	if rec.ended != 1 || rec.target != nil {
		t.Errorf("scene end: ended=%d target=%v, want 1 nil", rec.ended, rec.target)
	}
}

func TestSequencerDialogueSuspendAndAdvance(t *testing.T) {
	var rec sceneEndRecorder
	seq, state, bus := newSequencer(t, rec.fn)

	scene := &Scene{ID: "hall", Content: []Content{
		{Type: CmdDialogue, Speaker: "mara", Text: "Look *behind* you."},
		{Type: CmdNarration, Text: "The door creaks."},
	}}
	seq.StartScene(scene, base)

	if seq.Waiting() != "dialogue" {
		t.Fatalf("waiting = %q, want dialogue", seq.Waiting())
	}
	line, ok := lastSignal(bus, "dialogue.line")
	if !ok {
		t.Fatal("no dialogue.line emitted")
	}
	if line.Fields["speaker"] != "mara" {
		t.Errorf("speaker = %v, want mara", line.Fields["speaker"])
	}
	html, _ := line.Fields["html"].(string)
	if html == "" || html == line.Fields["text"] {
		t.Errorf("line html not rendered: %q", html)
	}
	if !state.CharacterDiscovered("mara") {
		t.Error("speaker not discovered")
	}
	if rec.ended != 0 {
		t.Fatal("scene ended while suspended")
	}

	// Choose/Tick during a dialogue suspension are ignored.
	seq.Choose(0, base)
	seq.Tick(base.Add(time.Hour))
	if seq.Waiting() != "dialogue" {
		t.Fatal("dialogue suspension broken by unrelated signals")
	}

	seq.Advance(base)
	if countSignal(bus, "dialogue.completed") != 1 {
		t.Error("advance did not emit dialogue.completed")
	}
	if seq.Waiting() != "dialogue" {
		t.Fatalf("narration should suspend next, waiting = %q", seq.Waiting())
	}
	if _, ok := lastSignal(bus, "dialogue.line"); !ok {
		t.Fatal("narration line missing")
	}

	seq.Skip(base)
	if countSignal(bus, "dialogue.skipped") != 1 {
		t.Error("skip did not emit dialogue.skipped")
	}
	if rec.ended != 1 {
		t.Errorf("scene end count = %d, want 1", rec.ended)
	}
}

func TestSequencerChoiceFilteringAndEffects(t *testing.T) {
	var rec sceneEndRecorder
	seq, state, bus := newSequencer(t, rec.fn)
	state.AddItem("coin", 1)

	scene := &Scene{ID: "market", Content: []Content{
		{Type: CmdChoice, Prompt: "What now?", Options: []ChoiceOption{
			{Text: "Bribe the guard", If: &game.Condition{Type: "item", Item: "gem"}},
			{Text: "Pay the toll", If: &game.Condition{Type: "item", Item: "coin"},
				Effects: []Effect{
					{Type: "remove_item", Item: "coin", Count: 1},
					{Type: "set_flag", Flag: "toll_paid"},
				}},
			{Text: "Walk away"},
		}},
		{Type: CmdSetVariable, Variable: "after_choice", Value: true},
	}}
	seq.StartScene(scene, base)

	shown, ok := lastSignal(bus, "choice.shown")
	if !ok {
		t.Fatal("no choice.shown emitted")
	}
	options, _ := shown.Fields["options"].([]map[string]interface{})
	if len(options) != 2 {
		t.Fatalf("visible options = %d, want 2 (gem option hidden)", len(options))
	}
	if options[0]["text"] != "Pay the toll" {
		t.Errorf("first visible option = %v", options[0]["text"])
	}

	// Out-of-range selection warns and keeps the suspension.
	seq.Choose(5, base)
	if seq.Waiting() != "choice" {
		t.Fatal("out-of-range selection broke the suspension")
	}
	if countSignal(bus, "system.warning") != 1 {
		t.Error("out-of-range selection did not warn")
	}

	seq.Choose(0, base)
	if !state.Flag("toll_paid") {
		t.Error("choice effect flag not set")
	}
	if state.ItemCount("coin") != 0 {
		t.Errorf("coin count = %d after remove effect", state.ItemCount("coin"))
	}
	made, ok := lastSignal(bus, "choice.made")
	if !ok || made.Fields["text"] != "Pay the toll" {
		t.Errorf("choice.made = %v %v", ok, made.Fields)
	}
	v, _ := state.Variable("after_choice", nil).(bool)
	if !v {
		t.Error("sequencer did not continue past the choice")
	}
	if rec.ended != 1 {
		t.Errorf("scene end count = %d, want 1", rec.ended)
	}
}

func TestSequencerChoiceGotoOverridesLinearAdvance(t *testing.T) {
	var rec sceneEndRecorder
	seq, state, _ := newSequencer(t, rec.fn)

	scene := &Scene{ID: "cell", Content: []Content{
		{Type: CmdChoice, Options: []ChoiceOption{
			{Text: "Pick the lock", Goto: &Target{Label: "lock"}},
		}},
		{Type: CmdSetFlag, Flag: "skipped_over"},
		{Type: CmdLabel, Label: "lock"},
		{Type: CmdSetFlag, Flag: "at_label"},
	}}
	seq.StartScene(scene, base)
	seq.Choose(0, base)

	if state.Flag("skipped_over") {
		t.Error("goto did not skip intervening content")
	}
	if !state.Flag("at_label") {
		t.Error("goto did not land after the label")
	}
}

func TestSequencerJumpAndLabels(t *testing.T) {
	var rec sceneEndRecorder
	seq, state, _ := newSequencer(t, rec.fn)
	state.SetFlag("shortcut", true)

	scene := &Scene{ID: "maze", Content: []Content{
		{Type: CmdJump, If: &game.Condition{Type: "flag", Flag: "shortcut"}, Goto: &Target{Label: "exit"}},
		{Type: CmdSetFlag, Flag: "long_way"},
		{Type: CmdLabel, Label: "exit"},
		{Type: CmdSetFlag, Flag: "out"},
	}}
	seq.StartScene(scene, base)

	if state.Flag("long_way") {
		t.Error("jump did not skip the long way")
	}
	if !state.Flag("out") {
		t.Error("jump target content did not run")
	}
	if rec.ended != 1 || rec.target != nil {
		t.Errorf("scene end: ended=%d target=%v", rec.ended, rec.target)
	}
}

func TestSequencerCrossSceneJumpReportsTarget(t *testing.T) {
	var rec sceneEndRecorder
	seq, _, _ := newSequencer(t, rec.fn)

	scene := &Scene{ID: "a", Content: []Content{
		{Type: CmdJump, Goto: &Target{Scene: "b", Label: "mid"}},
		{Type: CmdSetFlag, Flag: "unreached"},
	}}
	seq.StartScene(scene, base)

	if rec.ended != 1 {
		t.Fatalf("scene end count = %d, want 1", rec.ended)
	}
	if rec.target == nil || rec.target.Scene != "b" || rec.target.Label != "mid" {
		t.Errorf("target = %+v, want scene b label mid", rec.target)
	}
}

func TestSequencerWaitAndActionResolveOnTick(t *testing.T) {
	var rec sceneEndRecorder
	seq, state, bus := newSequencer(t, rec.fn)

	scene := &Scene{ID: "lab", Content: []Content{
		{Type: CmdAction, Character: "theo", Action: "enter_left", Duration: 400},
		{Type: CmdWait, Duration: 1000},
		{Type: CmdSetFlag, Flag: "done"},
	}}
	seq.StartScene(scene, base)

	if seq.Waiting() != "action" {
		t.Fatalf("waiting = %q, want action", seq.Waiting())
	}
	if _, ok := lastSignal(bus, "character.action"); !ok {
		t.Fatal("no character.action emitted")
	}
	if !state.CharacterDiscovered("theo") {
		t.Error("acting character not discovered")
	}

	seq.Tick(base.Add(399 * time.Millisecond))
	if seq.Waiting() != "action" {
		t.Fatal("action resolved before its duration")
	}
	seq.Tick(base.Add(400 * time.Millisecond))
	if seq.Waiting() != "wait" {
		t.Fatalf("waiting = %q after action, want wait", seq.Waiting())
	}

	seq.Tick(base.Add(1400 * time.Millisecond))
	if !state.Flag("done") {
		t.Error("content after wait did not run")
	}
	if rec.ended != 1 {
		t.Errorf("scene end count = %d, want 1", rec.ended)
	}
}

func TestSequencerPuzzleDelegation(t *testing.T) {
	var rec sceneEndRecorder
	bus := newBus(t)
	state := game.NewState(bus)
	factory := puzzle.NewFactory(bus, state, rand.New(rand.NewSource(1)))
	factory.SetDefinitions(map[string]*puzzle.Definition{
		"rune_gate": {ID: "rune_gate", Type: puzzle.TypeGeneric, Difficulty: "normal"},
	})
	seq := NewSequencer(bus, state, factory, rec.fn)
	factory.SetOutcomeFunc(func(out puzzle.Outcome, completed bool) {
		seq.ResumePuzzle(base)
	})

	scene := &Scene{ID: "gate", Content: []Content{
		{Type: CmdPuzzle, Puzzle: "rune_gate"},
		{Type: CmdSetFlag, Flag: "past_gate"},
	}}
	seq.StartScene(scene, base)

	if seq.Waiting() != "puzzle" {
		t.Fatalf("waiting = %q, want puzzle", seq.Waiting())
	}
	p := factory.Current()
	if p == nil {
		t.Fatal("factory has no current puzzle")
	}
	if state.Flag("past_gate") {
		t.Fatal("sequencer ran past an unresolved puzzle")
	}

	p.Submit()

	if !state.Flag("past_gate") {
		t.Error("sequencer did not resume after puzzle completion")
	}
	if !state.Flag("puzzle_rune_gate_completed") {
		t.Error("completion flag not set before resume")
	}
	if rec.ended != 1 {
		t.Errorf("scene end count = %d, want 1", rec.ended)
	}
}

func TestSequencerUnknownLabelFallsBackToTop(t *testing.T) {
	var rec sceneEndRecorder
	seq, state, bus := newSequencer(t, rec.fn)

	scene := &Scene{ID: "hall", Content: []Content{
		{Type: CmdSetFlag, Flag: "ran"},
	}}
	seq.StartSceneAt(scene, "missing", base)

	if !state.Flag("ran") {
		t.Error("scene did not run from the top")
	}
	if countSignal(bus, "system.warning") != 1 {
		t.Error("unknown label did not warn")
	}
}
