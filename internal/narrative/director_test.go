package narrative

import (
	"math/rand"
	"testing"
	"time"

	"github.com/lanternworks/storyloom/internal/events"
	"github.com/lanternworks/storyloom/internal/game"
	"github.com/lanternworks/storyloom/internal/puzzle"
)

func twoChapterStory() []Chapter {
	return []Chapter{
		{ID: "ch1", Number: 1, Title: "The Cellar", Scenes: []Scene{
			{ID: "cellar", Content: []Content{
				{Type: CmdSetFlag, Flag: "lantern_lit"},
			}},
			{ID: "stairs", Content: []Content{
				{Type: CmdSetVariable, Variable: "floor", Value: 0},
			}},
		}},
		{ID: "ch2", Number: 2, Title: "The Attic", Scenes: []Scene{
			{ID: "attic", Content: []Content{
				{Type: CmdSetFlag, Flag: "reached_attic"},
			}},
		}},
	}
}

func newDirector(t *testing.T, chapters []Chapter) (*Director, *game.State, *events.Bus) {
	t.Helper()
	b := newBus(t)
	state := game.NewState(b)
	factory := puzzle.NewFactory(b, state, rand.New(rand.NewSource(1)))
	return NewDirector(b, state, factory, chapters), state, b
}

func TestDirectorRunsChaptersInOrder(t *testing.T) {
	d, state, b := newDirector(t, twoChapterStory())

	var autosaves int
	d.SetAutosaveFunc(func(now time.Time) { autosaves++ })

	d.Start(base)

	if !state.Flag("lantern_lit") || !state.Flag("reached_attic") {
		t.Error("not all scene content ran")
	}
	if !d.Completed() {
		t.Error("director not completed after final chapter")
	}
	if state.Chapter() != 2 {
		t.Errorf("chapter = %d, want 2", state.Chapter())
	}
	if state.SceneID() != "attic" {
		t.Errorf("scene = %q, want attic", state.SceneID())
	}

	if got := countSignal(b, "chapter.started"); got != 2 {
		t.Errorf("chapter.started count = %d, want 2", got)
	}
	if got := countSignal(b, "chapter.ended"); got != 2 {
		t.Errorf("chapter.ended count = %d, want 2", got)
	}
	if got := countSignal(b, "scene.started"); got != 3 {
		t.Errorf("scene.started count = %d, want 3", got)
	}
	if got := countSignal(b, "scene.ended"); got != 3 {
		t.Errorf("scene.ended count = %d, want 3", got)
	}
	if got := countSignal(b, "game.completed"); got != 1 {
		t.Errorf("game.completed count = %d, want 1", got)
	}
	if autosaves != 1 {
		t.Errorf("autosaves = %d, want 1 (one chapter transition)", autosaves)
	}
}

func TestDirectorSuspensionStallsProgress(t *testing.T) {
	chapters := []Chapter{
		{ID: "ch1", Number: 1, Title: "One", Scenes: []Scene{
			{ID: "a", Content: []Content{
				{Type: CmdNarration, Text: "It begins."},
				{Type: CmdSetFlag, Flag: "after_line"},
			}},
		}},
	}
	d, state, _ := newDirector(t, chapters)
	d.Start(base)

	if state.Flag("after_line") {
		t.Fatal("progress past an unresolved dialogue suspension")
	}
	if d.Completed() {
		t.Fatal("completed while suspended")
	}

	d.Sequencer().Advance(base)
	if !state.Flag("after_line") {
		t.Error("advance did not resume the scene")
	}
	if !d.Completed() {
		t.Error("story not completed after resolving the last suspension")
	}
}

func TestDirectorCrossChapterJump(t *testing.T) {
	chapters := []Chapter{
		{ID: "ch1", Number: 1, Title: "One", Scenes: []Scene{
			{ID: "a", Content: []Content{
				{Type: CmdJump, Goto: &Target{Scene: "finale"}},
				{Type: CmdSetFlag, Flag: "unreached"},
			}},
		}},
		{ID: "ch2", Number: 2, Title: "Two", Scenes: []Scene{
			{ID: "filler", Content: []Content{
				{Type: CmdSetFlag, Flag: "filler_ran"},
			}},
			{ID: "finale", Content: []Content{
				{Type: CmdSetFlag, Flag: "finale_ran"},
			}},
		}},
	}
	d, state, b := newDirector(t, chapters)

	var autosaves int
	d.SetAutosaveFunc(func(now time.Time) { autosaves++ })

	d.Start(base)

	if state.Flag("unreached") {
		t.Error("content after a cross-scene jump ran")
	}
	if !state.Flag("finale_ran") {
		t.Error("jump target scene did not run")
	}
	if !d.Completed() {
		t.Error("story should complete after the finale scene")
	}
	if autosaves == 0 {
		t.Error("cross-chapter jump did not autosave")
	}
	if got := countSignal(b, "chapter.started"); got != 2 {
		t.Errorf("chapter.started count = %d, want 2", got)
	}
}

func TestDirectorUnknownJumpTargetAdvancesLinearly(t *testing.T) {
	chapters := []Chapter{
		{ID: "ch1", Number: 1, Title: "One", Scenes: []Scene{
			{ID: "a", Content: []Content{
				{Type: CmdJump, Goto: &Target{Scene: "nowhere"}},
			}},
			{ID: "b", Content: []Content{
				{Type: CmdSetFlag, Flag: "next_scene_ran"},
			}},
		}},
	}
	d, state, b := newDirector(t, chapters)
	d.Start(base)

	if !state.Flag("next_scene_ran") {
		t.Error("unknown jump target did not fall back to linear advance")
	}
	if countSignal(b, "system.warning") == 0 {
		t.Error("unknown jump target did not warn")
	}
}

func TestDirectorStartAtResumesSavedPosition(t *testing.T) {
	d, state, _ := newDirector(t, twoChapterStory())
	d.StartAt(2, "attic", base)

	if state.Flag("lantern_lit") {
		t.Error("resume replayed chapter 1 content")
	}
	if !state.Flag("reached_attic") {
		t.Error("resume did not run the saved scene")
	}
}

func TestDirectorStartAtUnknownChapterFallsBack(t *testing.T) {
	d, state, b := newDirector(t, twoChapterStory())
	d.StartAt(9, "attic", base)

	if !state.Flag("lantern_lit") {
		t.Error("fallback did not start from the beginning")
	}
	if countSignal(b, "system.warning") == 0 {
		t.Error("unknown resume chapter did not warn")
	}
}

func TestDirectorEmptyStoryCompletesImmediately(t *testing.T) {
	d, _, b := newDirector(t, nil)
	d.Start(base)

	if !d.Completed() {
		t.Error("empty story not completed")
	}
	if countSignal(b, "game.completed") != 1 {
		t.Error("empty story did not emit game.completed")
	}
}
