// Package engine ties the pieces together: one engine owns the game
// state, the puzzle factory, the narrative director, and the save store,
// and routes player input signals to whichever collaborator is waiting
// on them. All entry points lock; collaborators run single-threaded
// under the engine's mutex.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lanternworks/storyloom/internal/events"
	"github.com/lanternworks/storyloom/internal/game"
	"github.com/lanternworks/storyloom/internal/narrative"
	"github.com/lanternworks/storyloom/internal/puzzle"
	"github.com/lanternworks/storyloom/internal/storage/saves"
)

// SaveStore is the slice of the saves.Store the engine uses. Nil disables
// persistence (save signals report failure).
type SaveStore interface {
	Write(rec saves.Record) error
	Read(slot int) (saves.Record, error)
	List() ([]saves.Record, error)
	Delete(slot int) error
}

// Engine is the top-level game runtime.
type Engine struct {
	mu sync.Mutex

	bus      *events.Bus
	state    *game.State
	factory  *puzzle.Factory
	director *narrative.Director
	saves    SaveStore

	gameTitle string
	sessionID string
	started   bool
	lastTick  time.Time
}

// New assembles an engine. The factory's outcome callback and the
// director's autosave hook are wired here.
func New(bus *events.Bus, state *game.State, factory *puzzle.Factory, director *narrative.Director, store SaveStore, gameTitle string) *Engine {
	e := &Engine{
		bus:       bus,
		state:     state,
		factory:   factory,
		director:  director,
		saves:     store,
		gameTitle: gameTitle,
		sessionID: uuid.NewString(),
	}
	bus.SetSessionID(e.sessionID)
	factory.SetOutcomeFunc(func(out puzzle.Outcome, completed bool) {
		director.Sequencer().ResumePuzzle(e.lastTick)
	})
	director.SetAutosaveFunc(func(now time.Time) {
		e.writeSave(saves.AutosaveSlot, now)
	})
	return e
}

// SessionID returns the id stamped on this run's journaled events.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// StartGame begins a fresh playthrough.
func (e *Engine) StartGame(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		e.bus.Emit("warning", "system.warning", "game already started", nil)
		return
	}
	e.started = true
	e.lastTick = now
	e.bus.Emit("info", "game.started", e.gameTitle, map[string]interface{}{
		"session_id": e.sessionID,
	})
	e.director.Start(now)
}

// Tick advances time: playtime accrual, puzzle countdowns, and timed
// narrative suspensions. Call it at frame cadence.
func (e *Engine) Tick(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started || e.director.Completed() {
		e.lastTick = now
		return
	}
	e.advanceClock(now)

	e.factory.Tick(now)
	e.director.Sequencer().Tick(now)
}

// advanceClock accrues playtime up to now. Called with the lock held.
func (e *Engine) advanceClock(now time.Time) {
	if !e.lastTick.IsZero() && now.After(e.lastTick) {
		e.state.AddPlaytime(now.Sub(e.lastTick))
	}
	e.lastTick = now
}

// HandleSignal routes one player input signal. Unknown signals warn;
// signals that do not match the current suspension are ignored by the
// collaborator they target.
func (e *Engine) HandleSignal(now time.Time, name string, payload map[string]interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		e.bus.Emit("warning", "system.warning", "input before game start", map[string]interface{}{
			"input": name,
		})
		return
	}
	e.advanceClock(now)

	seq := e.director.Sequencer()
	switch name {
	case "advance":
		seq.Advance(now)
	case "skip":
		seq.Skip(now)
	case "choice.select":
		seq.Choose(intField(payload, "index"), now)
	case "puzzle.submit":
		if p := e.factory.Current(); p != nil {
			p.Submit()
		}
	case "puzzle.reset":
		if p := e.factory.Current(); p != nil {
			p.Reset(now)
		}
	case "puzzle.hint":
		if p := e.factory.Current(); p != nil {
			p.UseHint()
		}
	case "puzzle.input":
		if p := e.factory.Current(); p != nil {
			action, _ := payload["action"].(string)
			input, _ := payload["input"].(map[string]interface{})
			p.HandleInput(action, input)
		}
	default:
		e.bus.Emit("warning", "system.warning", "unknown input signal", map[string]interface{}{
			"input": name,
		})
	}
}

// Save writes the current position to a manual slot.
func (e *Engine) Save(slot int, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writeSave(slot, now)
}

// writeSave is called with the lock held.
func (e *Engine) writeSave(slot int, now time.Time) error {
	if e.saves == nil {
		err := fmt.Errorf("no save store configured")
		e.emitSaveFailed(slot, err)
		return err
	}

	snap := e.state.Snapshot()
	rec := saves.Record{
		Slot:      slot,
		Chapter:   snap.Chapter,
		Scene:     snap.Scene,
		Playtime:  snap.PlaytimeMillis,
		Timestamp: now,
		Preview:   e.buildPreview(snap, now),
		State:     snap,
	}
	if err := e.saves.Write(rec); err != nil {
		e.emitSaveFailed(slot, err)
		return err
	}
	e.bus.Emit("info", "save.written", "", map[string]interface{}{
		"slot":    slot,
		"chapter": rec.Chapter,
		"scene":   rec.Scene,
	})
	return nil
}

func (e *Engine) buildPreview(snap game.Snapshot, now time.Time) saves.Preview {
	title := ""
	if ch := e.director.Chapter(); ch != nil {
		title = ch.Title
	}
	return saves.Preview{
		ChapterTitle: title,
		ChapterText:  fmt.Sprintf("Chapter %d", snap.Chapter),
		DateText:     now.Format("Jan 2, 2006"),
		PlaytimeText: saves.FormatPlaytime(time.Duration(snap.PlaytimeMillis) * time.Millisecond),
	}
}

func (e *Engine) emitSaveFailed(slot int, err error) {
	e.bus.Emit("error", "save.failed", "", map[string]interface{}{
		"slot":  slot,
		"error": err.Error(),
	})
}

// Load restores a slot: any active puzzle is destroyed, state is
// replaced by the snapshot, and play resumes at the saved chapter and
// scene from its top.
func (e *Engine) Load(slot int, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.saves == nil {
		err := fmt.Errorf("no save store configured")
		e.emitSaveFailed(slot, err)
		return err
	}

	rec, err := e.saves.Read(slot)
	if err != nil {
		e.bus.Emit("error", "save.failed", "", map[string]interface{}{
			"slot":  slot,
			"error": err.Error(),
		})
		return err
	}

	e.factory.DestroyCurrent()
	e.state.Restore(rec.State)
	e.started = true
	e.lastTick = now

	e.bus.Emit("info", "save.loaded", "", map[string]interface{}{
		"slot":    slot,
		"chapter": rec.Chapter,
		"scene":   rec.Scene,
	})
	e.director.StartAt(rec.Chapter, rec.Scene, now)
	return nil
}

// Saves lists the occupied save slots.
func (e *Engine) Saves() ([]saves.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.saves == nil {
		return nil, fmt.Errorf("no save store configured")
	}
	return e.saves.List()
}

// DeleteSave clears a slot.
func (e *Engine) DeleteSave(slot int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.saves == nil {
		return fmt.Errorf("no save store configured")
	}
	return e.saves.Delete(slot)
}

// Status is a point-in-time view for operators and the UI.
type Status struct {
	Started   bool   `json:"started"`
	Completed bool   `json:"completed"`
	Chapter   int    `json:"chapter"`
	Scene     string `json:"scene"`
	Waiting   string `json:"waiting"`
	Playtime  int64  `json:"playtime_ms"`

	Puzzle *PuzzleStatus `json:"puzzle,omitempty"`
}

// PuzzleStatus describes the current puzzle instance, if any.
type PuzzleStatus struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	State         string `json:"state"`
	Attempts      int    `json:"attempts"`
	HintsUsed     int    `json:"hints_used"`
	TimeRemaining int64  `json:"time_remaining_ms,omitempty"`
}

// Status reports the engine's current position.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Status{
		Started:   e.started,
		Completed: e.director.Completed(),
		Chapter:   e.state.Chapter(),
		Scene:     e.state.SceneID(),
		Waiting:   e.director.Sequencer().Waiting(),
		Playtime:  e.state.Playtime().Milliseconds(),
	}
	if p := e.factory.Current(); p != nil {
		def := p.Definition()
		st.Puzzle = &PuzzleStatus{
			ID:            def.ID,
			Type:          def.Type,
			State:         string(p.State()),
			Attempts:      p.Attempts(),
			HintsUsed:     p.HintsUsed(),
			TimeRemaining: p.TimeRemaining().Milliseconds(),
		}
	}
	return st
}

// Recent exposes the event buffer for the API layer.
func (e *Engine) Recent(n int) []events.Event {
	return e.bus.Recent(n)
}

func intField(payload map[string]interface{}, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case int64:
		return int(v)
	}
	return -1
}
