package narrative

import (
	"time"

	"github.com/lanternworks/storyloom/internal/events"
	"github.com/lanternworks/storyloom/internal/game"
	"github.com/lanternworks/storyloom/internal/puzzle"
)

// AutosaveFunc is called after a chapter transition completes, once the
// new chapter's first scene has been entered.
type AutosaveFunc func(now time.Time)

// Director owns chapter and scene progression. It starts scenes through
// an embedded sequencer and advances when the sequencer reports scene
// end, moving through scenes in order and chapters by number until the
// content is exhausted.
type Director struct {
	bus   *events.Bus
	state *game.State
	seq   *Sequencer

	chapters []Chapter
	chIdx    int
	scIdx    int

	onAutosave AutosaveFunc
	autosave   bool
	completed  bool
}

// NewDirector creates a director over loaded chapters. Chapters must be
// sorted by number (LoadChapters does this).
func NewDirector(bus *events.Bus, state *game.State, factory *puzzle.Factory, chapters []Chapter) *Director {
	d := &Director{
		bus:      bus,
		state:    state,
		chapters: chapters,
	}
	d.seq = NewSequencer(bus, state, factory, d.sceneEnded)
	return d
}

// SetAutosaveFunc registers the chapter-transition autosave hook.
func (d *Director) SetAutosaveFunc(fn AutosaveFunc) {
	d.onAutosave = fn
}

// Sequencer exposes the scene interpreter for signal routing.
func (d *Director) Sequencer() *Sequencer {
	return d.seq
}

// Completed reports whether the final chapter has ended.
func (d *Director) Completed() bool {
	return d.completed
}

// Chapter returns the current chapter definition, or nil after the
// story completes.
func (d *Director) Chapter() *Chapter {
	if d.completed || d.chIdx >= len(d.chapters) {
		return nil
	}
	return &d.chapters[d.chIdx]
}

// Start begins play at the first chapter's first scene.
func (d *Director) Start(now time.Time) {
	d.completed = false
	if len(d.chapters) == 0 {
		d.finish(now)
		return
	}
	d.chIdx = 0
	d.scIdx = 0
	d.enterChapter(now)
}

// StartAt resumes play at a chapter number and scene id, as recorded in
// a save. Falls back to the chapter's first scene when the scene id is
// unknown, and to Start when the chapter is.
func (d *Director) StartAt(chapterNumber int, sceneID string, now time.Time) {
	for i := range d.chapters {
		if d.chapters[i].Number != chapterNumber {
			continue
		}
		d.completed = false
		d.chIdx = i
		d.scIdx = 0
		for j := range d.chapters[i].Scenes {
			if d.chapters[i].Scenes[j].ID == sceneID {
				d.scIdx = j
				break
			}
		}
		d.enterChapter(now)
		return
	}
	d.bus.Emit("warning", "system.warning", "unknown chapter in resume target", map[string]interface{}{
		"chapter": chapterNumber,
		"scene":   sceneID,
	})
	d.Start(now)
}

func (d *Director) enterChapter(now time.Time) {
	ch := &d.chapters[d.chIdx]
	d.state.SetChapter(ch.Number)
	d.bus.Emit("info", "chapter.started", ch.Title, map[string]interface{}{
		"chapter": ch.Number,
		"id":      ch.ID,
		"title":   ch.Title,
	})
	d.enterScene(now)
}

func (d *Director) enterScene(now time.Time) {
	d.enterSceneAt("", now)
}

func (d *Director) enterSceneAt(label string, now time.Time) {
	ch := &d.chapters[d.chIdx]
	scene := &ch.Scenes[d.scIdx]
	d.state.SetSceneID(scene.ID)
	d.bus.Emit("info", "scene.started", "", map[string]interface{}{
		"chapter":    ch.Number,
		"scene":      scene.ID,
		"background": scene.Background,
		"music":      scene.Music,
		"ambience":   scene.Ambience,
	})

	// A pending chapter-transition autosave fires once the new position
	// is recorded, before any of the scene's content runs.
	if d.autosave {
		d.autosave = false
		if d.onAutosave != nil {
			d.onAutosave(now)
		}
	}

	d.seq.StartSceneAt(scene, label, now)
}

// sceneEnded is the sequencer's scene-end callback. A nil target means
// linear advance; otherwise control moves to the named scene, switching
// chapters when the scene lives elsewhere.
func (d *Director) sceneEnded(target *Target, now time.Time) {
	ch := &d.chapters[d.chIdx]
	d.bus.Emit("info", "scene.ended", "", map[string]interface{}{
		"chapter": ch.Number,
		"scene":   ch.Scenes[d.scIdx].ID,
	})

	if target != nil {
		d.jumpTo(target, now)
		return
	}

	d.scIdx++
	if d.scIdx < len(ch.Scenes) {
		d.enterScene(now)
		return
	}
	d.endChapter(now)
}

func (d *Director) endChapter(now time.Time) {
	ch := &d.chapters[d.chIdx]
	d.bus.Emit("info", "chapter.ended", ch.Title, map[string]interface{}{
		"chapter": ch.Number,
		"id":      ch.ID,
	})

	d.chIdx++
	d.scIdx = 0
	if d.chIdx >= len(d.chapters) {
		d.finish(now)
		return
	}
	d.autosave = true
	d.enterChapter(now)
}

func (d *Director) finish(now time.Time) {
	if d.completed {
		return
	}
	d.completed = true
	d.bus.Emit("info", "game.completed", "", map[string]interface{}{
		"playtime_ms": d.state.Playtime().Milliseconds(),
	})
}

// jumpTo resolves a cross-scene target: the current chapter's scenes
// first, then every chapter in order. Jumping into another chapter ends
// the current one and starts the destination's.
func (d *Director) jumpTo(target *Target, now time.Time) {
	ch := &d.chapters[d.chIdx]
	for j := range ch.Scenes {
		if ch.Scenes[j].ID == target.Scene {
			d.scIdx = j
			d.enterSceneAt(target.Label, now)
			return
		}
	}

	for i := range d.chapters {
		if i == d.chIdx {
			continue
		}
		for j := range d.chapters[i].Scenes {
			if d.chapters[i].Scenes[j].ID != target.Scene {
				continue
			}
			d.bus.Emit("info", "chapter.ended", ch.Title, map[string]interface{}{
				"chapter": ch.Number,
				"id":      ch.ID,
			})
			d.chIdx = i
			d.scIdx = j
			destCh := &d.chapters[i]
			d.state.SetChapter(destCh.Number)
			d.bus.Emit("info", "chapter.started", destCh.Title, map[string]interface{}{
				"chapter": destCh.Number,
				"id":      destCh.ID,
				"title":   destCh.Title,
			})
			d.autosave = true
			d.enterSceneAt(target.Label, now)
			return
		}
	}

	d.bus.Emit("warning", "system.warning", "unknown jump target scene", map[string]interface{}{
		"scene": target.Scene,
	})
	d.scIdx++
	if d.scIdx < len(ch.Scenes) {
		d.enterScene(now)
		return
	}
	d.endChapter(now)
}
