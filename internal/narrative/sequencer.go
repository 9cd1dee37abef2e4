package narrative

import (
	"time"

	"github.com/lanternworks/storyloom/internal/events"
	"github.com/lanternworks/storyloom/internal/game"
	"github.com/lanternworks/storyloom/internal/puzzle"
)

// waitKind names what the sequencer is suspended on. Dialogue and choice
// suspensions have no timeout; action and wait resolve on a tick; puzzle
// resolves on the factory's terminal outcome.
type waitKind string

const (
	waitNone     waitKind = ""
	waitDialogue waitKind = "dialogue"
	waitChoice   waitKind = "choice"
	waitAction   waitKind = "action"
	waitTimer    waitKind = "wait"
	waitPuzzle   waitKind = "puzzle"
)

const defaultActionMillis = 600

// SceneEndFunc is called when a scene is exhausted or control jumps to
// another scene. A nil target means plain exhaustion: the caller resumes
// at the next scene in order.
type SceneEndFunc func(target *Target, now time.Time)

// Sequencer interprets one scene's content list at a time. It is a
// cooperative state machine: processing runs synchronously until a
// suspension point, then yields until the matching external signal
// (advance, choice selection, tick, puzzle outcome) arrives.
type Sequencer struct {
	bus     *events.Bus
	state   *game.State
	factory *puzzle.Factory

	scene *Scene
	index int

	waiting   waitKind
	waitUntil time.Time

	// visible maps presented option positions to scene option indices
	// after availability filtering.
	visible []int

	onSceneEnd SceneEndFunc
}

// NewSequencer creates a sequencer. The factory's outcome callback must
// be routed to ResumePuzzle by the caller.
func NewSequencer(bus *events.Bus, state *game.State, factory *puzzle.Factory, onSceneEnd SceneEndFunc) *Sequencer {
	return &Sequencer{
		bus:        bus,
		state:      state,
		factory:    factory,
		onSceneEnd: onSceneEnd,
	}
}

// Waiting reports what the sequencer is currently suspended on.
func (s *Sequencer) Waiting() string {
	return string(s.waiting)
}

// StartScene begins interpreting a scene from the top.
func (s *Sequencer) StartScene(scene *Scene, now time.Time) {
	s.StartSceneAt(scene, "", now)
}

// StartSceneAt begins interpreting a scene from a label. An unknown label
// falls back to the top of the scene.
func (s *Sequencer) StartSceneAt(scene *Scene, label string, now time.Time) {
	s.scene = scene
	s.index = 0
	s.waiting = waitNone
	s.visible = nil
	if label != "" {
		if idx := scene.labelIndex(label); idx >= 0 {
			s.index = idx
		} else {
			s.bus.Emit("warning", "system.warning", "unknown label", map[string]interface{}{
				"scene": scene.ID,
				"label": label,
			})
		}
	}
	s.run(now)
}

// run processes content items until a suspension point or scene end.
func (s *Sequencer) run(now time.Time) {
	for s.scene != nil && s.waiting == waitNone {
		if s.index >= len(s.scene.Content) {
			s.scene = nil
			s.onSceneEnd(nil, now)
			return
		}

		item := &s.scene.Content[s.index]
		if !s.state.Evaluate(item.If) {
			s.index++
			continue
		}

		switch item.Type {
		case CmdDialogue, CmdNarration:
			s.presentLine(item)
			return

		case CmdChoice:
			s.presentChoice(item)
			return

		case CmdAction:
			s.state.DiscoverCharacter(item.Character)
			duration := item.Duration
			if duration <= 0 {
				duration = defaultActionMillis
			}
			s.bus.Emit("info", "character.action", "", map[string]interface{}{
				"character": item.Character,
				"action":    item.Action,
				"duration":  duration,
			})
			s.waiting = waitAction
			s.waitUntil = now.Add(time.Duration(duration) * time.Millisecond)
			return

		case CmdWait:
			s.waiting = waitTimer
			s.waitUntil = now.Add(time.Duration(item.Duration) * time.Millisecond)
			return

		case CmdPuzzle:
			s.waiting = waitPuzzle
			s.factory.StartPuzzle(item.Puzzle, now)
			return

		case CmdSetFlag:
			value := true
			if b, ok := item.Value.(bool); ok {
				value = b
			}
			s.state.SetFlag(item.Flag, value)
			s.index++

		case CmdSetVariable:
			s.state.SetVariable(item.Variable, item.Value)
			s.index++

		case CmdAddItem:
			count := item.Count
			if count <= 0 {
				count = 1
			}
			s.state.AddItem(item.Item, count)
			s.index++

		case CmdRemoveItem:
			count := item.Count
			if count <= 0 {
				count = 1
			}
			s.state.RemoveItem(item.Item, count)
			s.index++

		case CmdJournal:
			s.state.AddJournalEntry(item.Text)
			s.index++

		case CmdLabel:
			s.index++

		case CmdJump:
			if !s.redirect(item.Goto, now) {
				return
			}

		default:
			s.bus.Emit("warning", "system.warning", "unknown content type", map[string]interface{}{
				"scene":        s.scene.ID,
				"content_type": item.Type,
			})
			s.index++
		}
	}
}

// redirect transfers control to a target. Within-scene label targets move
// the cursor and return true so the run loop continues; cross-scene
// targets end the scene with the target and return false.
func (s *Sequencer) redirect(target *Target, now time.Time) bool {
	if target == nil {
		s.index++
		return true
	}
	if target.Scene == "" || (s.scene != nil && target.Scene == s.scene.ID) {
		if idx := s.scene.labelIndex(target.Label); idx >= 0 {
			s.index = idx + 1
			return true
		}
		s.bus.Emit("warning", "system.warning", "unknown jump label", map[string]interface{}{
			"scene": s.scene.ID,
			"label": target.Label,
		})
		s.index++
		return true
	}
	s.scene = nil
	s.onSceneEnd(target, now)
	return false
}

func (s *Sequencer) presentLine(item *Content) {
	s.waiting = waitDialogue
	fields := map[string]interface{}{
		"text": item.Text,
		"html": renderMarkdown(item.Text),
	}
	if item.Type == CmdDialogue {
		fields["speaker"] = item.Speaker
		s.state.DiscoverCharacter(item.Speaker)
	}
	s.bus.Emit("info", "dialogue.line", "", fields)
}

func (s *Sequencer) presentChoice(item *Content) {
	s.waiting = waitChoice
	s.visible = s.visible[:0]

	options := make([]map[string]interface{}, 0, len(item.Options))
	for i := range item.Options {
		opt := &item.Options[i]
		if !s.state.Evaluate(opt.If) {
			continue
		}
		options = append(options, map[string]interface{}{
			"index": len(s.visible),
			"text":  opt.Text,
			"html":  renderMarkdown(opt.Text),
		})
		s.visible = append(s.visible, i)
	}

	s.bus.Emit("info", "choice.shown", "", map[string]interface{}{
		"prompt":  item.Prompt,
		"options": options,
	})
}

// Advance resumes a dialogue/narration suspension. Signals while not
// suspended on dialogue are ignored.
func (s *Sequencer) Advance(now time.Time) {
	s.resumeLine("dialogue.completed", now)
}

// Skip resumes a dialogue/narration suspension, marking the line skipped.
func (s *Sequencer) Skip(now time.Time) {
	s.resumeLine("dialogue.skipped", now)
}

func (s *Sequencer) resumeLine(signal string, now time.Time) {
	if s.waiting != waitDialogue {
		return
	}
	s.bus.Emit("info", signal, "", nil)
	s.waiting = waitNone
	s.index++
	s.run(now)
}

// Choose resolves a choice suspension with the selected visible-option
// position. Selection is terminal for this presentation: effects apply
// once and the prompt is never re-presented.
func (s *Sequencer) Choose(position int, now time.Time) {
	if s.waiting != waitChoice {
		return
	}
	if position < 0 || position >= len(s.visible) {
		s.bus.Emit("warning", "system.warning", "choice selection out of range", map[string]interface{}{
			"position": position,
		})
		return
	}

	item := &s.scene.Content[s.index]
	opt := &item.Options[s.visible[position]]

	s.bus.Emit("info", "choice.made", "", map[string]interface{}{
		"position": position,
		"text":     opt.Text,
	})

	for _, effect := range opt.Effects {
		applyEffect(s.state, effect)
	}

	s.waiting = waitNone
	if opt.Goto != nil {
		if s.redirect(opt.Goto, now) {
			s.run(now)
		}
		return
	}
	s.index++
	s.run(now)
}

// Tick resolves timed suspensions (action, wait). Like puzzle countdowns,
// resolution lands on the first tick at or past the deadline.
func (s *Sequencer) Tick(now time.Time) {
	if s.waiting != waitAction && s.waiting != waitTimer {
		return
	}
	if now.Before(s.waitUntil) {
		return
	}
	s.waiting = waitNone
	s.index++
	s.run(now)
}

// ResumePuzzle resolves a puzzle suspension after the factory reports a
// terminal outcome. The outcome itself (rewards, flags) has already been
// applied by the factory.
func (s *Sequencer) ResumePuzzle(now time.Time) {
	if s.waiting != waitPuzzle {
		return
	}
	s.waiting = waitNone
	s.index++
	s.run(now)
}
