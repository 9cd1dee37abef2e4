package events

import "fmt"

var allowedSignals = map[string]struct{}{
	// puzzle
	"puzzle.started":   {},
	"puzzle.update":    {},
	"puzzle.hint":      {},
	"puzzle.completed": {},
	"puzzle.failed":    {},
	"puzzle.reset":     {},

	// dialogue
	"dialogue.started":   {},
	"dialogue.line":      {},
	"dialogue.completed": {},
	"dialogue.skipped":   {},

	// choice
	"choice.shown": {},
	"choice.made":  {},

	// chapter / scene
	"chapter.started": {},
	"chapter.ended":   {},
	"scene.started":   {},
	"scene.ended":     {},

	// state mutations
	"flag.set":      {},
	"variable.set":  {},
	"item.added":    {},
	"item.removed":  {},
	"journal.entry": {},

	// characters
	"character.action": {},

	// session
	"game.started":   {},
	"game.completed": {},

	// persistence
	"save.written": {},
	"save.loaded":  {},
	"save.failed":  {},

	// input bridge
	"input.received": {},

	// system
	"system.startup":  {},
	"system.shutdown": {},
	"system.error":    {},
	"system.warning":  {},
}

// Validate rejects signal names outside the closed registry. Keeping the
// set closed means a typo in a producer fails loudly in tests instead of
// silently never reaching a consumer.
func Validate(signal string) error {
	if _, ok := allowedSignals[signal]; !ok {
		return fmt.Errorf("unknown signal: %s", signal)
	}
	return nil
}
