// Package game holds the mutable play state shared by the narrative
// sequencer and the puzzle subsystem: flags, variables, inventory, the
// journal, and chapter/scene progress. All access runs through accessor
// methods that enforce the store's invariants and announce mutations on
// the event bus.
//
// State is not internally synchronized. It is owned by the engine, which
// serializes every signal handler and tick; mutations never interleave.
package game

import (
	"time"

	"github.com/google/uuid"

	"github.com/lanternworks/storyloom/internal/events"
)

// JournalEntry is one append-only journal record.
type JournalEntry struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp string `json:"ts"`
}

// State is the game state aggregate.
type State struct {
	bus *events.Bus

	flags     map[string]bool
	variables map[string]interface{}
	inventory map[string]int

	journal              []JournalEntry
	discoveredCharacters map[string]struct{}
	discoveredItems      map[string]struct{}

	chapter  int
	sceneID  string
	playtime time.Duration
}

// NewState creates an empty game state reporting mutations to bus.
func NewState(bus *events.Bus) *State {
	return &State{
		bus:                  bus,
		flags:                make(map[string]bool),
		variables:            make(map[string]interface{}),
		inventory:            make(map[string]int),
		discoveredCharacters: make(map[string]struct{}),
		discoveredItems:      make(map[string]struct{}),
	}
}

// Flag returns the value of a flag. Unset flags are false.
func (s *State) Flag(name string) bool {
	return s.flags[name]
}

// SetFlag sets a flag and emits flag.set.
func (s *State) SetFlag(name string, value bool) {
	s.flags[name] = value
	s.bus.Emit("info", "flag.set", "", map[string]interface{}{
		"flag":  name,
		"value": value,
	})
}

// Variable returns a variable, or def when unset.
func (s *State) Variable(name string, def interface{}) interface{} {
	if v, ok := s.variables[name]; ok {
		return v
	}
	return def
}

// NumberVariable returns a variable coerced to float64, or def when the
// variable is unset or not numeric. JSON decoding and save restoration
// store numbers as float64, so numeric reads must coerce.
func (s *State) NumberVariable(name string, def float64) float64 {
	v, ok := s.variables[name]
	if !ok {
		return def
	}
	n, ok := toNumber(v)
	if !ok {
		return def
	}
	return n
}

// SetVariable sets a variable and emits variable.set.
func (s *State) SetVariable(name string, value interface{}) {
	s.variables[name] = value
	s.bus.Emit("info", "variable.set", "", map[string]interface{}{
		"variable": name,
		"value":    value,
	})
}

// ItemCount returns the inventory count for an item. Absent items are 0.
func (s *State) ItemCount(item string) int {
	return s.inventory[item]
}

// AddItem adds qty of an item to the inventory and records it as
// discovered. Non-positive quantities are ignored.
func (s *State) AddItem(item string, qty int) {
	if qty <= 0 {
		return
	}
	s.inventory[item] += qty
	s.discoveredItems[item] = struct{}{}
	s.bus.Emit("info", "item.added", "", map[string]interface{}{
		"item":  item,
		"count": qty,
		"total": s.inventory[item],
	})
}

// RemoveItem removes qty of an item. Returns false and leaves the
// inventory unchanged when qty exceeds the current count; counts never
// go negative.
func (s *State) RemoveItem(item string, qty int) bool {
	if qty <= 0 {
		return false
	}
	current := s.inventory[item]
	if qty > current {
		return false
	}
	if current == qty {
		delete(s.inventory, item)
	} else {
		s.inventory[item] = current - qty
	}
	s.bus.Emit("info", "item.removed", "", map[string]interface{}{
		"item":  item,
		"count": qty,
		"total": s.inventory[item],
	})
	return true
}

// AddJournalEntry appends a journal entry and emits journal.entry.
func (s *State) AddJournalEntry(text string) JournalEntry {
	entry := JournalEntry{
		ID:        uuid.NewString(),
		Text:      text,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	s.journal = append(s.journal, entry)
	s.bus.Emit("info", "journal.entry", "", map[string]interface{}{
		"entry_id": entry.ID,
		"text":     text,
	})
	return entry
}

// Journal returns a copy of the journal entries in append order.
func (s *State) Journal() []JournalEntry {
	return append([]JournalEntry{}, s.journal...)
}

// DiscoverCharacter records a character as met.
func (s *State) DiscoverCharacter(id string) {
	s.discoveredCharacters[id] = struct{}{}
}

// CharacterDiscovered reports whether a character has been met.
func (s *State) CharacterDiscovered(id string) bool {
	_, ok := s.discoveredCharacters[id]
	return ok
}

// ItemDiscovered reports whether an item has ever been held.
func (s *State) ItemDiscovered(id string) bool {
	_, ok := s.discoveredItems[id]
	return ok
}

// Chapter returns the current chapter number.
func (s *State) Chapter() int {
	return s.chapter
}

// SetChapter records the current chapter number.
func (s *State) SetChapter(number int) {
	s.chapter = number
}

// SceneID returns the current scene identifier.
func (s *State) SceneID() string {
	return s.sceneID
}

// SetSceneID records the current scene identifier.
func (s *State) SetSceneID(id string) {
	s.sceneID = id
}

// Playtime returns the cumulative play time.
func (s *State) Playtime() time.Duration {
	return s.playtime
}

// AddPlaytime accumulates play time. Driven by the engine tick.
func (s *State) AddPlaytime(d time.Duration) {
	if d > 0 {
		s.playtime += d
	}
}

func toNumber(v interface{}) (float64, bool) {
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
