package game

import (
	"sort"
	"time"
)

// Snapshot is a wholesale copy of the game state, the unit of save/load.
type Snapshot struct {
	Flags                map[string]bool        `json:"flags"`
	Variables            map[string]interface{} `json:"variables"`
	Inventory            map[string]int         `json:"inventory"`
	Journal              []JournalEntry         `json:"journal"`
	DiscoveredCharacters []string               `json:"discoveredCharacters"`
	DiscoveredItems      []string               `json:"discoveredItems"`
	Chapter              int                    `json:"chapter"`
	Scene                string                 `json:"scene"`
	PlaytimeMillis       int64                  `json:"playtime"`
}

// Snapshot copies the entire state for persistence.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Flags:          make(map[string]bool, len(s.flags)),
		Variables:      make(map[string]interface{}, len(s.variables)),
		Inventory:      make(map[string]int, len(s.inventory)),
		Journal:        append([]JournalEntry{}, s.journal...),
		Chapter:        s.chapter,
		Scene:          s.sceneID,
		PlaytimeMillis: s.playtime.Milliseconds(),
	}
	for k, v := range s.flags {
		snap.Flags[k] = v
	}
	for k, v := range s.variables {
		snap.Variables[k] = v
	}
	for k, v := range s.inventory {
		snap.Inventory[k] = v
	}
	snap.DiscoveredCharacters = sortedKeys(s.discoveredCharacters)
	snap.DiscoveredItems = sortedKeys(s.discoveredItems)
	return snap
}

// Restore replaces the entire state with a snapshot. No mutation signals
// are emitted; loading is not play.
func (s *State) Restore(snap Snapshot) {
	s.flags = make(map[string]bool, len(snap.Flags))
	for k, v := range snap.Flags {
		s.flags[k] = v
	}
	s.variables = make(map[string]interface{}, len(snap.Variables))
	for k, v := range snap.Variables {
		s.variables[k] = v
	}
	s.inventory = make(map[string]int, len(snap.Inventory))
	for k, v := range snap.Inventory {
		if v > 0 {
			s.inventory[k] = v
		}
	}
	s.journal = append([]JournalEntry{}, snap.Journal...)
	s.discoveredCharacters = make(map[string]struct{}, len(snap.DiscoveredCharacters))
	for _, id := range snap.DiscoveredCharacters {
		s.discoveredCharacters[id] = struct{}{}
	}
	s.discoveredItems = make(map[string]struct{}, len(snap.DiscoveredItems))
	for _, id := range snap.DiscoveredItems {
		s.discoveredItems[id] = struct{}{}
	}
	s.chapter = snap.Chapter
	s.sceneID = snap.Scene
	s.playtime = time.Duration(snap.PlaytimeMillis) * time.Millisecond
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
