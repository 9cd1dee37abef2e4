// Package narrative interprets chapter/scene content: an ordered command
// list per scene, sequenced cooperatively against the game state's
// condition evaluator, with branching through choices and jumps.
package narrative

import (
	"github.com/lanternworks/storyloom/internal/game"
)

// Content command types.
const (
	CmdDialogue    = "dialogue"
	CmdNarration   = "narration"
	CmdChoice      = "choice"
	CmdAction      = "action"
	CmdWait        = "wait"
	CmdPuzzle      = "puzzle"
	CmdSetFlag     = "set_flag"
	CmdSetVariable = "set_variable"
	CmdAddItem     = "add_item"
	CmdRemoveItem  = "remove_item"
	CmdJournal     = "journal"
	CmdLabel       = "label"
	CmdJump        = "jump"
)

// Chapter is a loaded chapter definition. Read-only during play.
type Chapter struct {
	ID          string  `json:"id"`
	Number      int     `json:"number"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Scenes      []Scene `json:"scenes"`
}

// Scene is an ordered command list plus presentation hints the UI and
// audio collaborators consume.
type Scene struct {
	ID         string    `json:"id"`
	Background string    `json:"background,omitempty"`
	Music      string    `json:"music,omitempty"`
	Ambience   string    `json:"ambience,omitempty"`
	Characters []string  `json:"characters,omitempty"`
	Content    []Content `json:"content"`
}

// Target names where control resumes after a jump or choice: a scene, a
// label within the current scene, or both.
type Target struct {
	Scene string `json:"scene,omitempty"`
	Label string `json:"label,omitempty"`
}

// Effect is a state mutation attached to a choice option.
type Effect struct {
	Type     string      `json:"type"` // set_flag | set_variable | add_item | remove_item
	Flag     string      `json:"flag,omitempty"`
	Variable string      `json:"variable,omitempty"`
	Value    interface{} `json:"value,omitempty"`
	Item     string      `json:"item,omitempty"`
	Count    int         `json:"count,omitempty"`
}

// ChoiceOption is one selectable option: display text, an availability
// condition checked at display time, effects, and an optional target.
type ChoiceOption struct {
	Text    string          `json:"text"`
	If      *game.Condition `json:"if,omitempty"`
	Effects []Effect        `json:"effects,omitempty"`
	Goto    *Target         `json:"goto,omitempty"`
}

// Content is one typed command in a scene's sequence. A false If skips
// the item entirely: no side effect, no advance delay.
type Content struct {
	Type string          `json:"type"`
	If   *game.Condition `json:"if,omitempty"`

	// dialogue / narration / journal
	Speaker string `json:"speaker,omitempty"`
	Text    string `json:"text,omitempty"`

	// choice
	Prompt  string         `json:"prompt,omitempty"`
	Options []ChoiceOption `json:"options,omitempty"`

	// action / wait
	Character string `json:"character,omitempty"`
	Action    string `json:"action,omitempty"`
	Duration  int    `json:"duration,omitempty"` // milliseconds

	// puzzle
	Puzzle string `json:"puzzle,omitempty"`

	// mutations
	Flag     string      `json:"flag,omitempty"`
	Variable string      `json:"variable,omitempty"`
	Value    interface{} `json:"value,omitempty"`
	Item     string      `json:"item,omitempty"`
	Count    int         `json:"count,omitempty"`

	// label / jump
	Label string  `json:"label,omitempty"`
	Goto  *Target `json:"goto,omitempty"`
}

// labelIndex finds a label's position in a scene's content, or -1.
func (s *Scene) labelIndex(label string) int {
	for i := range s.Content {
		if s.Content[i].Type == CmdLabel && s.Content[i].Label == label {
			return i
		}
	}
	return -1
}

// applyEffect runs one choice effect against the state. Unknown effect
// types are ignored; the option was already selected and play continues.
func applyEffect(state *game.State, e Effect) {
	switch e.Type {
	case CmdSetFlag, "flag":
		value := true
		if b, ok := e.Value.(bool); ok {
			value = b
		}
		state.SetFlag(e.Flag, value)
	case CmdSetVariable, "variable":
		state.SetVariable(e.Variable, e.Value)
	case CmdAddItem, "item":
		count := e.Count
		if count <= 0 {
			count = 1
		}
		state.AddItem(e.Item, count)
	case CmdRemoveItem:
		count := e.Count
		if count <= 0 {
			count = 1
		}
		state.RemoveItem(e.Item, count)
	}
}
