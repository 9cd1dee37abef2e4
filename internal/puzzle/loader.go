package puzzle

import (
	"encoding/json"
	"fmt"
	"os"
)

// definitionsFile is the persisted puzzle collection format.
type definitionsFile struct {
	Version int           `json:"version"`
	Puzzles []*Definition `json:"puzzles"`
}

// LoadDefinitions loads puzzle definitions from a JSON file into an
// id-keyed map. Definitions are read once at startup and never mutated.
func LoadDefinitions(path string) (map[string]*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read puzzle definitions: %w", err)
	}

	var file definitionsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse puzzle definitions JSON: %w", err)
	}

	if file.Version != 1 {
		return nil, fmt.Errorf("unsupported puzzle definitions version: %d", file.Version)
	}

	defs := make(map[string]*Definition, len(file.Puzzles))
	for _, def := range file.Puzzles {
		if def.ID == "" {
			return nil, fmt.Errorf("puzzle definition missing id")
		}
		if _, dup := defs[def.ID]; dup {
			return nil, fmt.Errorf("duplicate puzzle id: %s", def.ID)
		}
		defs[def.ID] = def
	}

	return defs, nil
}
