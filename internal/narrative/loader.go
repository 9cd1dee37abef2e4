package narrative

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// chaptersFile is the persisted chapter collection format.
type chaptersFile struct {
	Version  int       `json:"version"`
	Chapters []Chapter `json:"chapters"`
}

// LoadChapters loads chapter definitions from a JSON file, ordered by
// chapter number. Chapters are read once at startup and never mutated.
func LoadChapters(path string) ([]Chapter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chapter definitions: %w", err)
	}

	var file chaptersFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse chapter definitions JSON: %w", err)
	}

	if file.Version != 1 {
		return nil, fmt.Errorf("unsupported chapter definitions version: %d", file.Version)
	}
	if len(file.Chapters) == 0 {
		return nil, fmt.Errorf("no chapters defined")
	}

	seen := make(map[string]struct{}, len(file.Chapters))
	for _, ch := range file.Chapters {
		if ch.ID == "" {
			return nil, fmt.Errorf("chapter missing id")
		}
		if _, dup := seen[ch.ID]; dup {
			return nil, fmt.Errorf("duplicate chapter id: %s", ch.ID)
		}
		seen[ch.ID] = struct{}{}
		if len(ch.Scenes) == 0 {
			return nil, fmt.Errorf("chapter %s has no scenes", ch.ID)
		}
	}

	sort.SliceStable(file.Chapters, func(i, j int) bool {
		return file.Chapters[i].Number < file.Chapters[j].Number
	})

	return file.Chapters, nil
}
