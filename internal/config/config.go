package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// GameConfig is the top-level game.yaml configuration.
type GameConfig struct {
	Version int `yaml:"version"`
	Game    struct {
		ID          string `yaml:"id"`
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
	} `yaml:"game"`
	Content struct {
		Chapters string `yaml:"chapters"`
		Puzzles  string `yaml:"puzzles"`
	} `yaml:"content"`
	Network struct {
		UIPort   int `yaml:"ui_port"`
		MQTTPort int `yaml:"mqtt_port"`
	} `yaml:"network"`
	Saves struct {
		Path string `yaml:"path"`
	} `yaml:"saves"`
	Kiosk KioskConfig `yaml:"kiosk"`
}

// KioskConfig configures the optional MQTT input bridge. Each binding maps
// a broker topic to one of the engine's input signals.
type KioskConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Bindings []KioskBinding `yaml:"bindings"`
}

// KioskBinding maps an MQTT topic to an input signal name.
type KioskBinding struct {
	Topic  string `yaml:"topic"`
	Signal string `yaml:"signal"`
}

// UIPort returns the configured UI port, defaulting to 8080 if not set.
func (c *GameConfig) UIPort() int {
	if c.Network.UIPort == 0 {
		return 8080
	}
	return c.Network.UIPort
}

// ChaptersPath returns the chapter definitions path, defaulting to
// content/chapters.json.
func (c *GameConfig) ChaptersPath() string {
	if c.Content.Chapters == "" {
		return "content/chapters.json"
	}
	return c.Content.Chapters
}

// PuzzlesPath returns the puzzle definitions path, defaulting to
// content/puzzles.json.
func (c *GameConfig) PuzzlesPath() string {
	if c.Content.Puzzles == "" {
		return "content/puzzles.json"
	}
	return c.Content.Puzzles
}

// SavesPath returns the save database path, defaulting to saves.db.
func (c *GameConfig) SavesPath() string {
	if c.Saves.Path == "" {
		return "saves.db"
	}
	return c.Saves.Path
}

// LoadGameConfig reads and validates game.yaml.
func LoadGameConfig(path string) (*GameConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg GameConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported game.yaml version: %d", cfg.Version)
	}

	return &cfg, nil
}
