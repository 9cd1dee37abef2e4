package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lanternworks/storyloom/internal/api"
	"github.com/lanternworks/storyloom/internal/config"
	"github.com/lanternworks/storyloom/internal/engine"
	"github.com/lanternworks/storyloom/internal/events"
	"github.com/lanternworks/storyloom/internal/game"
	"github.com/lanternworks/storyloom/internal/mqtt"
	"github.com/lanternworks/storyloom/internal/narrative"
	"github.com/lanternworks/storyloom/internal/puzzle"
	"github.com/lanternworks/storyloom/internal/storage/postgres"
	"github.com/lanternworks/storyloom/internal/storage/saves"
	"github.com/lanternworks/storyloom/internal/version"
)

const tickInterval = 50 * time.Millisecond

type LogLine struct {
	Timestamp string                 `json:"ts"`
	Level     string                 `json:"level"`
	Event     string                 `json:"event"`
	Message   string                 `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func logEvent(level, event, msg string, fields map[string]interface{}) {
	line := LogLine{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Event:     event,
		Message:   msg,
		Fields:    fields,
	}
	b, _ := json.Marshal(line)
	fmt.Println(string(b))
}

func main() {
	configPath := flag.String("config", "game.yaml", "path to game.yaml")
	flag.Parse()

	_ = godotenv.Load()

	hostname, _ := os.Hostname()
	logEvent("info", "system.startup", "storyloom starting", map[string]interface{}{
		"service":  "storyloom",
		"version":  version.Version,
		"hostname": hostname,
		"pid":      os.Getpid(),
	})

	cfg, err := config.LoadGameConfig(*configPath)
	if err != nil {
		logEvent("error", "system.error", "failed to load config", map[string]interface{}{
			"path":  *configPath,
			"error": err.Error(),
		})
		os.Exit(1)
	}

	chapters, err := narrative.LoadChapters(cfg.ChaptersPath())
	if err != nil {
		logEvent("error", "system.error", "failed to load chapters", map[string]interface{}{
			"path":  cfg.ChaptersPath(),
			"error": err.Error(),
		})
		os.Exit(1)
	}

	definitions, err := puzzle.LoadDefinitions(cfg.PuzzlesPath())
	if err != nil {
		logEvent("error", "system.error", "failed to load puzzles", map[string]interface{}{
			"path":  cfg.PuzzlesPath(),
			"error": err.Error(),
		})
		os.Exit(1)
	}

	bus := events.NewBus(1000)

	// The Postgres journal is optional; run without it when unreachable.
	if journal, err := postgres.New(cfg.Game.ID); err != nil {
		logEvent("warning", "system.warning", "event journal unavailable", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		bus.SetJournal(journal)
		defer journal.Close()
	}

	store, err := saves.Open(cfg.SavesPath())
	if err != nil {
		logEvent("error", "system.error", "failed to open saves db", map[string]interface{}{
			"path":  cfg.SavesPath(),
			"error": err.Error(),
		})
		os.Exit(1)
	}
	defer store.Close()

	state := game.NewState(bus)
	factory := puzzle.NewFactory(bus, state, rand.New(rand.NewSource(time.Now().UnixNano())))
	factory.SetDefinitions(definitions)
	director := narrative.NewDirector(bus, state, factory, chapters)
	eng := engine.New(bus, state, factory, director, store, cfg.Game.Title)

	server, err := api.NewServer(eng, bus)
	if err != nil {
		logEvent("error", "system.error", "failed to init api server", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	server.Start(cfg.UIPort())

	if cfg.Kiosk.Enabled {
		client := mqtt.NewClient("storyloom-" + cfg.Game.ID)
		if client.StartWithRetry() {
			bridge := mqtt.NewBridge(bus, eng)
			bridge.Start(client, cfg.Kiosk.Bindings)
			defer client.Disconnect()
		}
	}

	eng.StartGame(time.Now())

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case now := <-ticker.C:
			eng.Tick(now)
		case sig := <-sigCh:
			bus.Emit("info", "system.shutdown", "", map[string]interface{}{
				"signal": sig.String(),
			})
			logEvent("info", "system.shutdown", "storyloom stopping", map[string]interface{}{
				"signal": sig.String(),
			})
			return
		}
	}
}
