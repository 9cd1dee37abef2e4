package events

import (
	"errors"
	"testing"
	"time"
)

func TestEmitRejectsUnknownSignal(t *testing.T) {
	bus := NewBus(16)

	if err := bus.Emit("info", "no.such.signal", "", nil); err == nil {
		t.Error("expected error for unknown signal name")
	}

	if got := len(bus.Snapshot()); got != 0 {
		t.Errorf("expected empty buffer after rejected emit, got %d events", got)
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	bus := NewBus(16)

	sub1 := bus.Subscribe()
	if bus.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", bus.SubscriberCount())
	}

	sub2 := bus.Subscribe()
	if bus.SubscriberCount() != 2 {
		t.Errorf("expected 2 subscribers, got %d", bus.SubscriberCount())
	}

	bus.Unsubscribe(sub1)
	if bus.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber after unsubscribe, got %d", bus.SubscriberCount())
	}

	bus.Unsubscribe(sub2)
	if bus.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after all unsubscribed, got %d", bus.SubscriberCount())
	}
}

func TestBroadcastToSubscribers(t *testing.T) {
	bus := NewBus(16)
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	if err := bus.Emit("info", "puzzle.started", "test", map[string]interface{}{"puzzle_id": "gearbox"}); err != nil {
		t.Fatalf("emit failed: %v", err)
	}

	select {
	case e := <-sub:
		if e.Name != "puzzle.started" {
			t.Errorf("expected signal 'puzzle.started', got '%s'", e.Name)
		}
		if e.Fields["puzzle_id"] != "gearbox" {
			t.Errorf("expected puzzle_id 'gearbox', got '%v'", e.Fields["puzzle_id"])
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for broadcast event")
	}
}

func TestRecentEvents(t *testing.T) {
	bus := NewBus(64)

	for i := 0; i < 10; i++ {
		bus.Emit("info", "dialogue.line", "", map[string]interface{}{"i": i})
	}

	recent := bus.Recent(5)
	if len(recent) != 5 {
		t.Fatalf("expected 5 recent events, got %d", len(recent))
	}
	if recent[0].Fields["i"] != 5 {
		t.Errorf("expected first recent event i=5, got %v", recent[0].Fields["i"])
	}

	all := bus.Recent(100)
	if len(all) != 10 {
		t.Errorf("expected 10 events when requesting 100, got %d", len(all))
	}
}

func TestRingBufferWraps(t *testing.T) {
	bus := NewBus(8)

	for i := 0; i < 12; i++ {
		bus.Emit("info", "flag.set", "", map[string]interface{}{"i": i})
	}

	snap := bus.Snapshot()
	if len(snap) != 8 {
		t.Fatalf("expected 8 buffered events, got %d", len(snap))
	}
	if snap[0].Fields["i"] != 4 {
		t.Errorf("expected oldest buffered event i=4, got %v", snap[0].Fields["i"])
	}
	if snap[7].Fields["i"] != 11 {
		t.Errorf("expected newest buffered event i=11, got %v", snap[7].Fields["i"])
	}
}

type failingJournal struct {
	calls int
}

func (j *failingJournal) Append(ts time.Time, level, signal, msg string, fields map[string]interface{}, sessionID string) error {
	j.calls++
	return errors.New("connection refused")
}

func TestJournalFailureReportedOnce(t *testing.T) {
	bus := NewBus(32)
	journal := &failingJournal{}
	bus.SetJournal(journal)

	bus.Emit("info", "scene.started", "", nil)
	bus.Emit("info", "scene.ended", "", nil)

	if journal.calls != 2 {
		t.Errorf("expected 2 journal attempts, got %d", journal.calls)
	}

	errCount := 0
	for _, e := range bus.Snapshot() {
		if e.Name == "system.error" {
			errCount++
		}
	}
	if errCount != 1 {
		t.Errorf("expected exactly 1 system.error for failing journal, got %d", errCount)
	}
}
