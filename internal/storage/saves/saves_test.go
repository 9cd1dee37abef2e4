package saves

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/lanternworks/storyloom/internal/game"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "saves.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord(slot int) Record {
	return Record{
		Slot:      slot,
		Chapter:   2,
		Scene:     "attic",
		Playtime:  754000,
		Timestamp: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Preview: Preview{
			ChapterTitle: "The Attic",
			ChapterText:  "Chapter 2",
			DateText:     "Mar 14, 2026",
			PlaytimeText: "00:12:34",
		},
		State: game.Snapshot{
			Flags:          map[string]bool{"lantern_lit": true},
			Variables:      map[string]interface{}{"score": float64(85)},
			Inventory:      map[string]int{"coin": 3},
			Chapter:        2,
			Scene:          "attic",
			PlaytimeMillis: 754000,
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := openStore(t)

	if err := s.Write(sampleRecord(3)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := s.Read(3)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Chapter != 2 || got.Scene != "attic" || got.Playtime != 754000 {
		t.Errorf("summary fields = %d %q %d", got.Chapter, got.Scene, got.Playtime)
	}
	if !got.State.Flags["lantern_lit"] {
		t.Error("snapshot flag lost")
	}
	if got.State.Inventory["coin"] != 3 {
		t.Errorf("inventory coin = %d, want 3", got.State.Inventory["coin"])
	}
	if got.Preview.ChapterTitle != "The Attic" {
		t.Errorf("preview title = %q", got.Preview.ChapterTitle)
	}
	if !got.Timestamp.Equal(time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)) {
		t.Errorf("timestamp = %v", got.Timestamp)
	}
}

func TestReadEmptySlot(t *testing.T) {
	s := openStore(t)
	_, err := s.Read(5)
	if !errors.Is(err, ErrNoSave) {
		t.Fatalf("Read empty slot: err = %v, want ErrNoSave", err)
	}
}

func TestWriteOverwritesSlot(t *testing.T) {
	s := openStore(t)

	first := sampleRecord(1)
	if err := s.Write(first); err != nil {
		t.Fatalf("Write: %v", err)
	}
	second := sampleRecord(1)
	second.Scene = "cellar"
	second.Playtime = 900000
	if err := s.Write(second); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err := s.Read(1)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Scene != "cellar" || got.Playtime != 900000 {
		t.Errorf("overwrite not applied: %q %d", got.Scene, got.Playtime)
	}
}

func TestSlotBounds(t *testing.T) {
	s := openStore(t)

	if err := s.Write(sampleRecord(11)); err == nil {
		t.Error("slot 11 accepted")
	}
	if err := s.Write(sampleRecord(-1)); err == nil {
		t.Error("slot -1 accepted")
	}
	if err := s.Write(sampleRecord(AutosaveSlot)); err != nil {
		t.Errorf("autosave slot rejected: %v", err)
	}
	if err := s.Write(sampleRecord(MaxSlot)); err != nil {
		t.Errorf("slot %d rejected: %v", MaxSlot, err)
	}
}

func TestListReturnsSummariesInSlotOrder(t *testing.T) {
	s := openStore(t)

	for _, slot := range []int{7, 0, 3} {
		if err := s.Write(sampleRecord(slot)); err != nil {
			t.Fatalf("Write slot %d: %v", slot, err)
		}
	}

	recs, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len = %d, want 3", len(recs))
	}
	for i, want := range []int{0, 3, 7} {
		if recs[i].Slot != want {
			t.Errorf("recs[%d].Slot = %d, want %d", i, recs[i].Slot, want)
		}
	}
	if recs[0].State.Flags != nil {
		t.Error("List loaded full snapshots")
	}
	if recs[0].Preview.PlaytimeText == "" {
		t.Error("List dropped previews")
	}
}

func TestDelete(t *testing.T) {
	s := openStore(t)

	if err := s.Write(sampleRecord(2)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Delete(2); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read(2); !errors.Is(err, ErrNoSave) {
		t.Errorf("Read after delete: err = %v, want ErrNoSave", err)
	}
	if err := s.Delete(2); err != nil {
		t.Errorf("Delete empty slot: %v", err)
	}
}

func TestReadCorruptedState(t *testing.T) {
	s := openStore(t)

	if err := s.Write(sampleRecord(6)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := s.db.Exec(`UPDATE saves SET state = '{"flags": [' WHERE slot = 6`); err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	if _, err := s.Read(6); err == nil {
		t.Fatal("Read of corrupted state succeeded")
	} else if errors.Is(err, ErrNoSave) {
		t.Fatal("corruption reported as missing save")
	}
}

func TestFormatPlaytime(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{61 * time.Second, "00:01:01"},
		{(2*3600 + 34*60 + 5) * time.Second, "02:34:05"},
	}
	for _, c := range cases {
		if got := FormatPlaytime(c.d); got != c.want {
			t.Errorf("FormatPlaytime(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}
