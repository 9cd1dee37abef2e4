// Package saves persists game snapshots to a local SQLite database. Slot
// 0 is the autosave; slots 1 through 10 are manual.
package saves

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lanternworks/storyloom/internal/game"
)

// Slot bounds. Slot 0 is reserved for the autosave.
const (
	AutosaveSlot = 0
	MaxSlot      = 10
)

// ErrNoSave is returned when a slot holds no save.
var ErrNoSave = errors.New("no save in slot")

// Preview is the display summary shown on the load screen, built at save
// time so listing slots never needs the full snapshot.
type Preview struct {
	ChapterTitle string `json:"chapterTitle"`
	ChapterText  string `json:"chapterText"`
	DateText     string `json:"dateText"`
	PlaytimeText string `json:"playtimeText"`
}

// Record is one stored save.
type Record struct {
	Slot      int           `json:"slot"`
	Chapter   int           `json:"chapter"`
	Scene     string        `json:"scene"`
	Playtime  int64         `json:"playtime"` // milliseconds
	Timestamp time.Time     `json:"timestamp"`
	Preview   Preview       `json:"preview"`
	State     game.Snapshot `json:"state"`
}

// Store owns the saves database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the saves database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open saves db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping saves db: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create saves table: %w", err)
	}
	return s, nil
}

func (s *Store) createTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS saves (
			slot      INTEGER PRIMARY KEY,
			chapter   INTEGER NOT NULL,
			scene     TEXT NOT NULL,
			playtime  INTEGER NOT NULL,
			ts        TEXT NOT NULL,
			preview   TEXT NOT NULL,
			state     TEXT NOT NULL
		);
	`
	_, err := s.db.Exec(query)
	return err
}

func validSlot(slot int) error {
	if slot < AutosaveSlot || slot > MaxSlot {
		return fmt.Errorf("save slot %d out of range 0..%d", slot, MaxSlot)
	}
	return nil
}

// Write stores a record in its slot, replacing any previous save there.
func (s *Store) Write(rec Record) error {
	if err := validSlot(rec.Slot); err != nil {
		return err
	}

	stateJSON, err := json.Marshal(rec.State)
	if err != nil {
		return fmt.Errorf("failed to marshal save state: %w", err)
	}
	previewJSON, err := json.Marshal(rec.Preview)
	if err != nil {
		return fmt.Errorf("failed to marshal save preview: %w", err)
	}

	query := `
		INSERT INTO saves (slot, chapter, scene, playtime, ts, preview, state)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			chapter = excluded.chapter,
			scene = excluded.scene,
			playtime = excluded.playtime,
			ts = excluded.ts,
			preview = excluded.preview,
			state = excluded.state
	`
	_, err = s.db.Exec(query, rec.Slot, rec.Chapter, rec.Scene, rec.Playtime,
		rec.Timestamp.UTC().Format(time.RFC3339Nano), previewJSON, stateJSON)
	return err
}

// Read loads the record in a slot. ErrNoSave if the slot is empty.
func (s *Store) Read(slot int) (Record, error) {
	var rec Record
	if err := validSlot(slot); err != nil {
		return rec, err
	}

	query := `
		SELECT slot, chapter, scene, playtime, ts, preview, state
		FROM saves WHERE slot = ?
	`
	var ts string
	var previewJSON, stateJSON []byte
	err := s.db.QueryRow(query, slot).Scan(
		&rec.Slot, &rec.Chapter, &rec.Scene, &rec.Playtime, &ts, &previewJSON, &stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, ErrNoSave
	}
	if err != nil {
		return rec, err
	}

	rec.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return rec, fmt.Errorf("corrupt save timestamp in slot %d: %w", slot, err)
	}
	if err := json.Unmarshal(previewJSON, &rec.Preview); err != nil {
		return rec, fmt.Errorf("corrupt save preview in slot %d: %w", slot, err)
	}
	if err := json.Unmarshal(stateJSON, &rec.State); err != nil {
		return rec, fmt.Errorf("corrupt save state in slot %d: %w", slot, err)
	}
	return rec, nil
}

// List returns the slot summaries of every occupied slot in slot order.
// Snapshots are not loaded.
func (s *Store) List() ([]Record, error) {
	query := `
		SELECT slot, chapter, scene, playtime, ts, preview
		FROM saves ORDER BY slot
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		var ts string
		var previewJSON []byte
		if err := rows.Scan(&rec.Slot, &rec.Chapter, &rec.Scene, &rec.Playtime, &ts, &previewJSON); err != nil {
			return nil, err
		}
		rec.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("corrupt save timestamp in slot %d: %w", rec.Slot, err)
		}
		if err := json.Unmarshal(previewJSON, &rec.Preview); err != nil {
			return nil, fmt.Errorf("corrupt save preview in slot %d: %w", rec.Slot, err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Delete clears a slot. Deleting an empty slot is not an error.
func (s *Store) Delete(slot int) error {
	if err := validSlot(slot); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM saves WHERE slot = ?`, slot)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// FormatPlaytime renders a playtime duration for previews, hh:mm:ss.
func FormatPlaytime(d time.Duration) string {
	total := int64(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}
