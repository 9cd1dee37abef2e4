// Package events carries every signal the narrative and puzzle cores emit.
// A Bus is constructed once at startup and handed to each component; there
// is no ambient global emitter. Signals fan out synchronously to the ring
// buffer and to subscriber channels, and optionally append-through to a
// journal for post-session review.
package events

import (
	"sync"
	"time"
)

// Event is one emitted signal.
type Event struct {
	Timestamp string                 `json:"ts"`
	Level     string                 `json:"level"`
	Name      string                 `json:"signal"`
	Message   string                 `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Journal persists emitted events. Implemented by storage/postgres.
type Journal interface {
	Append(ts time.Time, level, signal, msg string, fields map[string]interface{}, sessionID string) error
}

// Subscriber receives a copy of every event emitted after Subscribe.
type Subscriber chan Event

// Bus collects, buffers, and fans out events.
type Bus struct {
	buffer *RingBuffer

	mu          sync.RWMutex
	subscribers map[Subscriber]struct{}
	journal     Journal
	journalErr  bool
	sessionID   string
}

// NewBus creates a bus with a ring buffer of the given size.
func NewBus(bufferSize int) *Bus {
	return &Bus{
		buffer:      NewRingBuffer(bufferSize),
		subscribers: make(map[Subscriber]struct{}),
	}
}

// SetJournal attaches an event journal. A nil journal disables persistence.
func (b *Bus) SetJournal(j Journal) {
	b.mu.Lock()
	b.journal = j
	b.journalErr = false
	b.mu.Unlock()
}

// SetSessionID tags subsequent journal appends with the play-session ID.
func (b *Bus) SetSessionID(id string) {
	b.mu.Lock()
	b.sessionID = id
	b.mu.Unlock()
}

// Emit validates and publishes an event. Invalid signal names are returned
// as errors so producer typos surface in tests.
func (b *Bus) Emit(level, signal, msg string, fields map[string]interface{}) error {
	if err := Validate(signal); err != nil {
		return err
	}

	ts := time.Now().UTC()
	e := Event{
		Timestamp: ts.Format(time.RFC3339Nano),
		Level:     level,
		Name:      signal,
		Message:   msg,
		Fields:    fields,
	}

	b.buffer.Add(e)
	b.appendJournal(ts, e)
	b.broadcast(e)
	return nil
}

// appendJournal persists the event if a journal is attached. A failing
// journal is reported once to the ring buffer and then stays quiet so a
// down database does not flood the event stream.
func (b *Bus) appendJournal(ts time.Time, e Event) {
	b.mu.RLock()
	journal := b.journal
	errLogged := b.journalErr
	session := b.sessionID
	b.mu.RUnlock()

	if journal == nil {
		return
	}

	if err := journal.Append(ts, e.Level, e.Name, e.Message, e.Fields, session); err != nil && !errLogged {
		b.mu.Lock()
		b.journalErr = true
		b.mu.Unlock()
		// Add directly to the buffer, not through Emit, so a persistently
		// failing journal cannot recurse.
		b.buffer.Add(Event{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Level:     "error",
			Name:      "system.error",
			Message:   "event journal append failed",
			Fields:    map[string]interface{}{"error": err.Error()},
		})
	}
}

// Subscribe adds a subscriber and returns its channel. The channel is
// buffered so a slow consumer cannot block Emit.
func (b *Bus) Subscribe() Subscriber {
	ch := make(Subscriber, 64)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	delete(b.subscribers, sub)
	b.mu.Unlock()
	close(sub)
}

// broadcast sends an event to all subscribers. Non-blocking: if a
// subscriber's buffer is full the event is dropped for that subscriber.
func (b *Bus) broadcast(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- e:
		default:
		}
	}
}

// SubscriberCount returns the current number of subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Snapshot returns the buffered events in chronological order.
func (b *Bus) Snapshot() []Event {
	return b.buffer.Snapshot()
}

// Recent returns the last n buffered events. If n exceeds what is
// buffered, everything available is returned.
func (b *Bus) Recent(n int) []Event {
	all := b.buffer.Snapshot()
	if n <= 0 || n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

// Clear resets the ring buffer. Used by tests.
func (b *Bus) Clear() {
	b.buffer.Clear()
}
