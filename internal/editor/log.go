package editor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EntryType tags a log entry.
type EntryType string

const (
	EntryCall   EntryType = "call"
	EntryReturn EntryType = "return"
	EntryError  EntryType = "error"
)

// Entry is one line of the observability log.
type Entry struct {
	ID      uuid.UUID `json:"id"`
	Time    time.Time `json:"time"`
	Type    EntryType `json:"type"`
	Message string    `json:"message"`
	Data    []any     `json:"data,omitempty"`
}

// Log is the session's append-only observability log. Entries are never
// rewritten; Clear starts a new empty log for the same session.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	nextID  int
	subs    map[int]chan Entry
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{subs: make(map[int]chan Entry)}
}

// Append records an entry and fans it out to subscribers.
func (l *Log) Append(kind EntryType, message string, data []any) Entry {
	entry := Entry{
		ID:      uuid.New(),
		Time:    time.Now().UTC(),
		Type:    kind,
		Message: message,
		Data:    data,
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	for _, ch := range l.subs {
		// A stalled subscriber loses entries rather than blocking the
		// render path.
		select {
		case ch <- entry:
		default:
		}
	}
	l.mu.Unlock()
	return entry
}

// Entries returns a copy of all entries in append order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear drops all entries. Subscriptions survive.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// Subscribe returns a feed of entries appended after this call. The feed
// closes when ctx is cancelled.
func (l *Log) Subscribe(ctx context.Context) <-chan Entry {
	ch := make(chan Entry, 64)

	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = ch
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
		close(ch)
	}()
	return ch
}
