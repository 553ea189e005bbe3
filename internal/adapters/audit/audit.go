// Package audit defines the append-only audit sink consumed by every
// mutating shield and admin operation.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one immutable audit record.
type Entry struct {
	ID       string
	Action   string
	PlayerID string
	GameID   string
	ActorID  string
	Reason   string
	Before   int
	After    int
	At       time.Time
}

// Sink receives audit entries. Implementations must never mutate or drop
// accepted entries.
type Sink interface {
	Record(ctx context.Context, e Entry) error
}

// NewEntry stamps an entry with a fresh id and timestamp.
func NewEntry(action, playerID, gameID, actorID, reason string, before, after int) Entry {
	return Entry{
		ID:       uuid.NewString(),
		Action:   action,
		PlayerID: playerID,
		GameID:   gameID,
		ActorID:  actorID,
		Reason:   reason,
		Before:   before,
		After:    after,
		At:       time.Now().UTC(),
	}
}

// MemorySink is an in-process, append-only Sink.
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemorySink creates an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record appends the entry.
func (s *MemorySink) Record(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

// Entries returns a copy of the log.
func (s *MemorySink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
