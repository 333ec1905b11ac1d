package memory

import (
	"context"
	"sync"

	"ludendorff/internal/audit"
)

// InMemoryStore keeps log entries in append order. Used by unit tests and
// as the log sink for feed-less dev runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []audit.LogEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry audit.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// List returns all entries in append order.
func (s *InMemoryStore) List(_ context.Context) ([]audit.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.LogEntry{}, s.entries...), nil
}

// ListByIdentifier returns entries whose identifier matches.
func (s *InMemoryStore) ListByIdentifier(_ context.Context, identifier string) ([]audit.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.LogEntry
	for _, e := range s.entries {
		if e.Identifier == identifier {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}
