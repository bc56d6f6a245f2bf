package journal

import (
	"context"
	"sync"

	"github.com/atmx/clicker-engine/internal/model"
)

// MemoryJournal implements Journal with a slice. Used for testing and when
// no database is configured.
type MemoryJournal struct {
	mu      sync.RWMutex
	entries []model.Transaction
	ids     map[string]bool
}

// NewMemoryJournal creates an empty in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{ids: make(map[string]bool)}
}

func (j *MemoryJournal) Append(_ context.Context, entries ...model.Transaction) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, e := range entries {
		if j.ids[e.ID] {
			continue
		}
		j.ids[e.ID] = true
		j.entries = append(j.entries, e)
	}
	return nil
}

func (j *MemoryJournal) Recent(_ context.Context, limit int) ([]model.Transaction, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	n := len(j.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.Transaction, 0, n)
	for i := len(j.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, j.entries[i])
	}
	return out, nil
}

// Len returns the number of stored entries.
func (j *MemoryJournal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}
