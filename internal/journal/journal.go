// Package journal mirrors ledger entries to durable storage for audit and
// reporting. It is write-only from the game's point of view: the store never
// restores state from a journal.
//
// Implementations include PostgreSQL, SQLite, a Redis cache of recent
// entries in front of either, and in-memory (for testing).
package journal

import (
	"context"

	"github.com/atmx/clicker-engine/internal/model"
)

// Journal is an append-only record of ledger entries.
type Journal interface {
	// Append stores entries in the order given (oldest first). Entries
	// with an id that is already stored are ignored.
	Append(ctx context.Context, entries ...model.Transaction) error

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]model.Transaction, error)
}
