package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/atmx/clicker-engine/internal/game"
	"github.com/atmx/clicker-engine/internal/model"
)

// DefaultQueueSize bounds the number of batches waiting to be written.
const DefaultQueueSize = 1024

const flushTimeout = 5 * time.Second

// Sink is a store hook that forwards new ledger entries to a Journal. The
// hook only enqueues; Run does the writing, so a slow database never holds
// up Dispatch. When the queue is full the batch is dropped with a warning.
type Sink struct {
	journal Journal
	queue   chan []model.Transaction
	logger  *slog.Logger

	// OnDrop, if set, is called with the number of entries dropped.
	OnDrop func(n int)
	// OnError, if set, is called when an append fails.
	OnError func(err error)
}

// NewSink creates a sink. A queueSize <= 0 means DefaultQueueSize.
func NewSink(j Journal, queueSize int, logger *slog.Logger) *Sink {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{
		journal: j,
		queue:   make(chan []model.Transaction, queueSize),
		logger:  logger,
	}
}

// OnCommit enqueues the entries added by the committed intent.
func (s *Sink) OnCommit(sig game.Signal) {
	entries := sig.State.Ledger.Since(sig.Prev.Ledger)
	if len(entries) == 0 {
		return
	}
	select {
	case s.queue <- entries:
	default:
		s.logger.Warn("journal queue full, dropping entries",
			"count", len(entries),
			"version", sig.Version,
		)
		if s.OnDrop != nil {
			s.OnDrop(len(entries))
		}
	}
}

// Run writes queued entries until ctx is done, then flushes whatever is
// still queued.
func (s *Sink) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.flush()
			return
		case batch := <-s.queue:
			s.write(ctx, batch)
		}
	}
}

func (s *Sink) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	for {
		select {
		case batch := <-s.queue:
			s.write(ctx, batch)
		default:
			return
		}
	}
}

func (s *Sink) write(ctx context.Context, batch []model.Transaction) {
	if err := s.journal.Append(ctx, batch...); err != nil {
		s.logger.Error("journal append failed",
			"count", len(batch),
			"first_id", batch[0].ID,
			"error", err,
		)
		if s.OnError != nil {
			s.OnError(err)
		}
	}
}
