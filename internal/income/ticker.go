// Package income drives passive income. A Ticker keeps exactly one
// scheduled job alive while the auto level is positive; each run of the job
// dispatches one EarnFromAutoTick.
package income

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/johnsiilver/boutique"
	"github.com/robfig/cron/v3"

	"github.com/atmx/clicker-engine/internal/game"
)

// DefaultInterval is the passive income period.
const DefaultInterval = time.Second

// Store is the part of game.Store the ticker needs.
type Store interface {
	Dispatch(in game.Intent) error
	State() game.Snapshot
	Subscribe(field string) (chan boutique.Signal, boutique.CancelFunc, error)
}

// Ticker schedules auto-income ticks on a cron.
type Ticker struct {
	store    Store
	cron     *cron.Cron
	interval time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	entry     cron.EntryID
	scheduled bool
}

// NewTicker creates a ticker. An interval <= 0 means DefaultInterval.
func NewTicker(store Store, interval time.Duration, logger *slog.Logger) *Ticker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ticker{
		store:    store,
		cron:     cron.New(cron.WithSeconds()),
		interval: interval,
		logger:   logger,
	}
}

// Observe reconciles the schedule with autoLevel: a job is added when the
// level becomes positive and removed when it drops to zero. Repeated calls
// with a positive level keep the existing job.
func (t *Ticker) Observe(autoLevel int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case autoLevel > 0 && !t.scheduled:
		t.entry = t.cron.Schedule(cron.Every(t.interval), cron.FuncJob(t.Tick))
		t.scheduled = true
		t.logger.Info("auto income started", "auto_level", autoLevel, "interval", t.interval.String())
	case autoLevel <= 0 && t.scheduled:
		t.cron.Remove(t.entry)
		t.scheduled = false
		t.logger.Info("auto income stopped")
	}
}

// Scheduled reports whether a tick job is active.
func (t *Ticker) Scheduled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scheduled
}

// Tick dispatches one EarnFromAutoTick.
func (t *Ticker) Tick() {
	if err := t.store.Dispatch(game.EarnFromAutoTick{}); err != nil {
		t.logger.Error("auto tick failed", "error", err)
	}
}

// Run starts the cron and follows the store's Levels until ctx is done. It
// returns after the scheduler has stopped. Signals can be dropped while the
// ticker is busy, so each one is reconciled against the latest State.
func (t *Ticker) Run(ctx context.Context) {
	signals, cancel, err := t.store.Subscribe(game.FieldLevels)
	if err != nil {
		t.logger.Error("subscribe to levels failed", "error", err)
		return
	}
	defer cancel()

	t.Observe(t.store.State().State.Levels.Auto)
	t.cron.Start()
	defer func() { <-t.cron.Stop().Done() }()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-signals:
			if !ok {
				return
			}
			t.Observe(t.store.State().State.Levels.Auto)
		}
	}
}
