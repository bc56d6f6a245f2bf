package market

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/atmx/clicker-engine/internal/game"
	"github.com/atmx/clicker-engine/internal/model"
)

// DefaultInterval is the quote refresh period.
const DefaultInterval = 3 * time.Second

// Dispatcher accepts intents.
type Dispatcher interface {
	Dispatch(in game.Intent) error
}

// Feed publishes a new instrument snapshot on every cron tick. The feed
// owns the walk, so a game reset that clears the instrument table is
// repopulated on the next tick.
type Feed struct {
	store    Dispatcher
	gen      *Generator
	cron     *cron.Cron
	interval time.Duration
	logger   *slog.Logger

	mu   sync.Mutex
	last []model.Instrument
}

// NewFeed creates a feed. An interval <= 0 means DefaultInterval.
func NewFeed(store Dispatcher, gen *Generator, interval time.Duration, logger *slog.Logger) *Feed {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		store:    store,
		gen:      gen,
		cron:     cron.New(cron.WithSeconds()),
		interval: interval,
		logger:   logger,
	}
}

// Step advances the walk by one tick and dispatches the snapshot. The first
// call publishes the initial quotes.
func (f *Feed) Step() []model.Instrument {
	f.mu.Lock()
	if f.last == nil {
		f.last = f.gen.Initial()
	} else {
		f.last = f.gen.Step(f.last)
	}
	snapshot := make([]model.Instrument, len(f.last))
	copy(snapshot, f.last)
	f.mu.Unlock()

	if err := f.store.Dispatch(game.ReplaceInstrumentSnapshot{Instruments: snapshot}); err != nil {
		f.logger.Error("publish quotes failed", "error", err)
	}
	return snapshot
}

// Run publishes the initial quotes, then steps every interval until ctx is
// done.
func (f *Feed) Run(ctx context.Context) {
	f.Step()
	f.cron.Schedule(cron.Every(f.interval), cron.FuncJob(func() { f.Step() }))
	f.cron.Start()
	f.logger.Info("market feed started", "symbols", len(Listings), "interval", f.interval.String())

	<-ctx.Done()
	<-f.cron.Stop().Done()
	f.logger.Info("market feed stopped")
}
