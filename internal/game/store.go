package game

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/johnsiilver/boutique"

	"github.com/atmx/clicker-engine/internal/model"
)

// Fields of model.GameState that can be passed to Subscribe.
const (
	FieldAccount     = "Account"
	FieldLevels      = "Levels"
	FieldInstruments = "Instruments"
	FieldPortfolio   = "Portfolio"
	FieldCart        = "Cart"
	FieldLedger      = "Ledger"
)

// actIntent is the only boutique action type; its Update is a *pending.
const actIntent = iota

// Snapshot is a versioned, read-only view of the store's state. Callers must
// not mutate the maps or slices reachable from State.
type Snapshot struct {
	Version uint64
	State   model.GameState
}

// Signal describes one accepted intent.
type Signal struct {
	// Version is the store version after the intent was applied.
	Version uint64
	// Intent is the intent that produced State.
	Intent Intent
	// Prev is the state before the intent.
	Prev model.GameState
	// State is the committed state.
	State model.GameState
}

// Hook observes every accepted intent synchronously, in dispatch order.
// Hooks run while the store holds its dispatch lock, so they must not block
// or call Dispatch.
type Hook interface {
	OnCommit(sig Signal)
}

// RejectHook is optionally implemented by a Hook that wants to see rejected
// intents too.
type RejectHook interface {
	OnReject(in Intent, err error)
}

// HookFunc adapts a function to Hook.
type HookFunc func(sig Signal)

func (f HookFunc) OnCommit(sig Signal) { f(sig) }

// pending carries an intent through the boutique modifier and middleware.
type pending struct {
	intent Intent
	err    error
}

// Store owns the authoritative GameState inside a boutique.Store. Dispatch
// is serialized; State and Subscribe are safe for any number of readers.
type Store struct {
	reducer *Reducer
	logger  *slog.Logger
	bs      *boutique.Store

	// mu serializes Dispatch and protects hooks.
	mu    sync.Mutex
	hooks []Hook
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store's logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithHooks registers commit hooks at construction.
func WithHooks(hooks ...Hook) StoreOption {
	return func(s *Store) { s.hooks = append(s.hooks, hooks...) }
}

// NewStore creates a store holding initial.
func NewStore(r *Reducer, initial model.GameState, opts ...StoreOption) *Store {
	s := &Store{
		reducer: r,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	bs, err := boutique.New(initial, boutique.NewModifiers(s.modify), []boutique.Middleware{s.rejectMW})
	if err != nil {
		// Only reachable if model.GameState stops being a struct.
		panic(fmt.Sprintf("game: boutique store: %v", err))
	}
	s.bs = bs
	return s
}

// modify is the store's single boutique.Modifier.
func (s *Store) modify(state interface{}, action boutique.Action) interface{} {
	p, ok := action.Update.(*pending)
	if action.Type != actIntent || !ok {
		return state
	}
	next, err := s.reducer.Apply(state.(model.GameState), p.intent)
	if err != nil {
		p.err = err
		return state
	}
	return next
}

// rejectMW stops the commit of an intent the reducer refused.
func (s *Store) rejectMW(args *boutique.MWArgs) (changedData interface{}, stop bool, err error) {
	defer args.WG.Done()

	if p, ok := args.Action.Update.(*pending); ok && p.err != nil {
		return nil, true, p.err
	}
	return nil, false, nil
}

// AddHook registers h for all subsequent commits.
func (s *Store) AddHook(h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, h)
}

// State returns the latest committed snapshot.
func (s *Store) State() Snapshot {
	return snapshotOf(s.bs.State())
}

func snapshotOf(st boutique.State) Snapshot {
	return Snapshot{Version: st.Version, State: st.Data.(model.GameState)}
}

// Dispatch applies in to the current state. A nil error means the intent was
// accepted and hooks have seen it; otherwise the state is unchanged and the
// error explains the rejection (see IsRejection). An accepted intent that
// leaves every field equal does not advance the version.
func (s *Store) Dispatch(in Intent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.bs.State()
	if err := s.bs.Perform(boutique.Action{Type: actIntent, Update: &pending{intent: in}}); err != nil {
		s.logger.Info("intent rejected",
			"intent", nameOf(in),
			"version", prev.Version,
			"reason", err.Error(),
		)
		for _, h := range s.hooks {
			if rh, ok := h.(RejectHook); ok {
				rh.OnReject(in, err)
			}
		}
		return err
	}

	cur := snapshotOf(s.bs.State())
	s.logger.Debug("intent applied",
		"intent", nameOf(in),
		"version", cur.Version,
		"balance", cur.State.Account.Balance.String(),
	)

	sig := Signal{Version: cur.Version, Intent: in, Prev: prev.Data.(model.GameState), State: cur.State}
	for _, h := range s.hooks {
		h.OnCommit(sig)
	}
	return nil
}

// Subscribe returns a channel that receives a boutique.Signal whenever field
// changes; pass boutique.Any for every change. The channel buffers one
// signal and drops signals while it is full, so readers should treat a
// signal as a prompt to call State.
func (s *Store) Subscribe(field string) (chan boutique.Signal, boutique.CancelFunc, error) {
	return s.bs.Subscribe(field)
}
