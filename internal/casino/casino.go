package casino

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atmx/clicker-engine/internal/game"
)

// Game names recorded on settlements.
const (
	GameSlots     = "slots"
	GameBlackjack = "blackjack"
	GameRPS       = "rps"
)

const maxOpenRounds = 100

var (
	ErrRoundNotFound = errors.New("casino: round not found")
	ErrTooManyRounds = errors.New("casino: too many open rounds")
)

// Store is the part of game.Store the casino needs.
type Store interface {
	Dispatch(in game.Intent) error
	State() game.Snapshot
}

// Settlement builds the intent for a finished round. Any positive payout,
// including a returned stake, counts as won.
func Settlement(gameName string, stake, payout decimal.Decimal) game.SettleCasinoBet {
	return game.SettleCasinoBet{
		Amount:    stake,
		Won:       payout.IsPositive(),
		WinAmount: payout,
		Game:      gameName,
	}
}

// SlotsResult is the outcome of one spin.
type SlotsResult struct {
	Reels  Reels           `json:"reels"`
	Stake  decimal.Decimal `json:"stake"`
	Payout decimal.Decimal `json:"payout"`
	Won    bool            `json:"won"`
}

// RPSResult is the outcome of one rock-paper-scissors round.
type RPSResult struct {
	Player  Hand            `json:"player"`
	House   Hand            `json:"house"`
	Outcome Outcome         `json:"outcome"`
	Stake   decimal.Decimal `json:"stake"`
	Payout  decimal.Decimal `json:"payout"`
}

// Casino plays rounds against the store's balance and settles them.
type Casino struct {
	store   Store
	limiter *BetLimiter
	logger  *slog.Logger

	mu     sync.Mutex
	rng    *rand.Rand
	rounds map[string]*Round
}

// New creates a casino drawing randomness from src.
func New(store Store, limiter *BetLimiter, src rand.Source, logger *slog.Logger) *Casino {
	if limiter == nil {
		limiter = NewBetLimiter(DefaultMinStake, decimal.Zero)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Casino{
		store:   store,
		limiter: limiter,
		logger:  logger,
		rng:     rand.New(src),
		rounds:  make(map[string]*Round),
	}
}

// PlaySlots spins the reels for stake and settles the result.
func (c *Casino) PlaySlots(stake decimal.Decimal) (SlotsResult, error) {
	if err := c.checkBet(stake); err != nil {
		return SlotsResult{}, err
	}

	c.mu.Lock()
	reels := Spin(c.rng)
	c.mu.Unlock()

	payout := SlotPayout(reels, stake)
	if err := c.settle(GameSlots, stake, payout); err != nil {
		return SlotsResult{}, err
	}
	return SlotsResult{Reels: reels, Stake: stake, Payout: payout, Won: payout.IsPositive()}, nil
}

// PlayRPS throws against the house for stake and settles the result.
func (c *Casino) PlayRPS(player Hand, stake decimal.Decimal) (RPSResult, error) {
	if _, ok := beats[player]; !ok {
		return RPSResult{}, fmt.Errorf("%w: %q", ErrInvalidHand, player)
	}
	if err := c.checkBet(stake); err != nil {
		return RPSResult{}, err
	}

	c.mu.Lock()
	house := Throw(c.rng)
	c.mu.Unlock()

	outcome := Judge(player, house)
	payout := RPSPayout(outcome, stake)
	if err := c.settle(GameRPS, stake, payout); err != nil {
		return RPSResult{}, err
	}
	return RPSResult{Player: player, House: house, Outcome: outcome, Stake: stake, Payout: payout}, nil
}

// StartBlackjack deals a new round. A natural 21 settles immediately.
func (c *Casino) StartBlackjack(stake decimal.Decimal) (RoundView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkBetLocked(stake); err != nil {
		return RoundView{}, err
	}
	if len(c.rounds) >= maxOpenRounds {
		return RoundView{}, ErrTooManyRounds
	}
	r := Deal(uuid.NewString(), stake, NewDeck(c.rng))
	if r.Status == StatusFinished {
		return r.View(), c.settleRound(r)
	}
	c.rounds[r.ID] = r
	return r.View(), nil
}

// Hit draws a card in round id.
func (c *Casino) Hit(id string) (RoundView, error) {
	return c.play(id, (*Round).Hit)
}

// Stand finishes round id.
func (c *Casino) Stand(id string) (RoundView, error) {
	return c.play(id, (*Round).Stand)
}

// Round returns the current view of an open round.
func (c *Casino) Round(id string) (RoundView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.rounds[id]
	if !ok {
		return RoundView{}, fmt.Errorf("%w: %s", ErrRoundNotFound, id)
	}
	return r.View(), nil
}

func (c *Casino) play(id string, move func(*Round) error) (RoundView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.rounds[id]
	if !ok {
		return RoundView{}, fmt.Errorf("%w: %s", ErrRoundNotFound, id)
	}
	if err := move(r); err != nil {
		return RoundView{}, err
	}
	if r.Status == StatusFinished {
		delete(c.rounds, id)
		return r.View(), c.settleRound(r)
	}
	return r.View(), nil
}

func (c *Casino) settleRound(r *Round) error {
	return c.settle(GameBlackjack, r.Stake, r.Payout())
}

func (c *Casino) checkBet(stake decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkBetLocked(stake)
}

// checkBetLocked checks stake against the balance left after the stakes of
// open blackjack rounds. c.mu must be held.
func (c *Casino) checkBetLocked(stake decimal.Decimal) error {
	available := c.store.State().State.Account.Balance
	for _, r := range c.rounds {
		available = available.Sub(r.Stake)
	}
	return c.limiter.CheckBet(stake, available)
}

func (c *Casino) settle(gameName string, stake, payout decimal.Decimal) error {
	if err := c.store.Dispatch(Settlement(gameName, stake, payout)); err != nil {
		return err
	}
	c.logger.Info("casino round settled",
		"game", gameName,
		"stake", stake.String(),
		"payout", payout.String(),
	)
	return nil
}
