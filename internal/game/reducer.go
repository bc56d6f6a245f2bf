// Package game implements the authoritative game state: a pure reducer that
// turns (state, intent) into the next state, and a single-writer Store that
// publishes every accepted state to its observers.
//
// All monetary values use shopspring/decimal.
package game

import (
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atmx/clicker-engine/internal/model"
)

// SpecialItemCost is the fixed price of the special item.
var SpecialItemCost = decimal.NewFromInt(100_000)

// IDGenerator produces unique, time-ordered ledger entry ids.
type IDGenerator interface {
	NextID() string
}

// Reducer applies intents to a GameState. Apply never mutates its input and
// has no side effects beyond reading the injected clock and id generator.
type Reducer struct {
	now    func() time.Time
	ids    IDGenerator
	strict bool
}

// Option configures a Reducer.
type Option func(*Reducer)

// WithClock sets the clock used for ledger timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Reducer) { r.now = now }
}

// WithIDGenerator sets the ledger id source.
func WithIDGenerator(g IDGenerator) Option {
	return func(r *Reducer) { r.ids = g }
}

// WithStrictFunds makes PlaceShopOrder, PurchaseSpecialItem and
// SettleCasinoBet reject with ErrInsufficientFunds when the balance cannot
// cover the cost or stake. Without it those intents are never rejected for
// funds and the balance is floored at zero.
func WithStrictFunds() Option {
	return func(r *Reducer) { r.strict = true }
}

// NewReducer creates a Reducer. Defaults: UTC wall clock and
// timestamp-derived ids.
func NewReducer(opts ...Option) *Reducer {
	r := &Reducer{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(r)
	}
	if r.ids == nil {
		r.ids = &timestampIDs{now: r.now}
	}
	return r
}

// Strict reports whether uniform affordability checks are enabled.
func (r *Reducer) Strict() bool { return r.strict }

// Apply returns the state that results from applying in to s. If the intent
// is rejected, s is returned unchanged together with an error wrapping one
// of ErrInsufficientFunds, ErrInsufficientHoldings, ErrInvalidIntent or
// ErrUnknownIntent.
func (r *Reducer) Apply(s model.GameState, in Intent) (model.GameState, error) {
	switch in := in.(type) {
	case AdjustBalance:
		s.Account.Balance = floorZero(s.Account.Balance.Add(in.Delta))
		return s, nil

	case RecordTransaction:
		entry := in.Entry
		if entry.ID == "" {
			entry.ID = r.ids.NextID()
		}
		if entry.Timestamp.IsZero() {
			entry.Timestamp = r.now()
		}
		s.Ledger = s.Ledger.Prepend(entry)
		return s, nil

	case ReplaceInstrumentSnapshot:
		instruments := make(map[string]model.Instrument, len(in.Instruments))
		for _, inst := range in.Instruments {
			instruments[inst.ID] = inst
		}
		s.Instruments = instruments
		return s, nil

	case BuyInstrument:
		return r.buy(s, in)
	case SellInstrument:
		return r.sell(s, in)

	case UpgradeClick:
		cost := model.ClickUpgradeCost(s.Levels.Click)
		if s.Account.Balance.LessThan(cost) {
			return s, insufficientFunds(cost, s.Account.Balance)
		}
		s.Account.Balance = s.Account.Balance.Sub(cost)
		s.Levels.Click++
		return s, nil

	case UpgradeAuto:
		cost := model.AutoUpgradeCost(s.Levels.Auto)
		if s.Account.Balance.LessThan(cost) {
			return s, insufficientFunds(cost, s.Account.Balance)
		}
		s.Account.Balance = s.Account.Balance.Sub(cost)
		s.Levels.Auto++
		return s, nil

	case EarnFromClick:
		s.Account.Balance = s.Account.Balance.Add(decimal.NewFromInt(s.Levels.Click))
		return s, nil

	case EarnFromAutoTick:
		s.Account.Balance = s.Account.Balance.Add(decimal.NewFromInt(s.Levels.Auto))
		return s, nil

	case SettleCasinoBet:
		return r.settle(s, in)

	case PlaceShopOrder:
		if in.Total.IsNegative() {
			return s, fmt.Errorf("%w: order total %s is negative", ErrInvalidIntent, in.Total)
		}
		if cartTotal := s.Cart.Total(); !in.Total.Equal(cartTotal) {
			return s, fmt.Errorf("%w: order %s, cart %s", ErrStaleOrder, in.Total, cartTotal)
		}
		if r.strict && s.Account.Balance.LessThan(in.Total) {
			return s, insufficientFunds(in.Total, s.Account.Balance)
		}
		entry := r.entry(model.KindShopPurchase, in.Total, fmt.Sprintf("Order with %d items", len(s.Cart)))
		s.Account.Balance = floorZero(s.Account.Balance.Sub(in.Total))
		s.Cart = model.Cart{}
		s.Ledger = s.Ledger.Prepend(entry)
		return s, nil

	case PurchaseSpecialItem:
		if r.strict && s.Account.Balance.LessThan(SpecialItemCost) {
			return s, insufficientFunds(SpecialItemCost, s.Account.Balance)
		}
		s.Account.Balance = floorZero(s.Account.Balance.Sub(SpecialItemCost))
		s.Ledger = s.Ledger.Prepend(r.entry(model.KindSpecialPurchase, SpecialItemCost.Neg(), "Special item purchase"))
		return s, nil

	case ResetGame:
		return model.ResetGameState(), nil

	case AddToCart:
		return addToCart(s, in)
	case RemoveFromCart:
		return removeFromCart(s, in.ProductID)
	case UpdateCartQuantity:
		if in.Quantity <= 0 {
			return removeFromCart(s, in.ProductID)
		}
		return updateCartQuantity(s, in)
	case ClearCart:
		s.Cart = model.Cart{}
		return s, nil

	default:
		return s, fmt.Errorf("%w: %T", ErrUnknownIntent, in)
	}
}

func (r *Reducer) buy(s model.GameState, in BuyInstrument) (model.GameState, error) {
	if in.InstrumentID == "" || !in.Shares.IsPositive() || !in.Price.IsPositive() {
		return s, fmt.Errorf("%w: buy %s shares=%s price=%s", ErrInvalidIntent, in.InstrumentID, in.Shares, in.Price)
	}

	cost := in.Shares.Mul(in.Price)
	if s.Account.Balance.LessThan(cost) {
		return s, insufficientFunds(cost, s.Account.Balance)
	}

	pos, held := s.Portfolio[in.InstrumentID]
	if held {
		total := pos.Shares.Add(in.Shares)
		pos = model.Position{
			Shares:   total,
			AvgPrice: pos.Shares.Mul(pos.AvgPrice).Add(cost).Div(total),
		}
	} else {
		pos = model.Position{Shares: in.Shares, AvgPrice: in.Price}
	}

	portfolio := s.Portfolio.Clone()
	portfolio[in.InstrumentID] = pos

	entry := r.entry(model.KindStockBuy, cost,
		fmt.Sprintf("Bought %s %s @ %s", in.Shares, in.InstrumentID, in.Price))
	entry.InstrumentID = in.InstrumentID
	entry.Shares = in.Shares
	entry.Price = in.Price

	s.Account.Balance = s.Account.Balance.Sub(cost)
	s.Portfolio = portfolio
	s.Ledger = s.Ledger.Prepend(entry)
	return s, nil
}

func (r *Reducer) sell(s model.GameState, in SellInstrument) (model.GameState, error) {
	if in.InstrumentID == "" || !in.Shares.IsPositive() || in.Price.IsNegative() {
		return s, fmt.Errorf("%w: sell %s shares=%s price=%s", ErrInvalidIntent, in.InstrumentID, in.Shares, in.Price)
	}

	pos, held := s.Portfolio[in.InstrumentID]
	if !held || pos.Shares.LessThan(in.Shares) {
		return s, fmt.Errorf("%w: sell %s of %s, hold %s", ErrInsufficientHoldings, in.Shares, in.InstrumentID, pos.Shares)
	}

	value := in.Shares.Mul(in.Price)
	portfolio := s.Portfolio.Clone()
	remaining := pos.Shares.Sub(in.Shares)
	if remaining.IsZero() {
		delete(portfolio, in.InstrumentID)
	} else {
		portfolio[in.InstrumentID] = model.Position{Shares: remaining, AvgPrice: pos.AvgPrice}
	}

	entry := r.entry(model.KindStockSell, value,
		fmt.Sprintf("Sold %s %s @ %s", in.Shares, in.InstrumentID, in.Price))
	entry.InstrumentID = in.InstrumentID
	entry.Shares = in.Shares
	entry.Price = in.Price

	s.Account.Balance = s.Account.Balance.Add(value)
	s.Portfolio = portfolio
	s.Ledger = s.Ledger.Prepend(entry)
	return s, nil
}

func (r *Reducer) settle(s model.GameState, in SettleCasinoBet) (model.GameState, error) {
	if !in.Amount.IsPositive() || in.WinAmount.IsNegative() {
		return s, fmt.Errorf("%w: stake=%s win=%s", ErrInvalidIntent, in.Amount, in.WinAmount)
	}
	if r.strict && s.Account.Balance.LessThan(in.Amount) {
		return s, insufficientFunds(in.Amount, s.Account.Balance)
	}

	var net, delta decimal.Decimal
	var details string
	if in.Won {
		net = in.WinAmount.Sub(in.Amount)
		delta = in.WinAmount
		details = fmt.Sprintf("Casino win: +%s", in.WinAmount)
	} else {
		net = in.Amount.Neg()
		delta = in.Amount.Neg()
		details = fmt.Sprintf("Casino bet: -%s", in.Amount)
	}
	if in.Game != "" {
		details = in.Game + " " + details
	}

	entry := r.entry(model.KindCasinoSettle, net, details)
	entry.Game = in.Game

	s.Account.Balance = floorZero(s.Account.Balance.Add(delta))
	s.Ledger = s.Ledger.Prepend(entry)
	return s, nil
}

func addToCart(s model.GameState, in AddToCart) (model.GameState, error) {
	if in.Product.ID == "" || in.Quantity <= 0 {
		return s, fmt.Errorf("%w: add %q x%d to cart", ErrInvalidIntent, in.Product.ID, in.Quantity)
	}
	cart := make(model.Cart, len(s.Cart), len(s.Cart)+1)
	copy(cart, s.Cart)
	if i := cart.Index(in.Product.ID); i >= 0 {
		if cart[i].Quantity > math.MaxInt-in.Quantity {
			return s, fmt.Errorf("%w: quantity of %q overflows", ErrInvalidIntent, in.Product.ID)
		}
		cart[i].Quantity += in.Quantity
	} else {
		cart = append(cart, model.CartItem{Product: in.Product, Quantity: in.Quantity})
	}
	s.Cart = cart
	return s, nil
}

func removeFromCart(s model.GameState, productID string) (model.GameState, error) {
	if s.Cart.Index(productID) < 0 {
		return s, fmt.Errorf("%w: product %q not in cart", ErrInvalidIntent, productID)
	}
	cart := make(model.Cart, 0, len(s.Cart))
	for _, item := range s.Cart {
		if item.Product.ID != productID {
			cart = append(cart, item)
		}
	}
	s.Cart = cart
	return s, nil
}

func updateCartQuantity(s model.GameState, in UpdateCartQuantity) (model.GameState, error) {
	i := s.Cart.Index(in.ProductID)
	if i < 0 {
		return s, fmt.Errorf("%w: product %q not in cart", ErrInvalidIntent, in.ProductID)
	}
	cart := make(model.Cart, len(s.Cart))
	copy(cart, s.Cart)
	cart[i].Quantity = in.Quantity
	s.Cart = cart
	return s, nil
}

func (r *Reducer) entry(kind model.TransactionKind, amount decimal.Decimal, details string) model.Transaction {
	return model.Transaction{
		ID:        r.ids.NextID(),
		Kind:      kind,
		Amount:    amount,
		Details:   details,
		Timestamp: r.now(),
	}
}

func insufficientFunds(cost, balance decimal.Decimal) error {
	return fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds, cost, balance)
}

func floorZero(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

// timestampIDs derives ids from the clock, with a sequence suffix so that
// entries created within the same nanosecond stay distinct.
type timestampIDs struct {
	now func() time.Time
	seq atomic.Uint64
}

func (g *timestampIDs) NextID() string {
	return strconv.FormatInt(g.now().UnixNano(), 10) + "-" + strconv.FormatUint(g.seq.Add(1), 10)
}
