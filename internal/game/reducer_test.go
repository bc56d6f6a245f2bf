package game

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atmx/clicker-engine/internal/model"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

type seqIDs struct{ n int }

func (g *seqIDs) NextID() string {
	g.n++
	return fmt.Sprintf("tx-%d", g.n)
}

var fixedTime = time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)

func newTestReducer(opts ...Option) *Reducer {
	base := []Option{
		WithClock(func() time.Time { return fixedTime }),
		WithIDGenerator(&seqIDs{}),
	}
	return NewReducer(append(base, opts...)...)
}

func stateWithBalance(b float64) model.GameState {
	s := model.NewGameState()
	s.Account.Balance = d(b)
	return s
}

func mustApply(t *testing.T, r *Reducer, s model.GameState, in Intent) model.GameState {
	t.Helper()
	next, err := r.Apply(s, in)
	if err != nil {
		t.Fatalf("apply %s: unexpected error: %v", in.IntentName(), err)
	}
	return next
}

// --- Scenarios ---

func TestUpgradeClick_ScenarioA_InsufficientFunds(t *testing.T) {
	r := newTestReducer()
	s := stateWithBalance(0)

	next, err := r.Apply(s, UpgradeClick{})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if !next.Account.Balance.IsZero() {
		t.Errorf("balance should stay 0, got %s", next.Account.Balance)
	}
	if next.Levels.Click != 1 {
		t.Errorf("click level should stay 1, got %d", next.Levels.Click)
	}
	if !reflect.DeepEqual(s, next) {
		t.Error("rejected intent must return the state unchanged")
	}
}

func TestBuyInstrument_ScenarioB(t *testing.T) {
	r := newTestReducer()
	s := mustApply(t, r, stateWithBalance(100), BuyInstrument{InstrumentID: "AAPL", Shares: d(2), Price: d(40)})

	if !s.Account.Balance.Equal(d(20)) {
		t.Errorf("expected balance 20, got %s", s.Account.Balance)
	}
	pos, ok := s.Portfolio["AAPL"]
	if !ok {
		t.Fatal("expected AAPL position")
	}
	if !pos.Shares.Equal(d(2)) || !pos.AvgPrice.Equal(d(40)) {
		t.Errorf("expected 2 @ 40, got %s @ %s", pos.Shares, pos.AvgPrice)
	}
	if s.Ledger.Len() != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", s.Ledger.Len())
	}
	entry, _ := s.Ledger.Latest()
	if entry.Kind != model.KindStockBuy || !entry.Amount.Equal(d(80)) {
		t.Errorf("expected STOCK_BUY 80, got %s %s", entry.Kind, entry.Amount)
	}
	if !entry.BalanceEffect().Equal(d(-80)) {
		t.Errorf("expected balance effect -80, got %s", entry.BalanceEffect())
	}
	if entry.ID == "" || !entry.Timestamp.Equal(fixedTime) {
		t.Errorf("entry should carry id and timestamp, got %q %v", entry.ID, entry.Timestamp)
	}
}

func TestBuyInstrument_ScenarioC_WeightedAverage(t *testing.T) {
	r := newTestReducer()
	s := mustApply(t, r, stateWithBalance(100), BuyInstrument{InstrumentID: "AAPL", Shares: d(2), Price: d(40)})

	// Balance 20 cannot cover 70.
	rejected, err := r.Apply(s, BuyInstrument{InstrumentID: "AAPL", Shares: d(1), Price: d(70)})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if !reflect.DeepEqual(s, rejected) {
		t.Error("rejected buy must leave state unchanged")
	}

	s = mustApply(t, r, s, AdjustBalance{Delta: d(50)})
	s = mustApply(t, r, s, BuyInstrument{InstrumentID: "AAPL", Shares: d(1), Price: d(70)})

	pos := s.Portfolio["AAPL"]
	if !pos.Shares.Equal(d(3)) {
		t.Errorf("expected 3 shares, got %s", pos.Shares)
	}
	if !pos.AvgPrice.Equal(d(50)) {
		t.Errorf("expected avg price 50, got %s", pos.AvgPrice)
	}
	if !s.Account.Balance.IsZero() {
		t.Errorf("expected balance 0, got %s", s.Account.Balance)
	}
}

func TestSellInstrument_ScenarioD_RemovesPosition(t *testing.T) {
	r := newTestReducer()
	s := mustApply(t, r, stateWithBalance(100), BuyInstrument{InstrumentID: "AAPL", Shares: d(2), Price: d(40)})
	before := s.Account.Balance

	s = mustApply(t, r, s, SellInstrument{InstrumentID: "AAPL", Shares: d(2), Price: d(55)})

	if _, ok := s.Portfolio["AAPL"]; ok {
		t.Error("AAPL position should be removed at zero shares")
	}
	if !s.Account.Balance.Sub(before).Equal(d(110)) {
		t.Errorf("balance should increase by 110, got %s", s.Account.Balance.Sub(before))
	}
	entry, _ := s.Ledger.Latest()
	if entry.Kind != model.KindStockSell || !entry.Amount.Equal(d(110)) {
		t.Errorf("expected STOCK_SELL 110, got %s %s", entry.Kind, entry.Amount)
	}
	if s.Ledger.Len() != 2 {
		t.Errorf("expected 2 ledger entries, got %d", s.Ledger.Len())
	}
}

func TestSettleCasinoBet_ScenarioE_Win(t *testing.T) {
	r := newTestReducer()
	s := mustApply(t, r, stateWithBalance(50), SettleCasinoBet{Amount: d(50), Won: true, WinAmount: d(100)})

	if !s.Account.Balance.Equal(d(150)) {
		t.Errorf("expected balance 150, got %s", s.Account.Balance)
	}
	if s.Ledger.Len() != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", s.Ledger.Len())
	}
	entry, _ := s.Ledger.Latest()
	if entry.Kind != model.KindCasinoSettle || !entry.Amount.Equal(d(50)) {
		t.Errorf("expected CASINO_SETTLE +50, got %s %s", entry.Kind, entry.Amount)
	}
}

func TestResetGame_ScenarioF(t *testing.T) {
	r := newTestReducer()
	s := stateWithBalance(1_000_000)
	s = mustApply(t, r, s, UpgradeClick{})
	s = mustApply(t, r, s, UpgradeAuto{})
	s = mustApply(t, r, s, BuyInstrument{InstrumentID: "TSLA", Shares: d(3), Price: d(10)})
	s = mustApply(t, r, s, AddToCart{Product: model.Product{ID: "1", Price: d(5)}, Quantity: 1})

	s = mustApply(t, r, s, ResetGame{})

	if !s.Account.Balance.Equal(decimal.NewFromInt(100_000_000)) {
		t.Errorf("expected reset balance 100000000, got %s", s.Account.Balance)
	}
	if s.Levels.Click != 1 || s.Levels.Auto != 0 {
		t.Errorf("expected levels 1/0, got %d/%d", s.Levels.Click, s.Levels.Auto)
	}
	if len(s.Portfolio) != 0 || s.Ledger.Len() != 0 || len(s.Cart) != 0 {
		t.Errorf("expected empty portfolio/ledger/cart, got %d/%d/%d", len(s.Portfolio), s.Ledger.Len(), len(s.Cart))
	}
}

// --- Balance rules ---

func TestAdjustBalance_FloorsAtZero(t *testing.T) {
	r := newTestReducer()
	s := mustApply(t, r, stateWithBalance(30), AdjustBalance{Delta: d(-100)})
	if !s.Account.Balance.IsZero() {
		t.Errorf("expected 0, got %s", s.Account.Balance)
	}
	s = mustApply(t, r, s, AdjustBalance{Delta: d(12.5)})
	if !s.Account.Balance.Equal(d(12.5)) {
		t.Errorf("expected 12.5, got %s", s.Account.Balance)
	}
}

func TestUpgradeCosts(t *testing.T) {
	r := newTestReducer()
	s := stateWithBalance(10 + 40 + 50 + 200)

	s = mustApply(t, r, s, UpgradeClick{}) // 1^2*10
	s = mustApply(t, r, s, UpgradeClick{}) // 2^2*10
	s = mustApply(t, r, s, UpgradeAuto{})  // 1^2*50
	s = mustApply(t, r, s, UpgradeAuto{})  // 2^2*50

	if s.Levels.Click != 3 || s.Levels.Auto != 2 {
		t.Errorf("expected levels 3/2, got %d/%d", s.Levels.Click, s.Levels.Auto)
	}
	if !s.Account.Balance.IsZero() {
		t.Errorf("expected balance 0 after exact upgrades, got %s", s.Account.Balance)
	}
	if _, err := r.Apply(s, UpgradeAuto{}); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestEarnFromClickAndAutoTick(t *testing.T) {
	r := newTestReducer()
	s := stateWithBalance(0)
	s.Levels = model.Levels{Click: 4, Auto: 3}

	s = mustApply(t, r, s, EarnFromClick{})
	s = mustApply(t, r, s, EarnFromAutoTick{})

	if !s.Account.Balance.Equal(d(7)) {
		t.Errorf("expected 7, got %s", s.Account.Balance)
	}
	if s.Ledger.Len() != 0 {
		t.Error("income must not write ledger entries")
	}
}

func TestSettleCasinoBet_LossClampsAtZero(t *testing.T) {
	r := newTestReducer()
	s := mustApply(t, r, stateWithBalance(30), SettleCasinoBet{Amount: d(50), Won: false, Game: "slots"})

	if !s.Account.Balance.IsZero() {
		t.Errorf("expected balance clamped to 0, got %s", s.Account.Balance)
	}
	entry, _ := s.Ledger.Latest()
	if !entry.Amount.Equal(d(-50)) {
		t.Errorf("expected net -50, got %s", entry.Amount)
	}
	if entry.Game != "slots" || entry.Details != "slots Casino bet: -50" {
		t.Errorf("unexpected entry details %q game %q", entry.Details, entry.Game)
	}
}

func TestSettleCasinoBet_PushNetsZero(t *testing.T) {
	r := newTestReducer()
	s := mustApply(t, r, stateWithBalance(100), SettleCasinoBet{Amount: d(20), Won: true, WinAmount: d(20)})
	if !s.Account.Balance.Equal(d(100)) {
		t.Errorf("expected unchanged balance 100, got %s", s.Account.Balance)
	}
	entry, _ := s.Ledger.Latest()
	if !entry.Amount.IsZero() {
		t.Errorf("expected net 0, got %s", entry.Amount)
	}
}

func TestSettleCasinoBet_InvalidStake(t *testing.T) {
	r := newTestReducer()
	s := stateWithBalance(100)
	if _, err := r.Apply(s, SettleCasinoBet{Amount: decimal.Zero}); !errors.Is(err, ErrInvalidIntent) {
		t.Errorf("expected ErrInvalidIntent for zero stake, got %v", err)
	}
	if _, err := r.Apply(s, SettleCasinoBet{Amount: d(5), Won: true, WinAmount: d(-1)}); !errors.Is(err, ErrInvalidIntent) {
		t.Errorf("expected ErrInvalidIntent for negative win, got %v", err)
	}
}

func TestPlaceShopOrder_NoFundsCheckByDefault(t *testing.T) {
	r := newTestReducer()
	s := stateWithBalance(50)
	s = mustApply(t, r, s, AddToCart{Product: model.Product{ID: "2", Price: d(299.99)}, Quantity: 1})

	s = mustApply(t, r, s, PlaceShopOrder{Total: d(299.99)})

	if !s.Account.Balance.IsZero() {
		t.Errorf("expected balance floored at 0, got %s", s.Account.Balance)
	}
	if len(s.Cart) != 0 {
		t.Error("cart should be cleared")
	}
	entry, _ := s.Ledger.Latest()
	if entry.Kind != model.KindShopPurchase || !entry.Amount.Equal(d(299.99)) {
		t.Errorf("expected SHOP_PURCHASE 299.99, got %s %s", entry.Kind, entry.Amount)
	}
	if entry.Details != "Order with 1 items" {
		t.Errorf("unexpected details %q", entry.Details)
	}
}

func TestPlaceShopOrder_RejectsStaleTotal(t *testing.T) {
	r := newTestReducer()
	s := stateWithBalance(500)
	s = mustApply(t, r, s, AddToCart{Product: model.Product{ID: "1", Price: d(10)}, Quantity: 2})

	cases := []decimal.Decimal{d(10), d(30), decimal.Zero}
	for _, total := range cases {
		next, err := r.Apply(s, PlaceShopOrder{Total: total})
		if !errors.Is(err, ErrStaleOrder) {
			t.Errorf("total %s: expected ErrStaleOrder, got %v", total, err)
		}
		if !IsRejection(err) {
			t.Errorf("total %s: stale order should be a rejection", total)
		}
		if !reflect.DeepEqual(s, next) {
			t.Errorf("total %s: state changed on rejection", total)
		}
	}

	s = mustApply(t, r, s, PlaceShopOrder{Total: d(20)})
	if !s.Account.Balance.Equal(d(480)) || len(s.Cart) != 0 {
		t.Errorf("matching total should be charged, got balance %s cart %d", s.Account.Balance, len(s.Cart))
	}
}

func TestAddToCart_RejectsQuantityOverflow(t *testing.T) {
	r := newTestReducer()
	p := model.Product{ID: "1", Price: d(1)}
	s := mustApply(t, r, stateWithBalance(0), AddToCart{Product: p, Quantity: math.MaxInt - 1})

	next, err := r.Apply(s, AddToCart{Product: p, Quantity: 2})
	if !errors.Is(err, ErrInvalidIntent) {
		t.Fatalf("expected ErrInvalidIntent, got %v", err)
	}
	if !reflect.DeepEqual(s, next) {
		t.Error("state changed on rejection")
	}

	s = mustApply(t, r, s, AddToCart{Product: p, Quantity: 1})
	if s.Cart[0].Quantity != math.MaxInt {
		t.Errorf("expected quantity %d, got %d", math.MaxInt, s.Cart[0].Quantity)
	}
}

func TestPurchaseSpecialItem(t *testing.T) {
	r := newTestReducer()
	s := mustApply(t, r, stateWithBalance(250_000), PurchaseSpecialItem{})

	if !s.Account.Balance.Equal(d(150_000)) {
		t.Errorf("expected 150000, got %s", s.Account.Balance)
	}
	entry, _ := s.Ledger.Latest()
	if entry.Kind != model.KindSpecialPurchase || !entry.Amount.Equal(d(-100_000)) {
		t.Errorf("expected SPECIAL_PURCHASE -100000, got %s %s", entry.Kind, entry.Amount)
	}

	// Without strict mode a short balance is floored, not rejected.
	s = mustApply(t, r, stateWithBalance(10), PurchaseSpecialItem{})
	if !s.Account.Balance.IsZero() {
		t.Errorf("expected 0, got %s", s.Account.Balance)
	}
}

func TestStrictFunds_RejectsUncoveredCosts(t *testing.T) {
	r := newTestReducer(WithStrictFunds())
	s := stateWithBalance(10)
	s.Cart = model.Cart{{Product: model.Product{ID: "1", Price: d(11)}, Quantity: 1}}

	cases := []Intent{
		PlaceShopOrder{Total: d(11)},
		PurchaseSpecialItem{},
		SettleCasinoBet{Amount: d(20), Won: false},
	}
	for _, in := range cases {
		next, err := r.Apply(s, in)
		if !errors.Is(err, ErrInsufficientFunds) {
			t.Errorf("%s: expected ErrInsufficientFunds, got %v", in.IntentName(), err)
		}
		if !reflect.DeepEqual(s, next) {
			t.Errorf("%s: state changed on rejection", in.IntentName())
		}
	}

	if _, err := r.Apply(s, SettleCasinoBet{Amount: d(10), Won: true, WinAmount: d(20)}); err != nil {
		t.Errorf("covered stake should be accepted in strict mode, got %v", err)
	}
}

// --- Portfolio rules ---

func TestSellInstrument_Partial(t *testing.T) {
	r := newTestReducer()
	s := mustApply(t, r, stateWithBalance(1000), BuyInstrument{InstrumentID: "MSFT", Shares: d(5), Price: d(100)})
	s = mustApply(t, r, s, SellInstrument{InstrumentID: "MSFT", Shares: d(2), Price: d(120)})

	pos := s.Portfolio["MSFT"]
	if !pos.Shares.Equal(d(3)) {
		t.Errorf("expected 3 shares, got %s", pos.Shares)
	}
	if !pos.AvgPrice.Equal(d(100)) {
		t.Errorf("avg price must not change on sell, got %s", pos.AvgPrice)
	}
	if !s.Account.Balance.Equal(d(740)) {
		t.Errorf("expected 740, got %s", s.Account.Balance)
	}
}

func TestSellInstrument_InsufficientHoldings(t *testing.T) {
	r := newTestReducer()
	s := mustApply(t, r, stateWithBalance(100), BuyInstrument{InstrumentID: "NVDA", Shares: d(1), Price: d(50)})

	for _, in := range []SellInstrument{
		{InstrumentID: "NVDA", Shares: d(2), Price: d(60)},
		{InstrumentID: "META", Shares: d(1), Price: d(60)},
	} {
		next, err := r.Apply(s, in)
		if !errors.Is(err, ErrInsufficientHoldings) {
			t.Errorf("sell %s: expected ErrInsufficientHoldings, got %v", in.InstrumentID, err)
		}
		if !reflect.DeepEqual(s, next) {
			t.Errorf("sell %s: state changed on rejection", in.InstrumentID)
		}
	}
}

func TestBuyInstrument_InvalidPayload(t *testing.T) {
	r := newTestReducer()
	s := stateWithBalance(100)
	for _, in := range []BuyInstrument{
		{InstrumentID: "", Shares: d(1), Price: d(1)},
		{InstrumentID: "AAPL", Shares: d(0), Price: d(1)},
		{InstrumentID: "AAPL", Shares: d(-1), Price: d(1)},
		{InstrumentID: "AAPL", Shares: d(1), Price: d(0)},
	} {
		if _, err := r.Apply(s, in); !errors.Is(err, ErrInvalidIntent) {
			t.Errorf("buy %+v: expected ErrInvalidIntent, got %v", in, err)
		}
	}
}

func TestBuyInstrument_DoesNotMutateParent(t *testing.T) {
	r := newTestReducer()
	parent := mustApply(t, r, stateWithBalance(1000), BuyInstrument{InstrumentID: "AAPL", Shares: d(1), Price: d(10)})

	a := mustApply(t, r, parent, BuyInstrument{InstrumentID: "AAPL", Shares: d(1), Price: d(20)})
	b := mustApply(t, r, parent, SellInstrument{InstrumentID: "AAPL", Shares: d(1), Price: d(20)})

	if !parent.Portfolio["AAPL"].Shares.Equal(d(1)) {
		t.Errorf("parent portfolio mutated: %s", parent.Portfolio["AAPL"].Shares)
	}
	if parent.Ledger.Len() != 1 || a.Ledger.Len() != 2 || b.Ledger.Len() != 2 {
		t.Errorf("ledger lengths parent/a/b = %d/%d/%d", parent.Ledger.Len(), a.Ledger.Len(), b.Ledger.Len())
	}
	la, _ := a.Ledger.Latest()
	lb, _ := b.Ledger.Latest()
	if la.Kind != model.KindStockBuy || lb.Kind != model.KindStockSell {
		t.Errorf("sibling ledgers aliased: %s / %s", la.Kind, lb.Kind)
	}
}

func TestWeightedAverage_ManyBuys(t *testing.T) {
	r := newTestReducer()
	s := stateWithBalance(1_000_000)
	buys := []struct{ shares, price float64 }{{3, 10.25}, {7, 11.5}, {1, 9.75}, {4, 12}}

	var qty, cost float64
	for _, b := range buys {
		s = mustApply(t, r, s, BuyInstrument{InstrumentID: "DIS", Shares: d(b.shares), Price: d(b.price)})
		qty += b.shares
		cost += b.shares * b.price
	}

	want := d(cost / qty)
	got := s.Portfolio["DIS"].AvgPrice
	if got.Sub(want).Abs().GreaterThan(d(0.0000001)) {
		t.Errorf("expected avg %s, got %s", want, got)
	}
}

// --- Cart ---

func TestCartIntents(t *testing.T) {
	r := newTestReducer()
	p1 := model.Product{ID: "1", Name: "Wireless Headphones", Price: d(199.99)}
	p2 := model.Product{ID: "3", Name: "Coffee Maker", Price: d(79.99)}

	s := model.NewGameState()
	s = mustApply(t, r, s, AddToCart{Product: p1, Quantity: 1})
	s = mustApply(t, r, s, AddToCart{Product: p2, Quantity: 2})
	s = mustApply(t, r, s, AddToCart{Product: p1, Quantity: 2})

	if len(s.Cart) != 2 || s.Cart[0].Quantity != 3 {
		t.Fatalf("expected merged cart lines, got %+v", s.Cart)
	}
	want := d(199.99).Mul(decimal.NewFromInt(3)).Add(d(79.99).Mul(decimal.NewFromInt(2)))
	if !s.Cart.Total().Equal(want) {
		t.Errorf("unexpected total %s", s.Cart.Total())
	}

	s = mustApply(t, r, s, UpdateCartQuantity{ProductID: "3", Quantity: 5})
	if s.Cart[1].Quantity != 5 {
		t.Errorf("expected quantity 5, got %d", s.Cart[1].Quantity)
	}

	s = mustApply(t, r, s, UpdateCartQuantity{ProductID: "3", Quantity: 0})
	if len(s.Cart) != 1 {
		t.Errorf("quantity 0 should remove the line, got %+v", s.Cart)
	}

	s = mustApply(t, r, s, RemoveFromCart{ProductID: "1"})
	if len(s.Cart) != 0 {
		t.Errorf("expected empty cart, got %+v", s.Cart)
	}

	if _, err := r.Apply(s, RemoveFromCart{ProductID: "1"}); !errors.Is(err, ErrInvalidIntent) {
		t.Errorf("expected ErrInvalidIntent removing missing line, got %v", err)
	}
	if _, err := r.Apply(s, AddToCart{Product: p1, Quantity: 0}); !errors.Is(err, ErrInvalidIntent) {
		t.Errorf("expected ErrInvalidIntent for zero quantity, got %v", err)
	}
}

// --- Misc ---

type bogusIntent struct{}

func (bogusIntent) IntentName() string { return "bogus" }

func TestApply_UnknownIntent(t *testing.T) {
	r := newTestReducer()
	s := stateWithBalance(10)

	for _, in := range []Intent{bogusIntent{}, nil} {
		next, err := r.Apply(s, in)
		if !errors.Is(err, ErrUnknownIntent) {
			t.Errorf("expected ErrUnknownIntent, got %v", err)
		}
		if !IsRejection(err) {
			t.Error("unknown intent should be a rejection")
		}
		if !reflect.DeepEqual(s, next) {
			t.Error("unknown intent must not change state")
		}
	}
}

func TestReplaceInstrumentSnapshot(t *testing.T) {
	r := newTestReducer()
	s := mustApply(t, r, model.NewGameState(), ReplaceInstrumentSnapshot{Instruments: []model.Instrument{
		{ID: "AAPL", Price: d(100)},
		{ID: "GOOGL", Price: d(200)},
	}})
	s = mustApply(t, r, s, ReplaceInstrumentSnapshot{Instruments: []model.Instrument{
		{ID: "AAPL", Price: d(101)},
	}})

	if len(s.Instruments) != 1 || !s.Instruments["AAPL"].Price.Equal(d(101)) {
		t.Errorf("expected wholesale replacement, got %+v", s.Instruments)
	}
}

func TestRecordTransaction_FillsIDAndTimestamp(t *testing.T) {
	r := newTestReducer()
	s := mustApply(t, r, model.NewGameState(), RecordTransaction{Entry: model.Transaction{Kind: model.KindCasinoSettle, Amount: d(5)}})
	s = mustApply(t, r, s, RecordTransaction{Entry: model.Transaction{ID: "given", Kind: model.KindCasinoSettle, Amount: d(-5)}})

	entries := s.Ledger.Entries(0)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != "given" {
		t.Errorf("newest entry should be first, got %q", entries[0].ID)
	}
	if entries[1].ID == "" || entries[1].Timestamp.IsZero() {
		t.Error("id and timestamp should be filled in")
	}
}

func TestInvariants_RandomWalk(t *testing.T) {
	r := newTestReducer()
	s := stateWithBalance(500)
	intents := []Intent{
		EarnFromClick{}, UpgradeClick{}, UpgradeAuto{}, EarnFromAutoTick{},
		BuyInstrument{InstrumentID: "AAPL", Shares: d(2), Price: d(30)},
		SellInstrument{InstrumentID: "AAPL", Shares: d(1), Price: d(25)},
		SellInstrument{InstrumentID: "AAPL", Shares: d(1), Price: d(35)},
		SettleCasinoBet{Amount: d(400), Won: false},
		PlaceShopOrder{Total: d(1000)},
		PurchaseSpecialItem{},
		AdjustBalance{Delta: d(-5)},
		UpgradeClick{},
	}

	prevClick, prevAuto := s.Levels.Click, s.Levels.Auto
	for i := 0; i < 50; i++ {
		s, _ = r.Apply(s, intents[i%len(intents)])
		if s.Account.Balance.IsNegative() {
			t.Fatalf("step %d: negative balance %s", i, s.Account.Balance)
		}
		for id, pos := range s.Portfolio {
			if !pos.Shares.IsPositive() {
				t.Fatalf("step %d: position %s with %s shares", i, id, pos.Shares)
			}
		}
		if s.Levels.Click < prevClick || s.Levels.Auto < prevAuto || s.Levels.Click < 1 {
			t.Fatalf("step %d: levels went backwards", i)
		}
		prevClick, prevAuto = s.Levels.Click, s.Levels.Auto
	}
}
