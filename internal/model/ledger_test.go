package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func tx(id string) Transaction {
	return Transaction{ID: id, Kind: KindCasinoSettle, Amount: d(1)}
}

func ids(txs []Transaction) []string {
	out := make([]string, len(txs))
	for i, t := range txs {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLedger_PrependAndEntries(t *testing.T) {
	var l Ledger
	if _, ok := l.Latest(); ok {
		t.Error("empty ledger should have no latest entry")
	}

	l = l.Prepend(tx("a")).Prepend(tx("b")).Prepend(tx("c"))

	if l.Len() != 3 {
		t.Fatalf("expected 3, got %d", l.Len())
	}
	if got := ids(l.Entries(0)); !equalIDs(got, []string{"c", "b", "a"}) {
		t.Errorf("expected newest first, got %v", got)
	}
	if got := ids(l.Entries(2)); !equalIDs(got, []string{"c", "b"}) {
		t.Errorf("expected limit 2, got %v", got)
	}
	latest, _ := l.Latest()
	if latest.ID != "c" {
		t.Errorf("expected latest c, got %s", latest.ID)
	}
}

func TestLedger_SharedTailIsolation(t *testing.T) {
	base := NewLedger(tx("b"), tx("a"))
	left := base.Prepend(tx("x"))
	right := base.Prepend(tx("y"))

	if base.Len() != 2 {
		t.Errorf("base changed length: %d", base.Len())
	}
	if got := ids(left.Entries(0)); !equalIDs(got, []string{"x", "b", "a"}) {
		t.Errorf("left = %v", got)
	}
	if got := ids(right.Entries(0)); !equalIDs(got, []string{"y", "b", "a"}) {
		t.Errorf("right = %v", got)
	}
}

func TestLedger_Since(t *testing.T) {
	prev := NewLedger(tx("a"))
	next := prev.Prepend(tx("b")).Prepend(tx("c"))

	if got := ids(next.Since(prev)); !equalIDs(got, []string{"b", "c"}) {
		t.Errorf("expected oldest first [b c], got %v", got)
	}
	if got := next.Since(next); len(got) != 0 {
		t.Errorf("expected nothing new, got %v", ids(got))
	}
	if got := ids(next.Since(Ledger{})); !equalIDs(got, []string{"a", "b", "c"}) {
		t.Errorf("since empty should return everything, got %v", got)
	}
}

func TestLedger_JSONRoundTrip(t *testing.T) {
	l := NewLedger(tx("2"), tx("1"))

	data, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Ledger
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := ids(back.Entries(0)); !equalIDs(got, []string{"2", "1"}) {
		t.Errorf("order lost in round trip: %v", got)
	}
}

func TestTransaction_BalanceEffect(t *testing.T) {
	cases := []struct {
		kind   TransactionKind
		amount float64
		want   float64
	}{
		{KindStockBuy, 80, -80},
		{KindStockSell, 110, 110},
		{KindShopPurchase, 299.99, -299.99},
		{KindCasinoSettle, -50, -50},
		{KindCasinoSettle, 50, 50},
		{KindSpecialPurchase, -100000, -100000},
	}
	for _, tc := range cases {
		got := Transaction{Kind: tc.kind, Amount: d(tc.amount)}.BalanceEffect()
		if !got.Equal(d(tc.want)) {
			t.Errorf("%s %v: expected %v, got %s", tc.kind, tc.amount, tc.want, got)
		}
	}
}

func TestUpgradeCostFormulas(t *testing.T) {
	for level, want := range map[int64]int64{1: 10, 2: 40, 5: 250} {
		if got := ClickUpgradeCost(level); !got.Equal(decimal.NewFromInt(want)) {
			t.Errorf("click level %d: expected %d, got %s", level, want, got)
		}
	}
	for level, want := range map[int64]int64{0: 50, 1: 200, 4: 1250} {
		if got := AutoUpgradeCost(level); !got.Equal(decimal.NewFromInt(want)) {
			t.Errorf("auto level %d: expected %d, got %s", level, want, got)
		}
	}
}
