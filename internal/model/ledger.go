package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind classifies a ledger entry.
type TransactionKind string

const (
	KindStockBuy        TransactionKind = "STOCK_BUY"
	KindStockSell       TransactionKind = "STOCK_SELL"
	KindShopPurchase    TransactionKind = "SHOP_PURCHASE"
	KindCasinoSettle    TransactionKind = "CASINO_SETTLE"
	KindSpecialPurchase TransactionKind = "SPECIAL_PURCHASE"
)

// Transaction is an immutable ledger record.
//
// Amount carries the sign convention of its kind: stock trades and shop
// purchases record the gross value, casino settlements the net change and
// special purchases the negated cost. BalanceEffect normalizes these.
type Transaction struct {
	ID        string          `json:"id"`
	Kind      TransactionKind `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Details   string          `json:"details"`
	Timestamp time.Time       `json:"timestamp"`

	InstrumentID string          `json:"instrument_id,omitempty"`
	Shares       decimal.Decimal `json:"shares"`
	Price        decimal.Decimal `json:"price"`
	Game         string          `json:"game,omitempty"`
}

// BalanceEffect returns Amount signed as a balance movement: debits recorded
// as gross values are negated. Casino entries keep the round's net result.
func (t Transaction) BalanceEffect() decimal.Decimal {
	switch t.Kind {
	case KindStockBuy, KindShopPurchase:
		return t.Amount.Neg()
	default:
		return t.Amount
	}
}

type ledgerNode struct {
	tx   Transaction
	next *ledgerNode
}

// Ledger is a persistent newest-first list of transactions. Prepending
// shares the tail with the receiver, so every GameState keeps its own view
// and no version can observe entries added by another.
type Ledger struct {
	head *ledgerNode
	n    int
}

// NewLedger builds a ledger from entries given newest first.
func NewLedger(entries ...Transaction) Ledger {
	var l Ledger
	for i := len(entries) - 1; i >= 0; i-- {
		l = l.Prepend(entries[i])
	}
	return l
}

// Prepend returns a ledger with tx as its newest entry.
func (l Ledger) Prepend(tx Transaction) Ledger {
	return Ledger{head: &ledgerNode{tx: tx, next: l.head}, n: l.n + 1}
}

// Len returns the number of entries.
func (l Ledger) Len() int { return l.n }

// Latest returns the newest entry.
func (l Ledger) Latest() (Transaction, bool) {
	if l.head == nil {
		return Transaction{}, false
	}
	return l.head.tx, true
}

// Entries returns up to limit entries newest first. limit <= 0 means all.
func (l Ledger) Entries(limit int) []Transaction {
	n := l.n
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Transaction, 0, n)
	for node := l.head; node != nil && len(out) < n; node = node.next {
		out = append(out, node.tx)
	}
	return out
}

// Since returns the entries of l that are not in prev, oldest first.
// prev must be an earlier version of l (or unrelated, in which case all of
// l is returned).
func (l Ledger) Since(prev Ledger) []Transaction {
	var out []Transaction
	for node := l.head; node != nil && node != prev.head; node = node.next {
		out = append(out, node.tx)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func (l Ledger) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Entries(0))
}

func (l *Ledger) UnmarshalJSON(data []byte) error {
	var entries []Transaction
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*l = NewLedger(entries...)
	return nil
}
