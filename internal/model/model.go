// Package model defines the game state types shared across the clicker engine.
// All monetary values use shopspring/decimal, never float64.
package model

import (
	"github.com/shopspring/decimal"
)

// ResetBalance is the starting grant applied by a game reset.
var ResetBalance = decimal.NewFromInt(100_000_000)

// Account holds the player's currency. Balance is never negative.
type Account struct {
	Balance decimal.Decimal `json:"balance"`
}

// Levels holds the progression counters bought in the shop.
type Levels struct {
	Click int64 `json:"click_level"` // currency per manual click, >= 1
	Auto  int64 `json:"auto_level"`  // currency per auto-income tick, >= 0
}

// Instrument is the latest known quote for one tradable symbol.
type Instrument struct {
	ID            string          `json:"id"`
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Volume        int64           `json:"volume"`
}

// Product is an item sold in the shop.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Rating      float64         `json:"rating"`
	Reviews     int             `json:"reviews"`
}

// CartItem is a product with the quantity the player wants to order.
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Cart is an ordered list of items, unique by product id.
type Cart []CartItem

// Index returns the position of productID in the cart or -1.
func (c Cart) Index(productID string) int {
	for i, item := range c {
		if item.Product.ID == productID {
			return i
		}
	}
	return -1
}

// Total is the sum of price*quantity over all items.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c {
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// Quantity is the number of units across all items.
func (c Cart) Quantity() int {
	n := 0
	for _, item := range c {
		n += item.Quantity
	}
	return n
}

// GameState is the complete state of one game. A GameState is never mutated
// in place; the reducer produces a new value for every accepted intent.
type GameState struct {
	Account     Account               `json:"account"`
	Levels      Levels                `json:"levels"`
	Instruments map[string]Instrument `json:"instruments"`
	Portfolio   Portfolio             `json:"portfolio"`
	Cart        Cart                  `json:"cart"`
	Ledger      Ledger                `json:"ledger"`
}

// NewGameState returns the state a game starts with.
func NewGameState() GameState {
	return GameState{
		Account:     Account{Balance: decimal.Zero},
		Levels:      Levels{Click: 1, Auto: 0},
		Instruments: map[string]Instrument{},
		Portfolio:   Portfolio{},
		Cart:        Cart{},
	}
}

// ResetGameState returns a fresh state seeded with ResetBalance.
func ResetGameState() GameState {
	s := NewGameState()
	s.Account.Balance = ResetBalance
	return s
}

// ClickUpgradeCost is the price of raising the click level from level.
func ClickUpgradeCost(level int64) decimal.Decimal {
	return decimal.NewFromInt(level * level * 10)
}

// AutoUpgradeCost is the price of raising the auto level from level to level+1.
func AutoUpgradeCost(level int64) decimal.Decimal {
	next := level + 1
	return decimal.NewFromInt(next * next * 50)
}
