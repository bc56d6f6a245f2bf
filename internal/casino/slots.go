package casino

import (
	"math/rand/v2"

	"github.com/shopspring/decimal"
)

// Symbol is one face of a slot reel.
type Symbol string

const (
	Cherry  Symbol = "cherry"
	Lemon   Symbol = "lemon"
	Bell    Symbol = "bell"
	Star    Symbol = "star"
	Diamond Symbol = "diamond"
	Grape   Symbol = "grape"
	Seven   Symbol = "seven"
)

// Symbols lists every reel face.
var Symbols = []Symbol{Cherry, Lemon, Bell, Star, Diamond, Grape, Seven}

// Three-of-a-kind multipliers, in tenths of the stake.
var slotPayouts = map[Symbol]int64{
	Cherry:  50,
	Lemon:   30,
	Bell:    100,
	Star:    200,
	Diamond: 500,
	Grape:   75,
	Seven:   1000,
}

const anyTwoPayout = 5

var ten = decimal.NewFromInt(10)

// Reels is the result of one spin.
type Reels [3]Symbol

// Spin draws three independent reel faces.
func Spin(rng *rand.Rand) Reels {
	var r Reels
	for i := range r {
		r[i] = Symbols[rng.IntN(len(Symbols))]
	}
	return r
}

// SlotPayout returns the gross payout for reels at stake. Three of a kind
// pays multiplier*stake/10; any two matching faces pay 5*stake/10.
func SlotPayout(r Reels, stake decimal.Decimal) decimal.Decimal {
	if r[0] == r[1] && r[1] == r[2] {
		return decimal.NewFromInt(slotPayouts[r[0]]).Mul(stake).Div(ten)
	}
	if r[0] == r[1] || r[1] == r[2] || r[0] == r[2] {
		return decimal.NewFromInt(anyTwoPayout).Mul(stake).Div(ten)
	}
	return decimal.Zero
}
