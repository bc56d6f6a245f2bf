package casino

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/shopspring/decimal"
)

// Hand is a rock-paper-scissors throw.
type Hand string

const (
	Rock     Hand = "rock"
	Paper    Hand = "paper"
	Scissors Hand = "scissors"
)

var hands = []Hand{Rock, Paper, Scissors}

// beats maps each hand to the hand it defeats.
var beats = map[Hand]Hand{
	Rock:     Scissors,
	Paper:    Rock,
	Scissors: Paper,
}

var ErrInvalidHand = errors.New("casino: invalid hand")

// ParseHand validates a throw.
func ParseHand(s string) (Hand, error) {
	h := Hand(s)
	if _, ok := beats[h]; !ok {
		return "", fmt.Errorf("%w: %q (expected rock, paper or scissors)", ErrInvalidHand, s)
	}
	return h, nil
}

// Outcome is the result of a round from the player's side.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
	OutcomeDraw Outcome = "draw"
)

// Throw draws the house's hand.
func Throw(rng *rand.Rand) Hand {
	return hands[rng.IntN(len(hands))]
}

// Judge compares player against house.
func Judge(player, house Hand) Outcome {
	switch {
	case player == house:
		return OutcomeDraw
	case beats[player] == house:
		return OutcomeWin
	default:
		return OutcomeLose
	}
}

// RPSPayout is the gross payout: 2x on a win, the stake back on a draw.
func RPSPayout(o Outcome, stake decimal.Decimal) decimal.Decimal {
	switch o {
	case OutcomeWin:
		return stake.Mul(decimal.NewFromInt(2))
	case OutcomeDraw:
		return stake
	default:
		return decimal.Zero
	}
}
