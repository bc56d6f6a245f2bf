package casino

import (
	"errors"
	"math/rand/v2"

	"github.com/shopspring/decimal"
)

// Card is a playing card. Rank is one of A, 2-10, J, Q, K.
type Card struct {
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

var (
	suits = []string{"spades", "hearts", "diamonds", "clubs"}
	ranks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
)

func (c Card) points() int {
	switch c.Rank {
	case "A":
		return 11
	case "J", "Q", "K", "10":
		return 10
	default:
		return int(c.Rank[0] - '0')
	}
}

// HandValue scores cards, counting aces as 11 and demoting them to 1 one
// at a time while the total is over 21.
func HandValue(cards []Card) int {
	value, aces := 0, 0
	for _, c := range cards {
		if c.Rank == "A" {
			aces++
		}
		value += c.points()
	}
	for value > 21 && aces > 0 {
		value -= 10
		aces--
	}
	return value
}

// NewDeck returns a shuffled 52-card deck.
func NewDeck(rng *rand.Rand) []Card {
	deck := make([]Card, 0, len(suits)*len(ranks))
	for _, s := range suits {
		for _, r := range ranks {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

// RoundStatus is the blackjack round state.
type RoundStatus string

const (
	StatusPlaying  RoundStatus = "playing"
	StatusFinished RoundStatus = "finished"
)

// Result is how a finished blackjack round ended.
type Result string

const (
	ResultBlackjack  Result = "blackjack"
	ResultWin        Result = "win"
	ResultDealerBust Result = "dealer-bust"
	ResultPush       Result = "push"
	ResultLose       Result = "lose"
	ResultBust       Result = "bust"
)

// dealerStandsOn is the total at which the dealer stops drawing.
const dealerStandsOn = 17

var ErrRoundFinished = errors.New("casino: round already finished")

// Round is one blackjack hand. The zero value is not usable; see Deal.
type Round struct {
	ID     string
	Stake  decimal.Decimal
	Player []Card
	Dealer []Card
	Status RoundStatus
	Result Result

	deck []Card
}

// Deal starts a round: two cards each, alternating player then dealer. A
// natural 21 for the player ends the round at once.
func Deal(id string, stake decimal.Decimal, deck []Card) *Round {
	r := &Round{ID: id, Stake: stake, Status: StatusPlaying, deck: deck}
	r.Player = append(r.Player, r.draw())
	r.Dealer = append(r.Dealer, r.draw())
	r.Player = append(r.Player, r.draw())
	r.Dealer = append(r.Dealer, r.draw())

	if HandValue(r.Player) == 21 {
		if HandValue(r.Dealer) == 21 {
			r.finish(ResultPush)
		} else {
			r.finish(ResultBlackjack)
		}
	}
	return r
}

// Hit draws one card for the player. Going over 21 ends the round.
func (r *Round) Hit() error {
	if r.Status == StatusFinished {
		return ErrRoundFinished
	}
	r.Player = append(r.Player, r.draw())
	if HandValue(r.Player) > 21 {
		r.finish(ResultBust)
	}
	return nil
}

// Stand ends the player's turn. The dealer draws until reaching 17 and the
// round is scored.
func (r *Round) Stand() error {
	if r.Status == StatusFinished {
		return ErrRoundFinished
	}
	for HandValue(r.Dealer) < dealerStandsOn {
		r.Dealer = append(r.Dealer, r.draw())
	}

	player, dealer := HandValue(r.Player), HandValue(r.Dealer)
	switch {
	case dealer > 21:
		r.finish(ResultDealerBust)
	case player > dealer:
		r.finish(ResultWin)
	case player < dealer:
		r.finish(ResultLose)
	default:
		r.finish(ResultPush)
	}
	return nil
}

// Payout is the gross amount returned to the player for the round result.
func (r *Round) Payout() decimal.Decimal {
	switch r.Result {
	case ResultBlackjack:
		return r.Stake.Mul(decimal.RequireFromString("2.5"))
	case ResultWin, ResultDealerBust:
		return r.Stake.Mul(decimal.NewFromInt(2))
	case ResultPush:
		return r.Stake
	default:
		return decimal.Zero
	}
}

// RoundView is the player-visible state of a round. The dealer's hole card
// stays hidden until the round finishes.
type RoundView struct {
	ID          string          `json:"id"`
	Stake       decimal.Decimal `json:"stake"`
	Player      []Card          `json:"player"`
	Dealer      []Card          `json:"dealer"`
	PlayerValue int             `json:"player_value"`
	DealerValue int             `json:"dealer_value"`
	Status      RoundStatus     `json:"status"`
	Result      Result          `json:"result,omitempty"`
	Payout      decimal.Decimal `json:"payout"`
}

// View returns the round as the player may see it.
func (r *Round) View() RoundView {
	dealer := r.Dealer
	if r.Status == StatusPlaying {
		dealer = dealer[:1]
	}
	return RoundView{
		ID:          r.ID,
		Stake:       r.Stake,
		Player:      append([]Card(nil), r.Player...),
		Dealer:      append([]Card(nil), dealer...),
		PlayerValue: HandValue(r.Player),
		DealerValue: HandValue(dealer),
		Status:      r.Status,
		Result:      r.Result,
		Payout:      r.Payout(),
	}
}

func (r *Round) finish(res Result) {
	r.Status = StatusFinished
	r.Result = res
}

// draw takes the top card. A round never needs more than a deck: at most
// 11 cards reach 21 for either side.
func (r *Round) draw() Card {
	c := r.deck[0]
	r.deck = r.deck[1:]
	return c
}
