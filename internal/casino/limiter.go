// Package casino implements the slot machine, blackjack and
// rock-paper-scissors rounds. Every finished round produces exactly one
// game.SettleCasinoBet.
package casino

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrStakeBelowMinimum is returned when a stake is under the table minimum.
	ErrStakeBelowMinimum = errors.New("casino: stake below table minimum")

	// ErrStakeAboveMaximum is returned when a stake is over the table maximum.
	ErrStakeAboveMaximum = errors.New("casino: stake above table maximum")

	// ErrStakeExceedsBalance is returned when the player cannot cover the stake.
	ErrStakeExceedsBalance = errors.New("casino: stake exceeds balance")
)

// DefaultMinStake matches the smallest bet the tables offer.
var DefaultMinStake = decimal.NewFromInt(10)

// BetLimiter validates a stake before a round is played. The game store
// does not check stake affordability on settlement, so every round offered
// to a player goes through CheckBet first.
type BetLimiter struct {
	// MinStake is the smallest accepted stake.
	MinStake decimal.Decimal

	// MaxStake is the largest accepted stake. Zero means no table maximum.
	MaxStake decimal.Decimal
}

// NewBetLimiter creates a limiter. A non-positive minStake is raised to one
// currency unit.
func NewBetLimiter(minStake, maxStake decimal.Decimal) *BetLimiter {
	if !minStake.IsPositive() {
		minStake = decimal.NewFromInt(1)
	}
	return &BetLimiter{MinStake: minStake, MaxStake: maxStake}
}

// CheckBet returns nil if stake may be played against balance.
func (l *BetLimiter) CheckBet(stake, balance decimal.Decimal) error {
	if stake.LessThan(l.MinStake) {
		return ErrStakeBelowMinimum
	}
	if l.MaxStake.IsPositive() && stake.GreaterThan(l.MaxStake) {
		return ErrStakeAboveMaximum
	}
	if stake.GreaterThan(balance) {
		return ErrStakeExceedsBalance
	}
	return nil
}
