// Package market produces the simulated instrument quotes that the game
// trades against.
package market

import (
	"errors"
	"fmt"
	"regexp"
)

// Listing is a tradable symbol and its display name.
type Listing struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Listings is the fixed universe of instruments, in display order.
var Listings = []Listing{
	{"AAPL", "Apple Inc."},
	{"GOOGL", "Alphabet Inc."},
	{"MSFT", "Microsoft Corp."},
	{"AMZN", "Amazon.com Inc."},
	{"TSLA", "Tesla Inc."},
	{"META", "Meta Platforms Inc."},
	{"NVDA", "NVIDIA Corp."},
	{"NFLX", "Netflix Inc."},
	{"DIS", "Walt Disney Co."},
	{"UBER", "Uber Technologies Inc."},
}

// symbolRegex matches an exchange ticker: 1-5 upper-case letters.
var symbolRegex = regexp.MustCompile(`^[A-Z]{1,5}$`)

var (
	ErrInvalidSymbol = errors.New("market: invalid symbol format")
	ErrUnknownSymbol = errors.New("market: symbol not listed")
)

// ParseSymbol validates symbol and returns its listing.
func ParseSymbol(symbol string) (Listing, error) {
	if !symbolRegex.MatchString(symbol) {
		return Listing{}, fmt.Errorf("%w: %q (expected 1-5 upper-case letters)", ErrInvalidSymbol, symbol)
	}
	for _, l := range Listings {
		if l.Symbol == symbol {
			return l, nil
		}
	}
	return Listing{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
}

// ValidSymbol reports whether symbol is a listed instrument id.
func ValidSymbol(symbol string) bool {
	_, err := ParseSymbol(symbol)
	return err == nil
}
