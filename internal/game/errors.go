package game

import "errors"

var (
	// ErrInsufficientFunds is returned when the balance cannot cover a cost.
	ErrInsufficientFunds = errors.New("game: insufficient funds")

	// ErrInsufficientHoldings is returned when selling more shares than held.
	ErrInsufficientHoldings = errors.New("game: insufficient holdings")

	// ErrUnknownIntent is returned for intents outside the vocabulary.
	ErrUnknownIntent = errors.New("game: unknown intent")

	// ErrInvalidIntent is returned for well-typed intents with a malformed
	// payload (non-positive shares, negative stake, empty id).
	ErrInvalidIntent = errors.New("game: invalid intent")

	// ErrStaleOrder is returned when an order total no longer matches the
	// cart it was computed from.
	ErrStaleOrder = errors.New("game: order total does not match cart")
)

// IsRejection reports whether err is one of the reducer's rejection reasons.
// A rejected intent leaves the state unchanged.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrInsufficientHoldings) ||
		errors.Is(err, ErrUnknownIntent) ||
		errors.Is(err, ErrInvalidIntent) ||
		errors.Is(err, ErrStaleOrder)
}
