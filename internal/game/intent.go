package game

import (
	"github.com/shopspring/decimal"

	"github.com/atmx/clicker-engine/internal/model"
)

// Intent is a request to change the game state. The concrete types below are
// the complete vocabulary understood by the Reducer.
type Intent interface {
	IntentName() string
}

// Intent names, used for logging and metric labels.
const (
	NameAdjustBalance      = "adjust_balance"
	NameRecordTransaction  = "record_transaction"
	NameReplaceInstruments = "replace_instruments"
	NameBuyInstrument      = "buy_instrument"
	NameSellInstrument     = "sell_instrument"
	NameUpgradeClick       = "upgrade_click"
	NameUpgradeAuto        = "upgrade_auto"
	NameEarnFromClick      = "earn_click"
	NameEarnFromAutoTick   = "earn_auto"
	NameSettleCasinoBet    = "settle_casino_bet"
	NamePlaceShopOrder     = "place_shop_order"
	NamePurchaseSpecial    = "purchase_special"
	NameResetGame          = "reset_game"
	NameAddToCart          = "add_to_cart"
	NameRemoveFromCart     = "remove_from_cart"
	NameUpdateCartQuantity = "update_cart_quantity"
	NameClearCart          = "clear_cart"
)

// AdjustBalance adds Delta to the balance, flooring the result at zero.
type AdjustBalance struct {
	Delta decimal.Decimal
}

// RecordTransaction prepends Entry to the ledger.
type RecordTransaction struct {
	Entry model.Transaction
}

// ReplaceInstrumentSnapshot replaces the instrument mapping wholesale.
type ReplaceInstrumentSnapshot struct {
	Instruments []model.Instrument
}

// BuyInstrument buys Shares of InstrumentID at Price.
type BuyInstrument struct {
	InstrumentID string
	Shares       decimal.Decimal
	Price        decimal.Decimal
}

// SellInstrument sells Shares of InstrumentID at Price.
type SellInstrument struct {
	InstrumentID string
	Shares       decimal.Decimal
	Price        decimal.Decimal
}

// UpgradeClick raises the click level by one.
type UpgradeClick struct{}

// UpgradeAuto raises the auto-income level by one.
type UpgradeAuto struct{}

// EarnFromClick credits one manual click.
type EarnFromClick struct{}

// EarnFromAutoTick credits one tick of passive income.
type EarnFromAutoTick struct{}

// SettleCasinoBet applies the outcome of a finished casino round.
// WinAmount is the gross payout including the returned stake.
type SettleCasinoBet struct {
	Amount    decimal.Decimal
	Won       bool
	WinAmount decimal.Decimal
	Game      string
}

// PlaceShopOrder charges Total for the current cart and empties it.
type PlaceShopOrder struct {
	Total decimal.Decimal
}

// PurchaseSpecialItem buys the fixed-price special item.
type PurchaseSpecialItem struct{}

// ResetGame starts over with the reset grant.
type ResetGame struct{}

// AddToCart adds Quantity of Product, merging with an existing line.
type AddToCart struct {
	Product  model.Product
	Quantity int
}

// RemoveFromCart drops the line for ProductID.
type RemoveFromCart struct {
	ProductID string
}

// UpdateCartQuantity sets the quantity for ProductID. A quantity <= 0
// removes the line.
type UpdateCartQuantity struct {
	ProductID string
	Quantity  int
}

// ClearCart empties the cart.
type ClearCart struct{}

func (AdjustBalance) IntentName() string             { return NameAdjustBalance }
func (RecordTransaction) IntentName() string         { return NameRecordTransaction }
func (ReplaceInstrumentSnapshot) IntentName() string { return NameReplaceInstruments }
func (BuyInstrument) IntentName() string             { return NameBuyInstrument }
func (SellInstrument) IntentName() string            { return NameSellInstrument }
func (UpgradeClick) IntentName() string              { return NameUpgradeClick }
func (UpgradeAuto) IntentName() string               { return NameUpgradeAuto }
func (EarnFromClick) IntentName() string             { return NameEarnFromClick }
func (EarnFromAutoTick) IntentName() string          { return NameEarnFromAutoTick }
func (SettleCasinoBet) IntentName() string           { return NameSettleCasinoBet }
func (PlaceShopOrder) IntentName() string            { return NamePlaceShopOrder }
func (PurchaseSpecialItem) IntentName() string       { return NamePurchaseSpecial }
func (ResetGame) IntentName() string                 { return NameResetGame }
func (AddToCart) IntentName() string                 { return NameAddToCart }
func (RemoveFromCart) IntentName() string            { return NameRemoveFromCart }
func (UpdateCartQuantity) IntentName() string        { return NameUpdateCartQuantity }
func (ClearCart) IntentName() string                 { return NameClearCart }

// nameOf returns a label for in that is safe for nil.
func nameOf(in Intent) string {
	if in == nil {
		return "nil"
	}
	return in.IntentName()
}
