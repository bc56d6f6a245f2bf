package model

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Position is a holding of one instrument. A Position only exists while
// Shares > 0.
type Position struct {
	Shares   decimal.Decimal `json:"shares"`
	AvgPrice decimal.Decimal `json:"avg_price"` // volume-weighted average cost
}

// Portfolio maps instrument id to the player's position.
type Portfolio map[string]Position

// Clone returns a copy that can be changed without touching p.
func (p Portfolio) Clone() Portfolio {
	out := make(Portfolio, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Valuation is one position marked to the latest quote.
type Valuation struct {
	InstrumentID  string          `json:"instrument_id"`
	Shares        decimal.Decimal `json:"shares"`
	AvgPrice      decimal.Decimal `json:"avg_price"`
	Price         decimal.Decimal `json:"price"`
	MarketValue   decimal.Decimal `json:"market_value"`
	CostBasis     decimal.Decimal `json:"cost_basis"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"` // shares * (price - avgPrice)
	GainPercent   decimal.Decimal `json:"gain_percent"`
}

// PortfolioSummary aggregates valuations across all positions.
type PortfolioSummary struct {
	Positions        []Valuation     `json:"positions"`
	TotalValue       decimal.Decimal `json:"total_value"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	TotalGain        decimal.Decimal `json:"total_gain"`
	TotalGainPercent decimal.Decimal `json:"total_gain_percent"`
}

var hundred = decimal.NewFromInt(100)

// Value marks every position to the instrument snapshot. Positions without
// a quote are valued at their average price.
func (p Portfolio) Value(instruments map[string]Instrument) PortfolioSummary {
	ids := make([]string, 0, len(p))
	for id := range p {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	summary := PortfolioSummary{Positions: make([]Valuation, 0, len(ids))}
	for _, id := range ids {
		pos := p[id]
		price := pos.AvgPrice
		if inst, ok := instruments[id]; ok {
			price = inst.Price
		}

		cost := pos.Shares.Mul(pos.AvgPrice)
		value := pos.Shares.Mul(price)
		pnl := value.Sub(cost)
		pct := decimal.Zero
		if cost.IsPositive() {
			pct = pnl.Div(cost).Mul(hundred).Round(2)
		}

		summary.Positions = append(summary.Positions, Valuation{
			InstrumentID:  id,
			Shares:        pos.Shares,
			AvgPrice:      pos.AvgPrice,
			Price:         price,
			MarketValue:   value,
			CostBasis:     cost,
			UnrealizedPnL: pnl,
			GainPercent:   pct,
		})
		summary.TotalValue = summary.TotalValue.Add(value)
		summary.TotalCost = summary.TotalCost.Add(cost)
	}

	summary.TotalGain = summary.TotalValue.Sub(summary.TotalCost)
	if summary.TotalCost.IsPositive() {
		summary.TotalGainPercent = summary.TotalGain.Div(summary.TotalCost).Mul(hundred).Round(2)
	}
	return summary
}
