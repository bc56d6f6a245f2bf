package market

import (
	"math"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"github.com/atmx/clicker-engine/internal/model"
)

const (
	minBasePrice  = 50.0
	basePriceSpan = 500.0
	initialSwing  = 0.10 // change drawn from +-5% of the base price
	stepSwing     = 0.02 // each step moves the price +-1%
	minVolume     = 1_000_000
	volumeSpan    = 10_000_000
	volumeJitter  = 100_000 // +-50000 per step
)

var minPrice = decimal.RequireFromString("0.01")

// Generator is a random walk over Listings. It is not safe for concurrent
// use; Feed serializes access.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator drawing from src.
func NewGenerator(src rand.Source) *Generator {
	return &Generator{rng: rand.New(src)}
}

// Initial returns a fresh quote for every listing.
func (g *Generator) Initial() []model.Instrument {
	out := make([]model.Instrument, 0, len(Listings))
	for _, l := range Listings {
		base := g.rng.Float64()*basePriceSpan + minBasePrice
		change := (g.rng.Float64() - 0.5) * base * initialSwing
		out = append(out, model.Instrument{
			ID:            l.Symbol,
			Symbol:        l.Symbol,
			Name:          l.Name,
			Price:         round2(base),
			Change:        round2(change),
			ChangePercent: round2(change / base * 100),
			Volume:        int64(g.rng.Float64()*volumeSpan) + minVolume,
		})
	}
	return out
}

// Step moves every quote in prev by one tick of the walk. Change and
// ChangePercent describe the move from the previous price.
func (g *Generator) Step(prev []model.Instrument) []model.Instrument {
	out := make([]model.Instrument, len(prev))
	for i, inst := range prev {
		old := inst.Price
		delta := (g.rng.Float64() - 0.5) * old.InexactFloat64() * stepSwing
		price := old.Add(decimal.NewFromFloat(delta)).Round(2)
		if price.LessThan(minPrice) {
			price = minPrice
		}

		change := price.Sub(old)
		pct := decimal.Zero
		if old.IsPositive() {
			pct = change.Div(old).Mul(decimal.NewFromInt(100)).Round(2)
		}

		volume := inst.Volume + int64(math.Floor((g.rng.Float64()-0.5)*volumeJitter))
		if volume < 0 {
			volume = 0
		}

		inst.Price = price
		inst.Change = change.Round(2)
		inst.ChangePercent = pct
		inst.Volume = volume
		out[i] = inst
	}
	return out
}

func round2(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}
