package models

import (
	"github.com/shopspring/decimal"
)

// Position represents the net holding in a single instrument: a signed
// running quantity (positive = long, negative = short) and the weighted
// average acquisition cost of the units currently held. AveragePrice is
// meaningful only while Quantity != 0; it is reset to zero whenever the
// quantity returns to exactly zero.
type Position struct {
	Instrument   string          `json:"instrument"`
	Quantity     int64           `json:"quantity"`
	AveragePrice decimal.Decimal `json:"average_price"`
}

// NewPosition returns the zero-state position for an instrument.
func NewPosition(instrument string) *Position {
	return &Position{Instrument: instrument}
}

// IsFlat reports whether the position holds no units.
func (p *Position) IsFlat() bool {
	return p.Quantity == 0
}

// UnrealizedPnL returns the mark-to-market profit or loss against the given
// market price. A flat position has zero unrealized P&L regardless of price.
func (p *Position) UnrealizedPnL(marketPrice decimal.Decimal) decimal.Decimal {
	if p.Quantity == 0 {
		return decimal.Zero
	}
	return marketPrice.Sub(p.AveragePrice).Mul(decimal.NewFromInt(p.Quantity))
}

// MarketValue returns the position's value at the given market price.
func (p *Position) MarketValue(marketPrice decimal.Decimal) decimal.Decimal {
	return marketPrice.Mul(decimal.NewFromInt(p.Quantity))
}
