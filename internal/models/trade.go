package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade side constants
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Trade type constants
const (
	TradeTypeMarket = "MARKET"
	TradeTypeLimit  = "LIMIT"
	TradeTypeStop   = "STOP"
)

// Trade status constants
const (
	TradeStatusActive    = "ACTIVE"
	TradeStatusAmended   = "AMENDED"
	TradeStatusCancelled = "CANCELLED"
)

// Trade represents a single execution against an instrument. The ID is
// caller-assigned and must be unique among live trades; registering a second
// trade under the same ID silently replaces the first in the trade map
// (last-write-wins) while both still contribute to the position recurrence.
type Trade struct {
	ID         int64           `json:"id"`
	Date       time.Time       `json:"date"`
	Instrument string          `json:"instrument"`
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Side       string          `json:"side"`
	Type       string          `json:"type,omitempty"`
	Status     string          `json:"status,omitempty"`
}

// NewTrade builds a market trade in active status.
func NewTrade(id int64, date time.Time, instrument string, quantity int64, price decimal.Decimal, side string) *Trade {
	return &Trade{
		ID:         id,
		Date:       date,
		Instrument: instrument,
		Quantity:   quantity,
		Price:      price,
		Side:       side,
		Type:       TradeTypeMarket,
		Status:     TradeStatusActive,
	}
}

// SignedQuantity returns the trade's effect on net position quantity:
// positive for a buy, negative for a sell.
func (t *Trade) SignedQuantity() int64 {
	if t.Side == SideSell {
		return -t.Quantity
	}
	return t.Quantity
}

// TradeFilter selects trades by any combination of criteria. A nil field
// means "no constraint"; date bounds are inclusive.
type TradeFilter struct {
	Instrument  *string          `json:"instrument,omitempty"`
	Side        *string          `json:"side,omitempty"`
	Type        *string          `json:"type,omitempty"`
	Status      *string          `json:"status,omitempty"`
	DateFrom    *time.Time       `json:"date_from,omitempty"`
	DateTo      *time.Time       `json:"date_to,omitempty"`
	MinQuantity *int64           `json:"min_quantity,omitempty"`
	MaxQuantity *int64           `json:"max_quantity,omitempty"`
	MinPrice    *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice    *decimal.Decimal `json:"max_price,omitempty"`
}

// NewTradeFilter returns an empty filter that matches every trade.
func NewTradeFilter() *TradeFilter {
	return &TradeFilter{}
}

// WithInstrument constrains the filter to one instrument.
func (f *TradeFilter) WithInstrument(instrument string) *TradeFilter {
	f.Instrument = &instrument
	return f
}

// WithSide constrains the filter to one trade side.
func (f *TradeFilter) WithSide(side string) *TradeFilter {
	f.Side = &side
	return f
}

// WithType constrains the filter to one trade type.
func (f *TradeFilter) WithType(tradeType string) *TradeFilter {
	f.Type = &tradeType
	return f
}

// WithStatus constrains the filter to one trade status.
func (f *TradeFilter) WithStatus(status string) *TradeFilter {
	f.Status = &status
	return f
}

// WithDateRange constrains the filter to trades dated within [from, to].
func (f *TradeFilter) WithDateRange(from, to time.Time) *TradeFilter {
	f.DateFrom = &from
	f.DateTo = &to
	return f
}

// WithQuantityRange constrains the filter to quantities within [min, max].
func (f *TradeFilter) WithQuantityRange(min, max int64) *TradeFilter {
	f.MinQuantity = &min
	f.MaxQuantity = &max
	return f
}

// WithPriceRange constrains the filter to prices within [min, max].
func (f *TradeFilter) WithPriceRange(min, max decimal.Decimal) *TradeFilter {
	f.MinPrice = &min
	f.MaxPrice = &max
	return f
}

// Matches reports whether the trade satisfies every set constraint.
func (f *TradeFilter) Matches(t *Trade) bool {
	if f.Instrument != nil && t.Instrument != *f.Instrument {
		return false
	}
	if f.Side != nil && t.Side != *f.Side {
		return false
	}
	if f.Type != nil && t.Type != *f.Type {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.DateFrom != nil && t.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && t.Date.After(*f.DateTo) {
		return false
	}
	if f.MinQuantity != nil && t.Quantity < *f.MinQuantity {
		return false
	}
	if f.MaxQuantity != nil && t.Quantity > *f.MaxQuantity {
		return false
	}
	if f.MinPrice != nil && t.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && t.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}
