package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event type constants for the trade and position topics.
const (
	EventTradeCreated    = "TRADE_CREATED"
	EventTradeAmended    = "TRADE_AMENDED"
	EventTradeCancelled  = "TRADE_CANCELLED"
	EventPositionUpdated = "POSITION_UPDATED"
)

// TradeEvent is the wire shape for trade lifecycle events. Trade is set for
// TRADE_CREATED; TradeID identifies the target for amendments and
// cancellations. NewQuantity/NewPrice are omitted when the amendment leaves
// the field unchanged.
type TradeEvent struct {
	EventType   string           `json:"event_type"`
	Trade       *Trade           `json:"trade,omitempty"`
	TradeID     int64            `json:"trade_id,omitempty"`
	NewQuantity *int64           `json:"new_quantity,omitempty"`
	NewPrice    *decimal.Decimal `json:"new_price,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}

// PositionEvent is published after every mutation that touches a position.
type PositionEvent struct {
	EventType  string    `json:"event_type"`
	Instrument string    `json:"instrument"`
	Position   *Position `json:"position,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
