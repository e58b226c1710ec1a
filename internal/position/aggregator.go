// Package position implements the pure state-transition arithmetic for
// per-instrument positions: given a position's current quantity and weighted
// average price and one trade event, it computes the next state. It holds no
// storage of its own; the ledger package owns the maps and calls in here.
package position

import (
	"github.com/shopspring/decimal"

	"github.com/tradeforge/position-service/internal/models"
)

// ApplyTrade returns the position after a newly registered trade.
//
// A buy folds the trade into the weighted average cost:
//
//	newAvg = (avg*oldQty + price*qty) / (oldQty + qty)
//
// When the resulting quantity is exactly zero (a buy that closes out a short
// of the same size) the division is undefined; instead of erroring, the
// average price resets to zero, matching the flat-position invariant.
//
// A sell only reduces quantity. It never touches the average price unless it
// flattens the position, in which case the average resets to zero. Selling
// does not change the cost basis of remaining inventory.
//
// The resulting quantity may go negative; a short position is a valid state.
func ApplyTrade(pos models.Position, t *models.Trade) models.Position {
	switch t.Side {
	case models.SideBuy:
		oldQty := pos.Quantity
		newQty := oldQty + t.Quantity
		pos.Quantity = newQty
		if newQty == 0 {
			pos.AveragePrice = decimal.Zero
			break
		}
		held := pos.AveragePrice.Mul(decimal.NewFromInt(oldQty))
		bought := t.Price.Mul(decimal.NewFromInt(t.Quantity))
		pos.AveragePrice = held.Add(bought).Div(decimal.NewFromInt(newQty))
	case models.SideSell:
		pos.Quantity -= t.Quantity
		if pos.Quantity == 0 {
			pos.AveragePrice = decimal.Zero
		}
	}
	return pos
}

// ApplyAmendment returns the position after an already-registered trade has
// been mutated in place. The amended trade is re-applied on top of the
// current position as if it were an independent new trade; the original
// contribution is NOT reversed first. This double-counts the trade's original
// effect and is kept deliberately as the reference contract (pinned by
// regression fixtures in the ledger tests).
func ApplyAmendment(pos models.Position, amended *models.Trade) models.Position {
	return ApplyTrade(pos, amended)
}

// ApplyCancellation returns the position after a trade is removed. Only the
// trade's signed quantity contribution is reversed; its weight in the average
// price is not un-wound. The average resets to zero only when the resulting
// quantity is exactly zero.
func ApplyCancellation(pos models.Position, t *models.Trade) models.Position {
	pos.Quantity -= t.SignedQuantity()
	if pos.Quantity == 0 {
		pos.AveragePrice = decimal.Zero
	}
	return pos
}
