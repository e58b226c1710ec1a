// Package ledger owns the authoritative trade record and the per-instrument
// positions derived from it. All position arithmetic is delegated to the
// position package; this package does the lookups, mutation orchestration,
// and query surface.
//
// The ledger itself is not safe for concurrent use. A concurrent host must
// route all calls through a single mutual-exclusion domain (see the service
// package), because every mutation is a read-modify-write across both the
// trade map and the position map.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradeforge/position-service/internal/models"
	"github.com/tradeforge/position-service/internal/position"
)

// ErrTradeNotFound is returned by date-keyed lookups. Amend and Cancel by ID
// deliberately do NOT return it: an unknown ID there is a silent no-op.
var ErrTradeNotFound = errors.New("trade not found")

// Ledger holds all live trades keyed by ID and the derived position for each
// instrument that has ever traded. Positions are created lazily and never
// destroyed; a fully unwound instrument sits at quantity zero.
type Ledger struct {
	trades    map[int64]*models.Trade
	positions map[string]*models.Position
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		trades:    make(map[int64]*models.Trade),
		positions: make(map[string]*models.Position),
	}
}

// Register stores the trade and folds it into its instrument's position.
// The ledger keeps its own copy; the caller's value is never aliased.
//
// Reusing an ID does not fail: the trade map keeps only the later trade
// (last-write-wins), but both registrations contribute to the position.
func (l *Ledger) Register(t *models.Trade) {
	stored := *t
	if stored.Type == "" {
		stored.Type = models.TradeTypeMarket
	}
	if stored.Status == "" {
		stored.Status = models.TradeStatusActive
	}
	l.trades[stored.ID] = &stored

	pos, ok := l.positions[stored.Instrument]
	if !ok {
		pos = models.NewPosition(stored.Instrument)
		l.positions[stored.Instrument] = pos
	}
	*pos = position.ApplyTrade(*pos, &stored)
}

// Amend mutates the stored trade's quantity and/or price in place and
// re-applies it to the instrument's position. A nil field leaves the stored
// value unchanged; a provided value is applied even when it is zero.
//
// An unknown ID is a silent no-op, not an error.
func (l *Ledger) Amend(id int64, newQuantity *int64, newPrice *decimal.Decimal) {
	t, ok := l.trades[id]
	if !ok {
		return
	}
	if newQuantity != nil {
		t.Quantity = *newQuantity
	}
	if newPrice != nil {
		t.Price = *newPrice
	}
	t.Status = models.TradeStatusAmended

	pos := l.positions[t.Instrument]
	*pos = position.ApplyAmendment(*pos, t)
}

// AmendByDate finds the trade for an instrument executed on the given date
// and amends it. Unlike Amend, a miss is reported: this is the one ledger
// operation defined to fail on lookup.
func (l *Ledger) AmendByDate(instrument string, date time.Time, newQuantity *int64, newPrice *decimal.Decimal) error {
	for id, t := range l.trades {
		if t.Instrument == instrument && t.Date.Equal(date) {
			l.Amend(id, newQuantity, newPrice)
			return nil
		}
	}
	return fmt.Errorf("no trade for %s on %s: %w", instrument, date.Format("2006-01-02"), ErrTradeNotFound)
}

// Cancel removes the trade and reverses its quantity contribution to the
// position, using the trade's state at cancellation time (post any prior
// amendments). The average price is untouched unless the position flattens.
//
// An unknown ID is a silent no-op, not an error.
func (l *Ledger) Cancel(id int64) {
	t, ok := l.trades[id]
	if !ok {
		return
	}
	delete(l.trades, id)

	pos := l.positions[t.Instrument]
	*pos = position.ApplyCancellation(*pos, t)
}

// GetPosition returns a copy of the instrument's current position. The
// second return is false when the instrument has never traded; the read
// never creates state.
func (l *Ledger) GetPosition(instrument string) (models.Position, bool) {
	pos, ok := l.positions[instrument]
	if !ok {
		return models.Position{}, false
	}
	return *pos, true
}

// GetTrade returns a copy of a live trade.
func (l *Ledger) GetTrade(id int64) (models.Trade, bool) {
	t, ok := l.trades[id]
	if !ok {
		return models.Trade{}, false
	}
	return *t, true
}

// TradeCount returns the number of live trades.
func (l *Ledger) TradeCount() int {
	return len(l.trades)
}

// AllPositions returns a snapshot of every instrument's position, ordered
// by instrument for stable output.
func (l *Ledger) AllPositions() []models.Position {
	out := make([]models.Position, 0, len(l.positions))
	for _, pos := range l.positions {
		out = append(out, *pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instrument < out[j].Instrument })
	return out
}

// FilterTrades returns copies of all live trades matching the filter,
// ordered by ID.
func (l *Ledger) FilterTrades(f *models.TradeFilter) []models.Trade {
	var out []models.Trade
	for _, t := range l.trades {
		if f == nil || f.Matches(t) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TradesBetween returns copies of all live trades dated within [from, to],
// ordered by ID.
func (l *Ledger) TradesBetween(from, to time.Time) []models.Trade {
	return l.FilterTrades(models.NewTradeFilter().WithDateRange(from, to))
}

// PositionsAsOf rebuilds the position map from only the live trades dated on
// or before asOf, replayed in chronological order (ties broken by ID so the
// replay is deterministic). The current positions are not touched.
func (l *Ledger) PositionsAsOf(asOf time.Time) map[string]models.Position {
	var replay []*models.Trade
	for _, t := range l.trades {
		if !t.Date.After(asOf) {
			replay = append(replay, t)
		}
	}
	sort.Slice(replay, func(i, j int) bool {
		if replay[i].Date.Equal(replay[j].Date) {
			return replay[i].ID < replay[j].ID
		}
		return replay[i].Date.Before(replay[j].Date)
	})

	out := make(map[string]models.Position)
	for _, t := range replay {
		out[t.Instrument] = position.ApplyTrade(out[t.Instrument], t)
	}
	for instrument, pos := range out {
		pos.Instrument = instrument
		out[instrument] = pos
	}
	return out
}

// PositionHistory returns the instrument's position at the end of each day
// in [from, to], one entry per day.
func (l *Ledger) PositionHistory(instrument string, from, to time.Time) []models.Position {
	var out []models.Position
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		asOf := l.PositionsAsOf(day)
		pos, ok := asOf[instrument]
		if !ok {
			pos = *models.NewPosition(instrument)
		}
		out = append(out, pos)
	}
	return out
}

// PortfolioSummary aggregates mark-to-market figures across positions.
type PortfolioSummary struct {
	MarketValue   decimal.Decimal `json:"market_value"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
}

// PortfolioValue sums market value and unrealized P&L over all positions
// using the supplied price snapshot. Instruments without a quoted price are
// skipped, as are flat positions.
func (l *Ledger) PortfolioValue(prices map[string]decimal.Decimal) PortfolioSummary {
	var s PortfolioSummary
	for instrument, pos := range l.positions {
		if pos.Quantity == 0 {
			continue
		}
		price, ok := prices[instrument]
		if !ok {
			continue
		}
		s.MarketValue = s.MarketValue.Add(pos.MarketValue(price))
		s.UnrealizedPnL = s.UnrealizedPnL.Add(pos.UnrealizedPnL(price))
	}
	return s
}
