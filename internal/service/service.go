// Package service wraps the single-threaded ledger for concurrent hosts.
// All HTTP and Kafka traffic goes through one Service, whose RWMutex is the
// single mutual-exclusion domain covering both the trade map and the
// position map; the core ledger stays lock-free.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tradeforge/position-service/internal/ledger"
	"github.com/tradeforge/position-service/internal/marketdata"
	"github.com/tradeforge/position-service/internal/metrics"
	"github.com/tradeforge/position-service/internal/models"
)

// ErrUnknownInstrument is returned for reads against an instrument that has
// never traded.
var ErrUnknownInstrument = errors.New("unknown instrument")

// PositionPublisher emits a position snapshot after each mutation. Publishing
// is best-effort: a failed publish is logged, never propagated.
type PositionPublisher interface {
	PublishPositionUpdated(ctx context.Context, pos *models.Position) error
}

// Service is the concurrent facade over the ledger and market data.
type Service struct {
	mu      sync.RWMutex
	ledger  *ledger.Ledger
	prices  marketdata.Source
	metrics *metrics.Metrics
	pub     PositionPublisher
	log     logrus.FieldLogger
}

// New assembles a service. pub may be nil when no event publishing is wired.
func New(l *ledger.Ledger, prices marketdata.Source, m *metrics.Metrics, pub PositionPublisher, log logrus.FieldLogger) *Service {
	return &Service{
		ledger:  l,
		prices:  prices,
		metrics: m,
		pub:     pub,
		log:     log,
	}
}

// RegisterTrade stores a trade and updates its instrument's position.
func (s *Service) RegisterTrade(ctx context.Context, t *models.Trade) {
	start := time.Now()
	s.mu.Lock()
	s.ledger.Register(t)
	pos, _ := s.ledger.GetPosition(t.Instrument)
	s.mu.Unlock()

	s.metrics.TradesRegistered.Inc()
	s.metrics.OpDuration.WithLabelValues("register").Observe(time.Since(start).Seconds())
	s.publishPosition(ctx, &pos)
}

// AmendTrade mutates a stored trade's quantity and/or price and re-applies
// it to the position. Unknown IDs are silent no-ops.
func (s *Service) AmendTrade(ctx context.Context, id int64, newQuantity *int64, newPrice *decimal.Decimal) {
	start := time.Now()
	s.mu.Lock()
	t, known := s.ledger.GetTrade(id)
	s.ledger.Amend(id, newQuantity, newPrice)
	var pos models.Position
	if known {
		pos, _ = s.ledger.GetPosition(t.Instrument)
	}
	s.mu.Unlock()

	s.metrics.OpDuration.WithLabelValues("amend").Observe(time.Since(start).Seconds())
	if !known {
		return
	}
	s.metrics.TradesAmended.Inc()
	s.publishPosition(ctx, &pos)
}

// AmendTradeByDate amends the trade executed for instrument on date.
// Returns ledger.ErrTradeNotFound when no such trade exists.
func (s *Service) AmendTradeByDate(ctx context.Context, instrument string, date time.Time, newQuantity *int64, newPrice *decimal.Decimal) error {
	start := time.Now()
	s.mu.Lock()
	err := s.ledger.AmendByDate(instrument, date, newQuantity, newPrice)
	var pos models.Position
	if err == nil {
		pos, _ = s.ledger.GetPosition(instrument)
	}
	s.mu.Unlock()

	s.metrics.OpDuration.WithLabelValues("amend").Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}
	s.metrics.TradesAmended.Inc()
	s.publishPosition(ctx, &pos)
	return nil
}

// CancelTrade removes a trade and reverses its quantity contribution.
// Unknown IDs are silent no-ops.
func (s *Service) CancelTrade(ctx context.Context, id int64) {
	start := time.Now()
	s.mu.Lock()
	t, known := s.ledger.GetTrade(id)
	s.ledger.Cancel(id)
	var pos models.Position
	if known {
		pos, _ = s.ledger.GetPosition(t.Instrument)
	}
	s.mu.Unlock()

	s.metrics.OpDuration.WithLabelValues("cancel").Observe(time.Since(start).Seconds())
	if !known {
		return
	}
	s.metrics.TradesCancelled.Inc()
	s.publishPosition(ctx, &pos)
}

// GetPosition returns the instrument's current position; ok is false when
// the instrument has never traded.
func (s *Service) GetPosition(instrument string) (models.Position, bool) {
	s.mu.RLock()
	pos, ok := s.ledger.GetPosition(instrument)
	s.mu.RUnlock()
	s.metrics.PositionReads.Inc()
	return pos, ok
}

// GetTrade returns a copy of a live trade.
func (s *Service) GetTrade(id int64) (models.Trade, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.GetTrade(id)
}

// AllPositions returns a snapshot of every position.
func (s *Service) AllPositions() []models.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.AllPositions()
}

// FilterTrades returns live trades matching the filter.
func (s *Service) FilterTrades(f *models.TradeFilter) []models.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.FilterTrades(f)
}

// PositionsAsOf rebuilds positions from trades dated on or before asOf.
func (s *Service) PositionsAsOf(asOf time.Time) map[string]models.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.PositionsAsOf(asOf)
}

// SetPrice upserts an instrument's market price.
func (s *Service) SetPrice(ctx context.Context, instrument string, price decimal.Decimal) error {
	return s.prices.SetPrice(ctx, instrument, price)
}

// UnrealizedPnL marks the instrument's position against priceOverride when
// provided, otherwise against the stored market price.
func (s *Service) UnrealizedPnL(ctx context.Context, instrument string, priceOverride *decimal.Decimal) (decimal.Decimal, error) {
	pos, ok := s.GetPosition(instrument)
	if !ok {
		return decimal.Decimal{}, ErrUnknownInstrument
	}
	price := decimal.Decimal{}
	if priceOverride != nil {
		price = *priceOverride
	} else {
		var err error
		price, err = s.prices.Price(ctx, instrument)
		if err != nil {
			return decimal.Decimal{}, err
		}
	}
	return pos.UnrealizedPnL(price), nil
}

// PortfolioValue marks every open position against current market prices.
func (s *Service) PortfolioValue(ctx context.Context) (ledger.PortfolioSummary, error) {
	positions := s.AllPositions()
	instruments := make([]string, 0, len(positions))
	for _, pos := range positions {
		instruments = append(instruments, pos.Instrument)
	}
	prices, err := marketdata.Snapshot(ctx, s.prices, instruments)
	if err != nil {
		return ledger.PortfolioSummary{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.PortfolioValue(prices), nil
}

func (s *Service) publishPosition(ctx context.Context, pos *models.Position) {
	if s.pub == nil {
		return
	}
	if err := s.pub.PublishPositionUpdated(ctx, pos); err != nil {
		s.log.WithError(err).WithField("instrument", pos.Instrument).Warn("failed to publish position update")
	}
}
