// Package marketdata provides current market prices for mark-to-market
// valuation. Two implementations share one interface: an in-process store
// and a Redis-backed store for deployments where prices are fed by an
// external ticker process.
package marketdata

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

// ErrNoPrice is returned when no price has been quoted for an instrument.
var ErrNoPrice = errors.New("no market price")

// Source quotes and accepts market prices per instrument.
type Source interface {
	Price(ctx context.Context, instrument string) (decimal.Decimal, error)
	SetPrice(ctx context.Context, instrument string, price decimal.Decimal) error
}

// Snapshot collects prices for the given instruments into a map, skipping
// instruments with no quote. Any other source error aborts the snapshot.
func Snapshot(ctx context.Context, src Source, instruments []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(instruments))
	for _, instrument := range instruments {
		price, err := src.Price(ctx, instrument)
		if errors.Is(err, ErrNoPrice) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[instrument] = price
	}
	return out, nil
}

// MemoryStore is an in-process price map. Safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

// NewMemoryStore returns an empty in-memory price store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{prices: make(map[string]decimal.Decimal)}
}

// Price returns the last quoted price for the instrument.
func (s *MemoryStore) Price(_ context.Context, instrument string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, ok := s.prices[instrument]
	if !ok {
		return decimal.Decimal{}, ErrNoPrice
	}
	return price, nil
}

// SetPrice upserts the instrument's market price.
func (s *MemoryStore) SetPrice(_ context.Context, instrument string, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[instrument] = price
	return nil
}
