// Package perf is the replay harness: it drives the ledger's public
// operations with synthetic trades and reports phase timings and per-op
// latency percentiles. It is purely an external caller of the core.
package perf

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradeforge/position-service/internal/ledger"
	"github.com/tradeforge/position-service/internal/models"
)

// Result reports one phase of the replay.
type Result struct {
	Phase   string
	Ops     int
	Elapsed time.Duration
	P50us   float64
	P95us   float64
	P99us   float64
}

// OpsPerSecond returns the phase throughput.
func (r Result) OpsPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Ops) / r.Elapsed.Seconds()
}

// Harness replays n synthetic trades against a fresh ledger: n registrations,
// then n amendments, then n cancellations, mirroring a full book lifecycle
// on a single instrument.
type Harness struct {
	trades     int
	instrument string
	sampleCap  int
}

// NewHarness configures a replay of n trades against one instrument.
func NewHarness(n int, instrument string) *Harness {
	return &Harness{trades: n, instrument: instrument, sampleCap: 10000}
}

// Run executes the three phases and returns one Result per phase.
func (h *Harness) Run() []Result {
	l := ledger.New()
	date := time.Now()
	buyPrice := decimal.NewFromFloat(100.0)
	amendQty := int64(150)
	amendPrice := decimal.NewFromFloat(120.0)

	register := h.phase("register", func(i int64) {
		l.Register(models.NewTrade(i, date, h.instrument, 100, buyPrice, models.SideBuy))
	})
	amend := h.phase("amend", func(i int64) {
		l.Amend(i, &amendQty, &amendPrice)
	})
	cancel := h.phase("cancel", func(i int64) {
		l.Cancel(i)
	})

	return []Result{register, amend, cancel}
}

func (h *Harness) phase(name string, op func(i int64)) Result {
	sampler := NewSampler(h.sampleCap)
	start := time.Now()
	for i := int64(0); i < int64(h.trades); i++ {
		opStart := time.Now()
		op(i)
		sampler.Record(time.Since(opStart))
	}
	elapsed := time.Since(start)

	p50, p95, p99 := sampler.Percentiles()
	return Result{
		Phase:   name,
		Ops:     h.trades,
		Elapsed: elapsed,
		P50us:   p50,
		P95us:   p95,
		P99us:   p99,
	}
}
