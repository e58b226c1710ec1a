// cmd/perftest — replays synthetic trades through the ledger and reports
// per-phase timing and latency percentiles.
//
// Config (env vars):
//
//	PERF_TRADES      — trades per phase (default 1000000)
//	PERF_INSTRUMENT  — instrument to trade (default AAPL)
package main

import (
	"github.com/sirupsen/logrus"

	"github.com/tradeforge/position-service/internal/config"
	"github.com/tradeforge/position-service/internal/perf"
)

func main() {
	logger := logrus.New()

	cfg := config.Load()
	logger.WithFields(logrus.Fields{
		"trades":     cfg.Perf.Trades,
		"instrument": cfg.Perf.Instrument,
	}).Info("starting replay")

	results := perf.NewHarness(cfg.Perf.Trades, cfg.Perf.Instrument).Run()

	for _, r := range results {
		logger.WithFields(logrus.Fields{
			"phase":   r.Phase,
			"ops":     r.Ops,
			"elapsed": r.Elapsed.String(),
			"ops_sec": int64(r.OpsPerSecond()),
			"p50_us":  r.P50us,
			"p95_us":  r.P95us,
			"p99_us":  r.P99us,
		}).Info("phase complete")
	}
}
