// cmd/example — the reference walkthrough: three AAPL trades, an amendment,
// and a cancellation, printing the position after each step.
package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradeforge/position-service/internal/ledger"
	"github.com/tradeforge/position-service/internal/models"
)

func main() {
	l := ledger.New()

	day := func(d int) time.Time {
		return time.Date(2022, time.January, d, 0, 0, 0, 0, time.UTC)
	}

	l.Register(models.NewTrade(1, day(1), "AAPL", 100, decimal.NewFromFloat(100.0), models.SideBuy))
	l.Register(models.NewTrade(2, day(2), "AAPL", 50, decimal.NewFromFloat(110.0), models.SideBuy))
	l.Register(models.NewTrade(3, day(3), "AAPL", 20, decimal.NewFromFloat(120.0), models.SideSell))
	printPosition(l, "after three trades")

	newQty := int64(70)
	l.Amend(2, &newQty, nil)
	printPosition(l, "after amending trade 2 to qty 70")

	l.Cancel(1)
	printPosition(l, "after cancelling trade 1")
}

func printPosition(l *ledger.Ledger, label string) {
	pos, ok := l.GetPosition("AAPL")
	if !ok {
		fmt.Printf("%s: no position\n", label)
		return
	}
	fmt.Printf("%s: quantity=%d average_price=%s\n", label, pos.Quantity, pos.AveragePrice.StringFixed(4))
}
