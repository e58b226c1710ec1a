package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/position-service/internal/models"
)

func day(d int) time.Time {
	return time.Date(2022, time.January, d, 0, 0, 0, 0, time.UTC)
}

func aaplBook(t *testing.T) *Ledger {
	t.Helper()
	l := New()
	l.Register(models.NewTrade(1, day(1), "AAPL", 100, decimal.NewFromFloat(100.0), models.SideBuy))
	l.Register(models.NewTrade(2, day(2), "AAPL", 50, decimal.NewFromFloat(110.0), models.SideBuy))
	l.Register(models.NewTrade(3, day(3), "AAPL", 20, decimal.NewFromFloat(120.0), models.SideSell))
	return l
}

func TestLedgerWalkthrough(t *testing.T) {
	l := aaplBook(t)

	// Average set by the two buys: (100*100 + 110*50) / 150. The sell only
	// moves quantity.
	avgTwoBuys := decimal.NewFromInt(15500).Div(decimal.NewFromInt(150))

	pos, ok := l.GetPosition("AAPL")
	require.True(t, ok)
	assert.Equal(t, int64(130), pos.Quantity)
	assert.True(t, pos.AveragePrice.Equal(avgTwoBuys), "got %s", pos.AveragePrice)

	t.Run("amend trade 2 quantity to 70", func(t *testing.T) {
		before, _ := l.GetPosition("AAPL")

		newQty := int64(70)
		l.Amend(2, &newQty, nil)

		// The amended trade is re-applied as a fresh buy of 70 @ 110 on top
		// of the current position; the original buy of 50 is not reversed.
		expectedAvg := before.AveragePrice.Mul(decimal.NewFromInt(130)).
			Add(decimal.NewFromFloat(110.0).Mul(decimal.NewFromInt(70))).
			Div(decimal.NewFromInt(200))

		pos, _ := l.GetPosition("AAPL")
		assert.Equal(t, int64(200), pos.Quantity)
		assert.True(t, pos.AveragePrice.Equal(expectedAvg), "got %s", pos.AveragePrice)

		stored, ok := l.GetTrade(2)
		require.True(t, ok)
		assert.Equal(t, int64(70), stored.Quantity)
		assert.Equal(t, models.TradeStatusAmended, stored.Status)
	})

	t.Run("cancel trade 1", func(t *testing.T) {
		before, _ := l.GetPosition("AAPL")

		l.Cancel(1)

		pos, _ := l.GetPosition("AAPL")
		assert.Equal(t, before.Quantity-100, pos.Quantity)
		assert.True(t, pos.AveragePrice.Equal(before.AveragePrice))

		_, ok := l.GetTrade(1)
		assert.False(t, ok)
	})
}

func TestCancelUsesCurrentStoredQuantity(t *testing.T) {
	l := New()
	l.Register(models.NewTrade(1, day(1), "AAPL", 100, decimal.NewFromFloat(100.0), models.SideBuy))

	newQty := int64(40)
	l.Amend(1, &newQty, nil)
	before, _ := l.GetPosition("AAPL")

	// Cancellation must reverse the amended quantity, not the original 100.
	l.Cancel(1)
	pos, _ := l.GetPosition("AAPL")
	assert.Equal(t, before.Quantity-40, pos.Quantity)
}

func TestRegisterOverwritesDuplicateID(t *testing.T) {
	l := New()
	l.Register(models.NewTrade(7, day(1), "AAPL", 100, decimal.NewFromFloat(100.0), models.SideBuy))
	l.Register(models.NewTrade(7, day(2), "AAPL", 50, decimal.NewFromFloat(110.0), models.SideBuy))

	// The trade map keeps only the later registration.
	assert.Equal(t, 1, l.TradeCount())
	stored, ok := l.GetTrade(7)
	require.True(t, ok)
	assert.Equal(t, int64(50), stored.Quantity)

	// Both buys still contribute to the position recurrence.
	pos, _ := l.GetPosition("AAPL")
	assert.Equal(t, int64(150), pos.Quantity)
	expected := decimal.NewFromInt(15500).Div(decimal.NewFromInt(150))
	assert.True(t, pos.AveragePrice.Equal(expected))
}

func TestUnknownIDIsSilentNoOp(t *testing.T) {
	l := aaplBook(t)
	tradesBefore := l.FilterTrades(nil)
	positionsBefore := l.AllPositions()

	newQty := int64(999)
	price := decimal.NewFromFloat(1.0)
	l.Amend(42, &newQty, &price)
	l.Cancel(42)

	assert.Equal(t, tradesBefore, l.FilterTrades(nil))
	assert.Equal(t, positionsBefore, l.AllPositions())
}

func TestGetPositionIsPureRead(t *testing.T) {
	l := aaplBook(t)

	first, ok := l.GetPosition("AAPL")
	require.True(t, ok)
	second, ok := l.GetPosition("AAPL")
	require.True(t, ok)
	assert.Equal(t, first, second)

	// A miss must not create a position.
	_, ok = l.GetPosition("MSFT")
	assert.False(t, ok)
	assert.Len(t, l.AllPositions(), 1)

	// The returned copy is not an alias into ledger storage.
	first.Quantity = -1
	again, _ := l.GetPosition("AAPL")
	assert.Equal(t, second, again)
}

func TestRegisterCopiesCallerTrade(t *testing.T) {
	l := New()
	trade := models.NewTrade(1, day(1), "AAPL", 100, decimal.NewFromFloat(100.0), models.SideBuy)
	l.Register(trade)

	trade.Quantity = 5
	stored, _ := l.GetTrade(1)
	assert.Equal(t, int64(100), stored.Quantity)
}

func TestAmendAppliesExplicitZero(t *testing.T) {
	// A provided zero is a real value, not "unset": the stored trade's
	// quantity becomes zero and the re-application adds nothing.
	l := New()
	l.Register(models.NewTrade(1, day(1), "AAPL", 100, decimal.NewFromFloat(100.0), models.SideBuy))
	before, _ := l.GetPosition("AAPL")

	zero := int64(0)
	l.Amend(1, &zero, nil)

	stored, _ := l.GetTrade(1)
	assert.Equal(t, int64(0), stored.Quantity)

	pos, _ := l.GetPosition("AAPL")
	assert.Equal(t, before.Quantity, pos.Quantity)
	assert.True(t, pos.AveragePrice.Equal(before.AveragePrice))
}

func TestAmendByDate(t *testing.T) {
	l := aaplBook(t)

	newQty := int64(60)
	err := l.AmendByDate("AAPL", day(2), &newQty, nil)
	require.NoError(t, err)

	stored, _ := l.GetTrade(2)
	assert.Equal(t, int64(60), stored.Quantity)

	err = l.AmendByDate("AAPL", day(9), &newQty, nil)
	assert.ErrorIs(t, err, ErrTradeNotFound)

	err = l.AmendByDate("MSFT", day(2), &newQty, nil)
	assert.ErrorIs(t, err, ErrTradeNotFound)
}

func TestFilterTrades(t *testing.T) {
	l := aaplBook(t)
	l.Register(models.NewTrade(4, day(4), "MSFT", 200, decimal.NewFromFloat(150.0), models.SideBuy))

	t.Run("by instrument and side", func(t *testing.T) {
		got := l.FilterTrades(models.NewTradeFilter().WithInstrument("AAPL").WithSide(models.SideBuy))
		require.Len(t, got, 2)
		assert.Equal(t, int64(1), got[0].ID)
		assert.Equal(t, int64(2), got[1].ID)
	})

	t.Run("by price range", func(t *testing.T) {
		got := l.FilterTrades(models.NewTradeFilter().
			WithPriceRange(decimal.NewFromFloat(105.0), decimal.NewFromFloat(125.0)))
		require.Len(t, got, 2)
		assert.Equal(t, int64(2), got[0].ID)
		assert.Equal(t, int64(3), got[1].ID)
	})

	t.Run("by status", func(t *testing.T) {
		newQty := int64(70)
		l.Amend(2, &newQty, nil)

		got := l.FilterTrades(models.NewTradeFilter().WithStatus(models.TradeStatusAmended))
		require.Len(t, got, 1)
		assert.Equal(t, int64(2), got[0].ID)
	})

	t.Run("date range", func(t *testing.T) {
		got := l.TradesBetween(day(2), day(3))
		require.Len(t, got, 2)
		assert.Equal(t, int64(2), got[0].ID)
		assert.Equal(t, int64(3), got[1].ID)
	})
}

func TestPositionsAsOf(t *testing.T) {
	l := aaplBook(t)
	l.Register(models.NewTrade(4, day(5), "MSFT", 200, decimal.NewFromFloat(150.0), models.SideBuy))

	asOf := l.PositionsAsOf(day(2))
	require.Contains(t, asOf, "AAPL")
	assert.NotContains(t, asOf, "MSFT")

	// Only the two buys are dated on or before day 2.
	aapl := asOf["AAPL"]
	assert.Equal(t, int64(150), aapl.Quantity)
	expected := decimal.NewFromInt(15500).Div(decimal.NewFromInt(150))
	assert.True(t, aapl.AveragePrice.Equal(expected))
	assert.Equal(t, "AAPL", aapl.Instrument)

	// The live positions are untouched by the rebuild.
	current, _ := l.GetPosition("AAPL")
	assert.Equal(t, int64(130), current.Quantity)
}

func TestPositionHistory(t *testing.T) {
	l := aaplBook(t)

	history := l.PositionHistory("AAPL", day(1), day(3))
	require.Len(t, history, 3)
	assert.Equal(t, int64(100), history[0].Quantity)
	assert.Equal(t, int64(150), history[1].Quantity)
	assert.Equal(t, int64(130), history[2].Quantity)
}

func TestPortfolioValue(t *testing.T) {
	l := aaplBook(t)
	l.Register(models.NewTrade(4, day(5), "MSFT", 200, decimal.NewFromFloat(150.0), models.SideBuy))

	prices := map[string]decimal.Decimal{
		"AAPL": decimal.NewFromFloat(135.0),
		// MSFT has no quote and is skipped.
	}

	summary := l.PortfolioValue(prices)

	pos, _ := l.GetPosition("AAPL")
	assert.True(t, summary.MarketValue.Equal(pos.MarketValue(decimal.NewFromFloat(135.0))))
	assert.True(t, summary.UnrealizedPnL.Equal(pos.UnrealizedPnL(decimal.NewFromFloat(135.0))))
}
