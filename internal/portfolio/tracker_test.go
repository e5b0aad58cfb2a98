package portfolio

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/hoanglm/trading-core/pkg/types"
)

var trackerTime = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func trade(netPnL, fees float64) types.TradeRecord {
	return types.TradeRecord{
		Symbol:     "BTCUSDT",
		Side:       types.SideLong,
		GrossPnL:   netPnL + fees,
		FeesTotal:  fees,
		NetPnL:     netPnL,
		ExitReason: "test",
	}
}

func TestStats_ZeroTrades(t *testing.T) {
	tr := NewTracker(10_000, 8760, zerolog.Nop())
	s := tr.Stats()

	assert.Zero(t, s.TotalTrades)
	assert.Zero(t, s.WinRate)
	assert.Zero(t, s.ProfitFactor)
	assert.Zero(t, s.Expectancy)
	assert.Zero(t, s.MaxDrawdown)
	assert.Equal(t, 10_000.0, s.FinalEquity)
	assert.Zero(t, s.TotalReturn)
}

func TestMarkEquity_SameTimestampOverwrites(t *testing.T) {
	tr := NewTracker(10_000, 8760, zerolog.Nop())
	tr.MarkEquity(trackerTime, 10_000)
	tr.MarkEquity(trackerTime.Add(time.Hour), 10_100)
	tr.MarkEquity(trackerTime.Add(time.Hour), 10_050)

	curve := tr.EquityCurve()
	assert.Len(t, curve, 2)
	assert.Equal(t, 10_050.0, curve[1].Equity)
	assert.True(t, curve[1].Timestamp.After(curve[0].Timestamp))
}

func TestStats_TradeAggregates(t *testing.T) {
	tr := NewTracker(10_000, 8760, zerolog.Nop())
	tr.RecordTrade(trade(100, 2))
	tr.RecordTrade(trade(300, 2))
	tr.RecordTrade(trade(-50, 2))
	tr.RecordTrade(trade(-150, 2))

	s := tr.Stats()
	assert.Equal(t, 4, s.TotalTrades)
	assert.Equal(t, 2, s.WinningTrades)
	assert.Equal(t, 2, s.LosingTrades)
	assert.InDelta(t, 0.5, s.WinRate, 1e-9)
	assert.InDelta(t, 200.0, s.AvgWin, 1e-9)
	assert.InDelta(t, -100.0, s.AvgLoss, 1e-9)
	assert.InDelta(t, 2.0, s.WinLossRatio, 1e-9)
	assert.InDelta(t, 2.0, s.ProfitFactor, 1e-9)
	assert.InDelta(t, 50.0, s.Expectancy, 1e-9)
	assert.InDelta(t, 300.0, s.LargestWin, 1e-9)
	assert.InDelta(t, -150.0, s.LargestLoss, 1e-9)
	assert.InDelta(t, 200.0, s.TotalNetPnL, 1e-9)
	assert.InDelta(t, 8.0, s.TotalFees, 1e-9)
}

func TestStats_AllWinnersInfiniteProfitFactor(t *testing.T) {
	tr := NewTracker(10_000, 8760, zerolog.Nop())
	tr.RecordTrade(trade(100, 1))
	tr.RecordTrade(trade(50, 1))

	s := tr.Stats()
	assert.True(t, math.IsInf(s.ProfitFactor, 1))
	assert.Equal(t, 1.0, s.WinRate)
	assert.Zero(t, s.WinLossRatio) // undefined without losers
}

func TestMaxDrawdown(t *testing.T) {
	tr := NewTracker(10_000, 8760, zerolog.Nop())
	equities := []float64{10_000, 11_000, 10_500, 12_000, 9_000, 9_600}
	for i, eq := range equities {
		tr.MarkEquity(trackerTime.Add(time.Duration(i)*time.Hour), eq)
	}

	s := tr.Stats()
	// Worst decline: 12,000 -> 9,000.
	assert.InDelta(t, 0.25, s.MaxDrawdown, 1e-9)
	assert.Equal(t, 9_600.0, s.FinalEquity)
	assert.InDelta(t, -0.04, s.TotalReturn, 1e-9)
}

func TestRiskAdjusted_SteadyGainsPositiveSharpe(t *testing.T) {
	tr := NewTracker(10_000, 8760, zerolog.Nop())
	eq := 10_000.0
	for i := 0; i < 50; i++ {
		// Mostly gains with occasional dips keeps both ratios finite.
		if i%7 == 3 {
			eq *= 0.998
		} else {
			eq *= 1.002
		}
		tr.MarkEquity(trackerTime.Add(time.Duration(i)*time.Hour), eq)
	}

	s := tr.Stats()
	assert.Greater(t, s.SharpeRatio, 0.0)
	assert.Greater(t, s.SortinoRatio, 0.0)
	// Sortino only penalizes downside, so it never reads below Sharpe here.
	assert.GreaterOrEqual(t, s.SortinoRatio, s.SharpeRatio)
}

func TestRiskAdjusted_NoLossesInfiniteSortino(t *testing.T) {
	tr := NewTracker(10_000, 8760, zerolog.Nop())
	eq := 10_000.0
	for i := 0; i < 20; i++ {
		eq *= 1.001
		tr.MarkEquity(trackerTime.Add(time.Duration(i)*time.Hour), eq)
	}

	s := tr.Stats()
	assert.True(t, math.IsInf(s.SortinoRatio, 1))
}

func TestHistory_FeedsSizer(t *testing.T) {
	tr := NewTracker(10_000, 8760, zerolog.Nop())

	h := tr.History()
	assert.Zero(t, h.TradeCount)
	assert.Zero(t, h.WinRate)

	tr.RecordTrade(trade(200, 2))
	tr.RecordTrade(trade(100, 2))
	tr.RecordTrade(trade(-100, 2))

	h = tr.History()
	assert.Equal(t, 3, h.TradeCount)
	assert.InDelta(t, 2.0/3.0, h.WinRate, 1e-9)
	assert.InDelta(t, 1.5, h.WinLossRatio, 1e-9)
}
