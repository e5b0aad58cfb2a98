package backtest

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoanglm/trading-core/internal/analysis"
	"github.com/hoanglm/trading-core/internal/decision"
	"github.com/hoanglm/trading-core/internal/exchange"
	"github.com/hoanglm/trading-core/internal/portfolio"
	"github.com/hoanglm/trading-core/internal/regime"
	"github.com/hoanglm/trading-core/internal/risk"
	"github.com/hoanglm/trading-core/pkg/types"
)

var btStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testConfig() Config {
	cfg := DefaultConfig("BTCUSDT")
	cfg.WindowSize = 100
	cfg.Timeframes = []string{"5m", "15m", "1h"}
	return cfg
}

func newStack(cfg Config) (*Driver, *exchange.Simulator, *portfolio.Tracker) {
	log := zerolog.Nop()
	corr := analysis.NewCorrelationAnalyzer(log)
	engine := decision.NewEngine(
		decision.DefaultConfig(),
		regime.NewClassifier(regime.DefaultConfig(), log),
		analysis.NewMTFAggregator(analysis.DefaultTimeframes(), log),
		analysis.NewVolumeAnalyzer(log),
		analysis.NewLiquidityAnalyzer(log),
		corr,
		risk.NewSizer(risk.DefaultSizerConfig(), log),
		risk.NewStopManager(risk.DefaultStopConfig(), log),
		risk.NewGuard(risk.DefaultGuardConfig(), log),
		log,
	)
	sim := exchange.NewSimulator(exchange.DefaultSimConfig(), log)
	tracker := portfolio.NewTracker(exchange.DefaultSimConfig().InitialCash, 365*24*12, log)
	return NewDriver(cfg, engine, sim, corr, tracker, log), sim, tracker
}

// series builds n five-minute bars whose close follows priceFn(i).
func series(n int, priceFn func(i int) float64) []types.Candle {
	out := make([]types.Candle, n)
	for i := 0; i < n; i++ {
		price := priceFn(i)
		prev := price
		if i > 0 {
			prev = priceFn(i - 1)
		}
		out[i] = types.Candle{
			OpenTime: btStart.Add(time.Duration(i) * 5 * time.Minute),
			Open:     prev,
			High:     math.Max(prev, price) * 1.001,
			Low:      math.Min(prev, price) * 0.999,
			Close:    price,
			Volume:   1500 + 50*math.Sin(float64(i)),
		}
	}
	return out
}

func wave(i int) float64 {
	return 100 * math.Pow(1.004, float64(i)) * (1 + 0.01*math.Sin(float64(i)/15))
}

func TestResample_FiveToFifteenMinutes(t *testing.T) {
	candles := series(9, func(i int) float64 { return 100 + float64(i) })

	resampled := Resample(candles, 15*time.Minute)
	require.Len(t, resampled, 3)

	first := resampled[0]
	assert.Equal(t, btStart, first.OpenTime)
	assert.Equal(t, candles[0].Open, first.Open)
	assert.Equal(t, candles[2].Close, first.Close)
	assert.Equal(t, candles[0].Volume+candles[1].Volume+candles[2].Volume, first.Volume)

	maxHigh := math.Max(candles[0].High, math.Max(candles[1].High, candles[2].High))
	assert.Equal(t, maxHigh, first.High)
}

func TestResample_PartialTrailingBucket(t *testing.T) {
	candles := series(7, func(i int) float64 { return 100 })
	resampled := Resample(candles, 15*time.Minute)
	require.Len(t, resampled, 3)
	// Last bucket holds only one five-minute bar.
	assert.Equal(t, candles[6].Volume, resampled[2].Volume)
}

func TestRun_RejectsShortHistory(t *testing.T) {
	d, _, _ := newStack(testConfig())
	_, err := d.Run(context.Background(), series(50, func(i int) float64 { return 100 }))
	assert.Error(t, err)
}

func TestRun_FlatMarketNeverTrades(t *testing.T) {
	d, sim, _ := newStack(testConfig())

	res, err := d.Run(context.Background(), series(300, func(i int) float64 { return 100 }))
	require.NoError(t, err)

	assert.Zero(t, res.Stats.TotalTrades)
	assert.Nil(t, sim.Position("BTCUSDT"))
	assert.Equal(t, 201, res.BarsTested)
	// Equity never moves without fills.
	for _, p := range res.EquityCurve {
		assert.Equal(t, 10_000.0, p.Equity)
	}
}

func TestRun_TrendingMarketTradesAndLiquidates(t *testing.T) {
	d, sim, _ := newStack(testConfig())

	res, err := d.Run(context.Background(), series(500, wave))
	require.NoError(t, err)

	assert.Greater(t, res.Stats.TotalTrades, 0)
	assert.Nil(t, sim.Position("BTCUSDT"), "everything liquidated by the end")
	assert.Greater(t, res.Decisions["BUY"], 0)

	// Every recorded trade is a complete round trip.
	for _, tr := range res.Trades {
		assert.False(t, tr.Entry.Timestamp.IsZero())
		assert.False(t, tr.Exit.Timestamp.IsZero())
		assert.InDelta(t, tr.GrossPnL-tr.FeesTotal, tr.NetPnL, 1e-9)
		assert.True(t, tr.Exit.Timestamp.After(tr.Entry.Timestamp))
	}

	// Equity curve has exactly one strictly time-ordered point per bar; the
	// final liquidation re-marks the last bar rather than duplicating it.
	require.Len(t, res.EquityCurve, res.BarsTested)
	for i := 1; i < len(res.EquityCurve); i++ {
		assert.True(t, res.EquityCurve[i].Timestamp.After(res.EquityCurve[i-1].Timestamp))
	}
}

func TestRun_Deterministic(t *testing.T) {
	run := func() *Result {
		d, _, _ := newStack(testConfig())
		res, err := d.Run(context.Background(), series(500, wave))
		require.NoError(t, err)
		return res
	}

	a, b := run(), run()
	assert.Equal(t, a.Stats, b.Stats)
	assert.Equal(t, a.Trades, b.Trades)
	assert.Equal(t, a.EquityCurve, b.EquityCurve)
}

// Extending the data must not change anything already decided: the equity
// marks for the shared prefix are identical whether or not more bars follow.
func TestRun_NoLookahead(t *testing.T) {
	full := series(500, wave)

	dShort, _, _ := newStack(testConfig())
	short, err := dShort.Run(context.Background(), full[:400])
	require.NoError(t, err)

	dFull, _, _ := newStack(testConfig())
	long, err := dFull.Run(context.Background(), full)
	require.NoError(t, err)

	// 400 bars with a 100-bar window produce 301 bar marks. The short run's
	// last mark absorbs its final liquidation, so compare the 300 before it.
	shared := 300
	require.Greater(t, len(short.EquityCurve), shared)
	require.Greater(t, len(long.EquityCurve), shared)
	assert.Equal(t, long.EquityCurve[:shared], short.EquityCurve[:shared])
}

func TestRun_CancelledContext(t *testing.T) {
	d, _, _ := newStack(testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Run(ctx, series(300, wave))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCloseVolatility(t *testing.T) {
	flat := series(120, func(i int) float64 { return 100 })
	assert.Zero(t, CloseVolatility(flat, 20))

	noisy := series(120, func(i int) float64 { return 100 * (1 + 0.02*math.Sin(float64(i))) })
	assert.Greater(t, CloseVolatility(noisy, 20), 0.0)

	assert.Zero(t, CloseVolatility(flat[:5], 20), "short window yields zero")
}
