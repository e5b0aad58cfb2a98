// Package backtest replays historical candles through the decision engine
// against the exchange simulator, one bar at a time. Each decision sees only
// the bars at or before the bar being processed, and fills execute at that
// bar's close.
package backtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/hoanglm/trading-core/internal/analysis"
	"github.com/hoanglm/trading-core/internal/decision"
	"github.com/hoanglm/trading-core/internal/exchange"
	"github.com/hoanglm/trading-core/internal/portfolio"
	"github.com/hoanglm/trading-core/pkg/types"
)

// Config controls one backtest run.
type Config struct {
	Symbol     string   `yaml:"symbol" validate:"required"`
	Interval   string   `yaml:"interval" default:"5m"`
	WindowSize int      `yaml:"window_size" default:"200" validate:"gt=0"`
	Timeframes []string `yaml:"timeframes"`
	// SyntheticSpreadPct builds an order book around each bar close when no
	// recorded book exists, expressed as a fraction (0.0004 = 0.04%).
	SyntheticSpreadPct float64 `yaml:"synthetic_spread_pct" default:"0.0004"`
	VolatilityLookback int     `yaml:"volatility_lookback" default:"20" validate:"gt=1"`
}

func DefaultConfig(symbol string) Config {
	return Config{
		Symbol:             symbol,
		Interval:           "5m",
		WindowSize:         200,
		Timeframes:         []string{"5m", "15m", "1h", "4h", "1d"},
		SyntheticSpreadPct: 0.0004,
		VolatilityLookback: 20,
	}
}

// Result is the complete output of one run.
type Result struct {
	Stats       portfolio.Stats
	EquityCurve []types.EquityPoint
	Trades      []types.TradeRecord
	BarsTested  int
	Decisions   map[string]int // action name -> count
}

// Driver owns the replay loop. It wires the engine's verdicts to the
// simulator and records every fill and equity mark with the tracker.
type Driver struct {
	cfg     Config
	engine  *decision.Engine
	sim     *exchange.Simulator
	corr    *analysis.CorrelationAnalyzer
	tracker *portfolio.Tracker
	log     zerolog.Logger
}

func NewDriver(
	cfg Config,
	engine *decision.Engine,
	sim *exchange.Simulator,
	corr *analysis.CorrelationAnalyzer,
	tracker *portfolio.Tracker,
	log zerolog.Logger,
) *Driver {
	return &Driver{
		cfg:     cfg,
		engine:  engine,
		sim:     sim,
		corr:    corr,
		tracker: tracker,
		log:     log.With().Str("component", "backtest").Logger(),
	}
}

// Run replays the candles chronologically. It stops early with an error when
// the engine halts or the context is cancelled. Any position still open after
// the final bar is liquidated at that bar's close.
func (d *Driver) Run(ctx context.Context, candles []types.Candle) (*Result, error) {
	if len(candles) < d.cfg.WindowSize {
		return nil, fmt.Errorf("need at least %d candles, have %d", d.cfg.WindowSize, len(candles))
	}
	barDur, err := IntervalDuration(d.cfg.Interval)
	if err != nil {
		return nil, err
	}

	result := &Result{Decisions: make(map[string]int)}
	start := time.Now()

	for i := d.cfg.WindowSize - 1; i < len(candles); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		window := candles[i+1-d.cfg.WindowSize : i+1]
		bar := candles[i]
		price := bar.Close
		barClose := bar.OpenTime.Add(barDur)

		d.corr.AddClose(d.cfg.Symbol, price)

		in := decision.Input{
			Symbol:           d.cfg.Symbol,
			Now:              barClose,
			Candles:          window,
			TimeframeWindows: d.timeframeWindows(window),
			OrderBook:        d.syntheticBook(bar),
			Equity:           d.sim.Equity(map[string]float64{d.cfg.Symbol: price}),
			Volatility:       CloseVolatility(window, d.cfg.VolatilityLookback),
			Position:         d.sim.Position(d.cfg.Symbol),
			OpenSymbols:      d.sim.OpenSymbols(),
			History:          d.tracker.History(),
		}

		dec := d.engine.Evaluate(ctx, in)
		result.Decisions[dec.Action.String()]++

		if err := d.apply(dec, price, barClose); err != nil {
			return nil, err
		}

		d.tracker.MarkEquity(barClose, d.sim.Equity(map[string]float64{d.cfg.Symbol: price}))
		result.BarsTested++
	}

	// Liquidate whatever survived the replay so statistics cover every trade.
	if pos := d.sim.Position(d.cfg.Symbol); pos != nil {
		last := candles[len(candles)-1]
		rec, err := d.sim.ClosePosition(d.cfg.Symbol, last.Close, last.OpenTime.Add(barDur), "end of data")
		if err != nil {
			return nil, fmt.Errorf("final liquidation: %w", err)
		}
		d.tracker.RecordTrade(rec)
		d.tracker.MarkEquity(last.OpenTime.Add(barDur), d.sim.Equity(nil))
	}

	result.Stats = d.tracker.Stats()
	result.EquityCurve = d.tracker.EquityCurve()
	result.Trades = d.tracker.Trades()

	d.log.Info().
		Int("bars", result.BarsTested).
		Int("trades", result.Stats.TotalTrades).
		Float64("final_equity", result.Stats.FinalEquity).
		Dur("elapsed", time.Since(start)).
		Msg("backtest complete")

	return result, nil
}

// apply executes one verdict against the simulator at the bar's close price.
func (d *Driver) apply(dec decision.Decision, price float64, at time.Time) error {
	switch {
	case dec.Action == decision.ActionHalt:
		return fmt.Errorf("engine halted: %s", dec.Reason)

	case dec.ClosePosition:
		rec, err := d.sim.ClosePosition(d.cfg.Symbol, price, at, dec.Reason)
		if err != nil {
			return fmt.Errorf("close position: %w", err)
		}
		d.tracker.RecordTrade(rec)

	case dec.Action == decision.ActionBuy || dec.Action == decision.ActionSell:
		side := types.SideLong
		if dec.Action == decision.ActionSell {
			side = types.SideShort
		}
		equity := d.sim.Equity(map[string]float64{d.cfg.Symbol: price})
		quantity := dec.SizeFraction * equity / price
		pos, err := d.sim.OpenPosition(d.cfg.Symbol, side, quantity, price, at)
		if err != nil {
			// An unfillable entry is a skipped trade, not a dead run.
			d.log.Warn().Err(err).Str("symbol", d.cfg.Symbol).Msg("entry rejected")
			return nil
		}
		pos.StopPrice = dec.StopLoss
		pos.TakeProfit = dec.TakeProfit
		d.engine.Guard().RecordEntry(d.cfg.Symbol, at)
	}
	return nil
}

// timeframeWindows resamples the primary window into each configured
// timeframe. Buckets are built only from bars inside the window.
func (d *Driver) timeframeWindows(window []types.Candle) map[string][]types.Candle {
	out := make(map[string][]types.Candle, len(d.cfg.Timeframes))
	for _, tf := range d.cfg.Timeframes {
		dur, err := IntervalDuration(tf)
		if err != nil {
			continue
		}
		if tf == d.cfg.Interval {
			out[tf] = window
			continue
		}
		out[tf] = Resample(window, dur)
	}
	return out
}

// syntheticBook builds a tight book around the bar close, sized from the
// bar's traded volume. Backtests rarely have recorded depth; the synthetic
// book keeps the liquidity gate exercised with realistic spreads.
func (d *Driver) syntheticBook(bar types.Candle) *types.OrderBookSnapshot {
	if bar.Close <= 0 {
		return nil
	}
	half := d.cfg.SyntheticSpreadPct / 2
	size := bar.Volume / 10
	if size <= 0 {
		size = 1
	}
	book := &types.OrderBookSnapshot{Timestamp: bar.OpenTime}
	for i := 1; i <= 5; i++ {
		offset := half * float64(i)
		book.Bids = append(book.Bids, types.PriceLevel{Price: bar.Close * (1 - offset), Size: size})
		book.Asks = append(book.Asks, types.PriceLevel{Price: bar.Close * (1 + offset), Size: size})
	}
	return book
}

// CloseVolatility is the standard deviation of close-to-close returns over
// the trailing lookback.
func CloseVolatility(window []types.Candle, lookback int) float64 {
	if lookback < 2 || len(window) < lookback+1 {
		return 0
	}
	tail := window[len(window)-lookback-1:]
	returns := make([]float64, 0, lookback)
	for i := 1; i < len(tail); i++ {
		if tail[i-1].Close > 0 {
			returns = append(returns, tail[i].Close/tail[i-1].Close-1)
		}
	}
	if len(returns) < 2 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	return math.Sqrt(variance)
}
