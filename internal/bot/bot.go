// Package bot runs the live evaluation loop: poll market data, evaluate the
// decision engine, and execute verdicts against the paper-trading simulator.
// Live order placement is out of scope; the bot observes real markets and
// trades simulated fills.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hoanglm/trading-core/internal/analysis"
	"github.com/hoanglm/trading-core/internal/backtest"
	"github.com/hoanglm/trading-core/internal/decision"
	"github.com/hoanglm/trading-core/internal/exchange"
	"github.com/hoanglm/trading-core/internal/monitoring"
	"github.com/hoanglm/trading-core/internal/portfolio"
	"github.com/hoanglm/trading-core/pkg/types"
)

// Config controls the polling loop.
type Config struct {
	Symbols            []string      `yaml:"symbols" validate:"required,min=1"`
	Interval           string        `yaml:"interval" default:"5m"`
	WindowSize         int           `yaml:"window_size" default:"200" validate:"gt=0"`
	PollInterval       time.Duration `yaml:"poll_interval"`
	BookDepth          int           `yaml:"book_depth" default:"25"`
	Timeframes         []string      `yaml:"timeframes"`
	VolatilityLookback int           `yaml:"volatility_lookback" default:"20"`
}

func DefaultConfig(symbols ...string) Config {
	return Config{
		Symbols:            symbols,
		Interval:           "5m",
		WindowSize:         200,
		PollInterval:       5 * time.Minute,
		BookDepth:          25,
		Timeframes:         []string{"5m", "15m", "1h", "4h", "1d"},
		VolatilityLookback: 20,
	}
}

// Bot polls one venue and drives the engine once per interval per symbol.
// Cancellation is cooperative: the loop checks the context between cycles
// and mid-cycle work is never interrupted.
type Bot struct {
	cfg     Config
	data    exchange.MarketDataProvider
	engine  *decision.Engine
	sim     *exchange.Simulator
	corr    *analysis.CorrelationAnalyzer
	tracker *portfolio.Tracker
	health  *monitoring.HealthChecker
	log     zerolog.Logger
}

func New(
	cfg Config,
	data exchange.MarketDataProvider,
	engine *decision.Engine,
	sim *exchange.Simulator,
	corr *analysis.CorrelationAnalyzer,
	tracker *portfolio.Tracker,
	health *monitoring.HealthChecker,
	log zerolog.Logger,
) *Bot {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Minute
	}
	return &Bot{
		cfg:     cfg,
		data:    data,
		engine:  engine,
		sim:     sim,
		corr:    corr,
		tracker: tracker,
		health:  health,
		log:     log.With().Str("component", "bot").Logger(),
	}
}

// Run blocks until the context is cancelled. Each tick evaluates every
// configured symbol in order; a failing symbol is logged and skipped so one
// bad feed cannot stall the rest.
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info().
		Strs("symbols", b.cfg.Symbols).
		Str("interval", b.cfg.Interval).
		Dur("poll_interval", b.cfg.PollInterval).
		Msg("bot started")

	ticker := time.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()

	// First cycle runs immediately rather than waiting a full interval.
	b.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			b.log.Info().Msg("bot stopping")
			return ctx.Err()
		case <-ticker.C:
			b.cycle(ctx)
		}
	}
}

func (b *Bot) cycle(ctx context.Context) {
	for _, symbol := range b.cfg.Symbols {
		if ctx.Err() != nil {
			return
		}
		if err := b.evaluateSymbol(ctx, symbol); err != nil {
			b.log.Error().Err(err).Str("symbol", symbol).Msg("cycle failed")
			monitoring.RecordError("cycle")
			if b.health != nil {
				b.health.CycleFailed(err)
			}
			continue
		}
		if b.health != nil {
			b.health.CycleCompleted()
		}
	}
}

func (b *Bot) evaluateSymbol(ctx context.Context, symbol string) error {
	candles, err := b.data.Candles(ctx, symbol, b.cfg.Interval, b.cfg.WindowSize)
	if err != nil {
		return fmt.Errorf("fetch candles: %w", err)
	}
	if len(candles) == 0 {
		return fmt.Errorf("no candles for %s", symbol)
	}
	book, err := b.data.OrderBook(ctx, symbol, b.cfg.BookDepth)
	if err != nil {
		// A missing book degrades to HOLD inside the engine; keep going.
		b.log.Warn().Err(err).Str("symbol", symbol).Msg("order book unavailable")
		book = nil
	}

	price := candles[len(candles)-1].Close
	now := time.Now().UTC()
	b.corr.AddClose(symbol, price)
	monitoring.UpdatePrice(symbol, price)

	windows, err := b.timeframeWindows(ctx, symbol, candles)
	if err != nil {
		return err
	}

	in := decision.Input{
		Symbol:           symbol,
		Now:              now,
		Candles:          candles,
		TimeframeWindows: windows,
		OrderBook:        book,
		Equity:           b.sim.Equity(map[string]float64{symbol: price}),
		Volatility:       backtest.CloseVolatility(candles, b.cfg.VolatilityLookback),
		Position:         b.sim.Position(symbol),
		OpenSymbols:      b.sim.OpenSymbols(),
		History:          b.tracker.History(),
	}

	dec := b.engine.Evaluate(ctx, in)
	monitoring.RecordDecision(symbol, dec.Action.String(), dec.Confidence)

	b.log.Info().
		Str("symbol", symbol).
		Str("action", dec.Action.String()).
		Float64("confidence", dec.Confidence).
		Str("reason", dec.Reason).
		Msg("decision")

	if err := b.apply(dec, symbol, price, now); err != nil {
		return err
	}

	equity := b.sim.Equity(map[string]float64{symbol: price})
	b.tracker.MarkEquity(now, equity)
	monitoring.UpdateEquity(equity)
	return nil
}

func (b *Bot) apply(dec decision.Decision, symbol string, price float64, at time.Time) error {
	switch {
	case dec.Action == decision.ActionHalt:
		return fmt.Errorf("engine halted: %s", dec.Reason)

	case dec.ClosePosition:
		rec, err := b.sim.ClosePosition(symbol, price, at, dec.Reason)
		if err != nil {
			return fmt.Errorf("close position: %w", err)
		}
		b.tracker.RecordTrade(rec)
		monitoring.RecordTrade(symbol, rec.ExitReason, rec.NetPnL)

	case dec.Action == decision.ActionBuy || dec.Action == decision.ActionSell:
		side := types.SideLong
		if dec.Action == decision.ActionSell {
			side = types.SideShort
		}
		equity := b.sim.Equity(map[string]float64{symbol: price})
		quantity := dec.SizeFraction * equity / price
		pos, err := b.sim.OpenPosition(symbol, side, quantity, price, at)
		if err != nil {
			b.log.Warn().Err(err).Str("symbol", symbol).Msg("entry rejected")
			monitoring.RecordError("entry_rejected")
			return nil
		}
		pos.StopPrice = dec.StopLoss
		pos.TakeProfit = dec.TakeProfit
		b.engine.Guard().RecordEntry(symbol, at)
	}
	return nil
}

// timeframeWindows fetches each configured higher timeframe directly from
// the venue; the primary interval reuses the already-fetched window.
func (b *Bot) timeframeWindows(ctx context.Context, symbol string, primary []types.Candle) (map[string][]types.Candle, error) {
	out := make(map[string][]types.Candle, len(b.cfg.Timeframes))
	for _, tf := range b.cfg.Timeframes {
		if tf == b.cfg.Interval {
			out[tf] = primary
			continue
		}
		candles, err := b.data.Candles(ctx, symbol, tf, b.cfg.WindowSize)
		if err != nil {
			// Missing frames are handled by weight redistribution downstream.
			b.log.Warn().Err(err).Str("symbol", symbol).Str("timeframe", tf).
				Msg("timeframe fetch failed")
			continue
		}
		out[tf] = candles
	}
	return out, nil
}
