package risk

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// GuardConfig bounds trade frequency, hold time and fee efficiency.
type GuardConfig struct {
	MaxTradesPerHour  int           `yaml:"max_trades_per_hour" validate:"gt=0"`
	MaxTradesPerDay   int           `yaml:"max_trades_per_day" validate:"gt=0"`
	MinHold           time.Duration `yaml:"min_hold"`
	MinProfitMultiple float64       `yaml:"min_profit_multiple" validate:"gt=0"`
	MakerFeeRate      float64       `yaml:"maker_fee_rate"`
	TakerFeeRate      float64       `yaml:"taker_fee_rate"`
}

// DefaultGuardConfig returns 2 trades/hour, 10/day, a 30 minute minimum hold
// and a 3x fee multiple, with 0.1% fees each way.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		MaxTradesPerHour:  2,
		MaxTradesPerDay:   10,
		MinHold:           30 * time.Minute,
		MinProfitMultiple: 3.0,
		MakerFeeRate:      0.001,
		TakerFeeRate:      0.001,
	}
}

// GateResult is the outcome of a guard check. Blocked results always carry a
// human-readable reason; they are never silently dropped.
type GateResult struct {
	Allowed bool
	Reason  string
}

func allowed() GateResult { return GateResult{Allowed: true} }

func blocked(format string, args ...interface{}) GateResult {
	return GateResult{Reason: fmt.Sprintf(format, args...)}
}

// Guard tracks per-symbol rolling trade timestamps and enforces the entry and
// voluntary-exit gates. Each symbol worker owns its slice of the counters; the
// mutex only covers the map itself for the multi-symbol case.
type Guard struct {
	cfg    GuardConfig
	mu     sync.Mutex
	trades map[string][]time.Time // bounded, time-ordered entry timestamps
	log    zerolog.Logger
}

// NewGuard creates a guard.
func NewGuard(cfg GuardConfig, log zerolog.Logger) *Guard {
	return &Guard{
		cfg:    cfg,
		trades: make(map[string][]time.Time),
		log:    log.With().Str("module", "guard").Logger(),
	}
}

// AllowEntry checks the rolling hour/day trade counts for the symbol.
func (g *Guard) AllowEntry(symbol string, now time.Time) GateResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	recent := g.prune(symbol, now)

	hourCount := 0
	for _, ts := range recent {
		if now.Sub(ts) <= time.Hour {
			hourCount++
		}
	}

	if hourCount >= g.cfg.MaxTradesPerHour {
		g.log.Info().Str("symbol", symbol).Int("count", hourCount).
			Int("limit", g.cfg.MaxTradesPerHour).Msg("hourly trade limit reached")
		return blocked("trade frequency: %d trades in the last hour (limit %d)", hourCount, g.cfg.MaxTradesPerHour)
	}
	if len(recent) >= g.cfg.MaxTradesPerDay {
		g.log.Info().Str("symbol", symbol).Int("count", len(recent)).
			Int("limit", g.cfg.MaxTradesPerDay).Msg("daily trade limit reached")
		return blocked("trade frequency: %d trades in the last day (limit %d)", len(recent), g.cfg.MaxTradesPerDay)
	}
	return allowed()
}

// RecordEntry appends an executed entry to the symbol's rolling log.
func (g *Guard) RecordEntry(symbol string, at time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.trades[symbol] = append(g.prune(symbol, at), at)
}

// AllowExit gates a voluntary exit on minimum hold time and net profit after
// round-trip fees. Forced exits (stop loss) must not call this; they bypass
// the guard entirely.
func (g *Guard) AllowExit(symbol string, entryTime, now time.Time, grossPnL, entryNotional, exitNotional float64) GateResult {
	if held := now.Sub(entryTime); held < g.cfg.MinHold {
		g.log.Info().Str("symbol", symbol).Dur("held", held).Dur("min_hold", g.cfg.MinHold).
			Msg("exit deferred: minimum hold not reached")
		return blocked("minimum hold: held %s of required %s", held.Round(time.Second), g.cfg.MinHold)
	}

	fees := g.RoundTripFees(entryNotional, exitNotional)
	required := g.cfg.MinProfitMultiple * fees
	netPnL := grossPnL - fees

	if netPnL < required {
		g.log.Info().Str("symbol", symbol).
			Float64("net_pnl", netPnL).Float64("required", required).Float64("fees", fees).
			Msg("exit deferred: fee threshold not met")
		return blocked("fee threshold not met: net pnl %.2f < required %.2f (%.1fx fees %.2f)",
			netPnL, required, g.cfg.MinProfitMultiple, fees)
	}
	return allowed()
}

// RoundTripFees returns entry + exit fees, maker in and taker out.
func (g *Guard) RoundTripFees(entryNotional, exitNotional float64) float64 {
	return entryNotional*g.cfg.MakerFeeRate + exitNotional*g.cfg.TakerFeeRate
}

// prune drops timestamps older than the daily window. Caller holds the lock.
func (g *Guard) prune(symbol string, now time.Time) []time.Time {
	kept := g.trades[symbol][:0]
	for _, ts := range g.trades[symbol] {
		if now.Sub(ts) <= 24*time.Hour {
			kept = append(kept, ts)
		}
	}
	g.trades[symbol] = kept
	return kept
}
