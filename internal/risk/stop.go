package risk

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/hoanglm/trading-core/internal/indicators"
	"github.com/hoanglm/trading-core/pkg/types"
)

// StopConfig parameterizes the adaptive stop.
type StopConfig struct {
	ATRPeriod     int     `yaml:"atr_period" validate:"gt=0"`
	ATRMultiple   float64 `yaml:"atr_multiple" validate:"gt=0"`
	SwingStrength int     `yaml:"swing_strength" validate:"gt=0"`
	MinStopPct    float64 `yaml:"min_stop_pct" validate:"gt=0"` // floor distance as a fraction of price
}

// DefaultStopConfig returns 2.5x ATR(14), 5-bar swing confirmation and a 3%
// minimum distance.
func DefaultStopConfig() StopConfig {
	return StopConfig{ATRPeriod: 14, ATRMultiple: 2.5, SwingStrength: 5, MinStopPct: 0.03}
}

// StopManager computes and trails protective stop levels. The stop only ever
// moves in the favorable direction; loosening candidates are discarded.
type StopManager struct {
	cfg StopConfig
	log zerolog.Logger
}

// NewStopManager creates a stop manager.
func NewStopManager(cfg StopConfig, log zerolog.Logger) *StopManager {
	return &StopManager{cfg: cfg, log: log.With().Str("module", "stop").Logger()}
}

// InitialStop computes the stop for a fresh entry. For a long it sits below
// the entry price, for a short above. Returns the stop level and the distance.
func (m *StopManager) InitialStop(data []types.Candle, entryPrice float64, side types.Side) (stop, distance float64) {
	candidate := m.candidateStop(data, entryPrice, side)
	return candidate, math.Abs(entryPrice - candidate)
}

// Trail recomputes the stop for an open position against the latest window and
// ratchets it: the new stop is the favorable-direction max (long) or min
// (short) of the candidate and the existing stop. The returned value is never
// looser than pos.StopPrice.
func (m *StopManager) Trail(pos *types.Position, data []types.Candle) float64 {
	candidate := m.candidateStop(data, pos.ExtremePrice, pos.Side)
	next := ratchet(pos.StopPrice, candidate, pos.Side)

	if next != pos.StopPrice {
		m.log.Debug().Str("symbol", pos.Symbol).Stringer("side", pos.Side).
			Float64("old_stop", pos.StopPrice).Float64("new_stop", next).
			Msg("stop trailed")
	}
	return next
}

// ShouldExit reports whether price has crossed the stop. Stop exits are forced
// and bypass every voluntary-exit gate.
func (m *StopManager) ShouldExit(pos *types.Position, currentPrice float64) bool {
	if pos.StopPrice <= 0 {
		return false
	}
	if pos.Side == types.SideLong {
		return currentPrice <= pos.StopPrice
	}
	return currentPrice >= pos.StopPrice
}

// candidateStop picks the tightest of three distances measured from the
// favorable extreme: an ATR multiple, the nearest confirmed swing level, and a
// fixed percentage floor. "Tightest" is the one closest to the current extreme
// that still respects the minimum percentage.
func (m *StopManager) candidateStop(data []types.Candle, extreme float64, side types.Side) float64 {
	minDistance := extreme * m.cfg.MinStopPct

	distance := minDistance
	if atr, err := indicators.ATR(data, m.cfg.ATRPeriod); err == nil && atr > 0 {
		if d := atr * m.cfg.ATRMultiple; d < distance {
			distance = d
		}
	}

	if side == types.SideLong {
		if swing := indicators.NearestSwingLow(data, m.cfg.SwingStrength, extreme); swing > 0 {
			if d := extreme - swing; d > 0 && d < distance {
				distance = d
			}
		}
		return extreme - distance
	}

	if swing := indicators.NearestSwingHigh(data, m.cfg.SwingStrength, extreme); swing > 0 {
		if d := swing - extreme; d > 0 && d < distance {
			distance = d
		}
	}
	return extreme + distance
}

// ratchet is the monotonic-trailing rule as a pure function: a long stop only
// rises, a short stop only falls.
func ratchet(oldStop, candidate float64, side types.Side) float64 {
	if oldStop <= 0 {
		return candidate
	}
	if side == types.SideLong {
		return math.Max(oldStop, candidate)
	}
	return math.Min(oldStop, candidate)
}
