// Package risk converts signal quality into position size, trails protective
// stops, and gates trade frequency and fee efficiency.
package risk

import (
	"github.com/rs/zerolog"
)

// SizerConfig bounds the Kelly-based position sizer.
type SizerConfig struct {
	MinFraction float64 `yaml:"min_fraction" validate:"gt=0"` // of account equity
	MaxFraction float64 `yaml:"max_fraction" validate:"gt=0"`
	MinTrades   int     `yaml:"min_trades"` // below: fall back to MinFraction
}

// DefaultSizerConfig returns the standard [0.5%, 2.0%] clip with a 10-trade
// history requirement.
func DefaultSizerConfig() SizerConfig {
	return SizerConfig{MinFraction: 0.005, MaxFraction: 0.02, MinTrades: 10}
}

// SizeInput carries the sizer's inputs for one decision.
type SizeInput struct {
	WinRate      float64 // trailing, [0, 1]
	WinLossRatio float64 // average win / average loss, > 0
	TradeCount   int     // completed trades behind the estimates
	Volatility   float64 // e.g. ATR / price
	Confidence   float64 // decision engine confidence, [0, 1]
}

// Sizer computes the fraction of equity to risk using half-Kelly with
// volatility and confidence damping.
type Sizer struct {
	cfg SizerConfig
	log zerolog.Logger
}

// NewSizer creates a sizer with the given bounds.
func NewSizer(cfg SizerConfig, log zerolog.Logger) *Sizer {
	return &Sizer{cfg: cfg, log: log.With().Str("module", "sizer").Logger()}
}

// Fraction returns the position size as a fraction of account equity, always
// inside [MinFraction, MaxFraction]. With too few historical trades the Kelly
// estimate is unreliable, so the minimum fraction is used instead.
func (s *Sizer) Fraction(in SizeInput) float64 {
	if in.TradeCount < s.cfg.MinTrades || in.WinLossRatio <= 0 {
		s.log.Debug().Int("trades", in.TradeCount).Int("min_trades", s.cfg.MinTrades).
			Msg("insufficient trade history, using minimum fraction")
		return s.cfg.MinFraction
	}

	kelly := (in.WinRate*in.WinLossRatio - (1 - in.WinRate)) / in.WinLossRatio
	if kelly < 0 {
		kelly = 0
	}

	fraction := kelly / 2 // half-Kelly
	fraction *= volatilityFactor(in.Volatility)
	fraction *= confidenceFactor(in.Confidence)

	if fraction < s.cfg.MinFraction {
		fraction = s.cfg.MinFraction
	}
	if fraction > s.cfg.MaxFraction {
		fraction = s.cfg.MaxFraction
	}

	s.log.Debug().Float64("kelly", kelly).Float64("fraction", fraction).
		Float64("win_rate", in.WinRate).Float64("win_loss_ratio", in.WinLossRatio).
		Msg("position sized")
	return fraction
}

// volatilityFactor maps volatility into [0.5, 1.0]: calm markets keep full
// size, a 5%+ ATR/price reading halves it.
func volatilityFactor(vol float64) float64 {
	if vol <= 0.01 {
		return 1.0
	}
	if vol >= 0.05 {
		return 0.5
	}
	return 1.0 - (vol-0.01)/0.04*0.5
}

// confidenceFactor maps confidence into [0.5, 1.0]: full conviction keeps full
// size, anything at or below the 0.5 floor halves it.
func confidenceFactor(conf float64) float64 {
	if conf >= 1.0 {
		return 1.0
	}
	if conf <= 0.5 {
		return 0.5
	}
	return 0.5 + (conf-0.5)
}
