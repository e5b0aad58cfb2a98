// Package regime labels market state from trend strength and moving-average
// structure. The label gates the whole decision cycle: nothing trades while the
// market reads as SIDEWAYS.
package regime

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hoanglm/trading-core/internal/indicators"
	"github.com/hoanglm/trading-core/pkg/types"
)

// Label is the closed set of market regimes.
type Label int

const (
	Sideways Label = iota
	TrendingUp
	TrendingDown
)

func (l Label) String() string {
	switch l {
	case TrendingUp:
		return "TRENDING_UP"
	case TrendingDown:
		return "TRENDING_DOWN"
	default:
		return "SIDEWAYS"
	}
}

// Result carries the label plus the observations that produced it, so a cycle
// that refused to trade can be reconstructed from logs.
type Result struct {
	Label         Label
	TrendStrength float64 // ADX, 0-100
	PriceMARatio  float64 // close / SMA(maPeriod)
	Detail        map[string]string
}

// Config holds classifier thresholds. The zero value is not usable; construct
// via DefaultConfig.
type Config struct {
	ADXPeriod     int     `yaml:"adx_period" validate:"gt=0"`
	MAPeriod      int     `yaml:"ma_period" validate:"gt=0"`
	WeakADX       float64 `yaml:"weak_adx"`        // below: always sideways
	StrongADX     float64 `yaml:"strong_adx"`      // above: MA ratio alone decides direction
	UpRatio       float64 `yaml:"up_ratio"`        // moderate-trend bull threshold
	DownRatio     float64 `yaml:"down_ratio"`      // moderate-trend bear threshold
	MinBars       int     `yaml:"min_bars" validate:"gt=0"`
}

// DefaultConfig returns the standard thresholds: ADX(14) bands at 20/40 and
// price against SMA(50) at 1.02/0.98.
func DefaultConfig() Config {
	return Config{
		ADXPeriod: 14,
		MAPeriod:  50,
		WeakADX:   20.0,
		StrongADX: 40.0,
		UpRatio:   1.02,
		DownRatio: 0.98,
		MinBars:   50,
	}
}

// Classifier labels a trailing candle window.
type Classifier struct {
	cfg Config
	log zerolog.Logger
}

// NewClassifier creates a classifier with the given thresholds.
func NewClassifier(cfg Config, log zerolog.Logger) *Classifier {
	return &Classifier{cfg: cfg, log: log.With().Str("module", "regime").Logger()}
}

// Classify applies the classification ladder, first match wins:
//
//	strength < weak           -> SIDEWAYS
//	weak <= strength <= strong -> ratio decides with a band around 1.0
//	strength > strong          -> ratio >= 1.0 up, else down
//
// A window shorter than the minimum never errors: it degrades to SIDEWAYS with
// an insufficient_data detail so the caller holds instead of crashing.
func (c *Classifier) Classify(data []types.Candle) Result {
	minBars := c.cfg.MinBars
	if need := c.cfg.ADXPeriod * 3; need > minBars {
		minBars = need
	}
	if len(data) < minBars {
		c.log.Debug().Int("bars", len(data)).Int("min_bars", minBars).
			Msg("window too short, defaulting to sideways")
		return Result{
			Label:  Sideways,
			Detail: map[string]string{"insufficient_data": fmt.Sprintf("%d/%d bars", len(data), minBars)},
		}
	}

	strength, err := indicators.ADX(data, c.cfg.ADXPeriod)
	if err != nil {
		return Result{Label: Sideways, Detail: map[string]string{"insufficient_data": err.Error()}}
	}
	ma, err := indicators.SMA(data, c.cfg.MAPeriod)
	if err != nil || ma <= 0 {
		return Result{Label: Sideways, Detail: map[string]string{"insufficient_data": "moving average unavailable"}}
	}

	ratio := data[len(data)-1].Close / ma
	result := Result{
		TrendStrength: strength,
		PriceMARatio:  ratio,
		Detail: map[string]string{
			"adx":            fmt.Sprintf("%.2f", strength),
			"price_ma_ratio": fmt.Sprintf("%.4f", ratio),
		},
	}

	switch {
	case strength < c.cfg.WeakADX:
		result.Label = Sideways
	case strength <= c.cfg.StrongADX:
		switch {
		case ratio > c.cfg.UpRatio:
			result.Label = TrendingUp
		case ratio < c.cfg.DownRatio:
			result.Label = TrendingDown
		default:
			result.Label = Sideways
		}
	default:
		if ratio >= 1.0 {
			result.Label = TrendingUp
		} else {
			result.Label = TrendingDown
		}
	}

	c.log.Debug().
		Stringer("label", result.Label).
		Float64("adx", strength).
		Float64("price_ma_ratio", ratio).
		Msg("regime classified")

	return result
}
