// Package analysis holds the leaf signal modules: multi-timeframe trend
// aggregation, volume flow scoring, order-book liquidity checks and pairwise
// return correlation. Each module produces a fresh immutable result per
// evaluation cycle and degrades to a safe default on missing data.
package analysis

import (
	"github.com/rs/zerolog"

	"github.com/hoanglm/trading-core/internal/indicators"
	"github.com/hoanglm/trading-core/pkg/types"
)

// TrendLabel buckets the composite multi-timeframe score.
type TrendLabel int

const (
	TrendMixed TrendLabel = iota
	TrendBullish
	TrendStrongBullish
	TrendBearish
	TrendStrongBearish
)

func (l TrendLabel) String() string {
	switch l {
	case TrendStrongBullish:
		return "STRONG_BULLISH"
	case TrendBullish:
		return "BULLISH"
	case TrendBearish:
		return "BEARISH"
	case TrendStrongBearish:
		return "STRONG_BEARISH"
	default:
		return "MIXED"
	}
}

// TimeframeWeight pairs a timeframe name with its share of the composite
// score. Weights must sum to one across the configured set.
type TimeframeWeight struct {
	Timeframe string  `yaml:"timeframe"`
	Weight    float64 `yaml:"weight"`
}

// DefaultTimeframes weights five resolutions, longer frames heavier.
func DefaultTimeframes() []TimeframeWeight {
	return []TimeframeWeight{
		{Timeframe: "5m", Weight: 0.10},
		{Timeframe: "15m", Weight: 0.15},
		{Timeframe: "1h", Weight: 0.20},
		{Timeframe: "4h", Weight: 0.25},
		{Timeframe: "1d", Weight: 0.30},
	}
}

// MTFResult is the composite trend alignment across timeframes.
type MTFResult struct {
	Score           float64 // [-1, 1]
	Label           TrendLabel
	TimeframeScores map[string]float64
	MissingFrames   []string
}

// MTFAggregator combines per-timeframe trend scores into one weighted score.
type MTFAggregator struct {
	weights   []TimeframeWeight
	fastEMA   int
	slowEMA   int
	slopeBars int
	log       zerolog.Logger
}

// NewMTFAggregator builds an aggregator over the given weighted timeframes.
// Weights are normalized defensively so configuration drift cannot push the
// composite outside [-1, 1].
func NewMTFAggregator(weights []TimeframeWeight, log zerolog.Logger) *MTFAggregator {
	total := 0.0
	for _, w := range weights {
		total += w.Weight
	}
	normalized := make([]TimeframeWeight, len(weights))
	copy(normalized, weights)
	if total > 0 {
		for i := range normalized {
			normalized[i].Weight /= total
		}
	}
	return &MTFAggregator{
		weights:   normalized,
		fastEMA:   20,
		slowEMA:   50,
		slopeBars: 5,
		log:       log.With().Str("module", "mtf").Logger(),
	}
}

// Aggregate scores each timeframe's window and combines them. A timeframe with
// too little data is skipped and its weight redistributed proportionally over
// the remaining frames; only a fully empty input yields a MIXED zero score.
func (a *MTFAggregator) Aggregate(windows map[string][]types.Candle) MTFResult {
	result := MTFResult{TimeframeScores: make(map[string]float64, len(a.weights))}

	weighted := 0.0
	available := 0.0
	for _, tf := range a.weights {
		score, ok := a.scoreTimeframe(windows[tf.Timeframe])
		if !ok {
			result.MissingFrames = append(result.MissingFrames, tf.Timeframe)
			continue
		}
		result.TimeframeScores[tf.Timeframe] = score
		weighted += score * tf.Weight
		available += tf.Weight
	}

	if available == 0 {
		a.log.Debug().Msg("no timeframe had sufficient data")
		return result
	}

	// Renormalizing by the available weight redistributes missing frames'
	// weight proportionally across the rest.
	result.Score = clamp(weighted/available, -1, 1)
	result.Label = trendLabel(result.Score)

	if len(result.MissingFrames) > 0 {
		a.log.Debug().Strs("missing", result.MissingFrames).
			Float64("score", result.Score).Msg("aggregated with redistributed weights")
	}
	return result
}

// scoreTimeframe rates one window in [-1, 1] from EMA ordering and fast-EMA
// slope: alignment contributes ±0.5 and the recent slope the other ±0.5.
func (a *MTFAggregator) scoreTimeframe(data []types.Candle) (float64, bool) {
	fast, err := indicators.EMASeries(data, a.fastEMA)
	if err != nil {
		return 0, false
	}
	slow, err := indicators.EMA(data, a.slowEMA)
	if err != nil {
		return 0, false
	}

	latest := fast[len(fast)-1]
	score := 0.0
	if latest > slow {
		score += 0.5
	} else if latest < slow {
		score -= 0.5
	}

	if len(fast) > a.slopeBars {
		prev := fast[len(fast)-1-a.slopeBars]
		if prev > 0 {
			slope := (latest - prev) / prev
			// ±1% over the slope window saturates the slope half.
			score += clamp(slope/0.01, -1, 1) * 0.5
		}
	}

	return clamp(score, -1, 1), true
}

func trendLabel(score float64) TrendLabel {
	switch {
	case score >= 0.6:
		return TrendStrongBullish
	case score >= 0.2:
		return TrendBullish
	case score <= -0.6:
		return TrendStrongBearish
	case score <= -0.2:
		return TrendBearish
	default:
		return TrendMixed
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
