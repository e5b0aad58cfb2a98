package analysis

import (
	"github.com/rs/zerolog"

	"github.com/hoanglm/trading-core/internal/indicators"
	"github.com/hoanglm/trading-core/pkg/types"
)

// VolumeLabel buckets the volume score.
type VolumeLabel int

const (
	VolumeNeutral VolumeLabel = iota
	VolumeBullish
	VolumeStrongBullish
	VolumeBearish
	VolumeStrongBearish
)

func (l VolumeLabel) String() string {
	switch l {
	case VolumeStrongBullish:
		return "STRONG_BULLISH"
	case VolumeBullish:
		return "BULLISH"
	case VolumeBearish:
		return "BEARISH"
	case VolumeStrongBearish:
		return "STRONG_BEARISH"
	default:
		return "NEUTRAL"
	}
}

// VolumeResult is the combined price-volume read for one window.
type VolumeResult struct {
	Score      float64 // [0, 1], 0.5 is neutral
	Label      VolumeLabel
	VWAP       float64
	SpikeRatio float64 // current volume / trailing average
	Detail     map[string]float64
}

// VolumeAnalyzer scores the price-volume relationship of a window. Four
// components with fixed weights: price vs VWAP 0.30, OBV trend 0.30, volume
// spike 0.20, volume trend 0.20.
type VolumeAnalyzer struct {
	obvLookback    int
	obvThreshold   float64
	spikeMultiple  float64
	spikeLookback  int
	minBars        int
	log            zerolog.Logger
}

// NewVolumeAnalyzer creates an analyzer with standard parameters: 10-bar OBV
// lookback, 2x spike threshold over a 20-bar average.
func NewVolumeAnalyzer(log zerolog.Logger) *VolumeAnalyzer {
	return &VolumeAnalyzer{
		obvLookback:   10,
		obvThreshold:  0.01,
		spikeMultiple: 2.0,
		spikeLookback: 20,
		minBars:       21,
		log:           log.With().Str("module", "volume").Logger(),
	}
}

// Analyze combines the four components into a [0,1] score. Too little data
// returns the neutral score rather than an error.
func (a *VolumeAnalyzer) Analyze(data []types.Candle) VolumeResult {
	if len(data) < a.minBars {
		a.log.Debug().Int("bars", len(data)).Int("min_bars", a.minBars).
			Msg("window too short, returning neutral")
		return VolumeResult{Score: 0.5, Label: VolumeNeutral}
	}

	current := data[len(data)-1]

	// Price position against VWAP, +-1% saturates.
	vwap, _ := indicators.VWAP(data)
	vwapScore := 0.5
	if vwap > 0 {
		vwapScore = clamp(0.5+(current.Close-vwap)/vwap/0.01*0.5, 0, 1)
	}

	// Short-term OBV direction.
	obvScore := 0.5
	if trend, err := indicators.OBVTrend(data, a.obvLookback, a.obvThreshold); err == nil {
		switch trend {
		case 1:
			obvScore = 1.0
		case -1:
			obvScore = 0.0
		}
	}

	// Spike confirms the direction of the bar it lands on.
	spikeRatio := a.spikeRatio(data)
	spikeScore := 0.5
	if spikeRatio >= a.spikeMultiple {
		if current.Close > current.Open {
			spikeScore = 1.0
		} else if current.Close < current.Open {
			spikeScore = 0.0
		}
	}

	// Rising participation supports the move, fading participation weakens it.
	trendScore := a.volumeTrendScore(data)

	score := clamp(vwapScore*0.30+obvScore*0.30+spikeScore*0.20+trendScore*0.20, 0, 1)

	result := VolumeResult{
		Score:      score,
		Label:      volumeLabel(score),
		VWAP:       vwap,
		SpikeRatio: spikeRatio,
		Detail: map[string]float64{
			"vwap_score":   vwapScore,
			"obv_score":    obvScore,
			"spike_score":  spikeScore,
			"vtrend_score": trendScore,
		},
	}

	a.log.Debug().Float64("score", score).Stringer("label", result.Label).
		Float64("spike_ratio", spikeRatio).Msg("volume analyzed")
	return result
}

// spikeRatio is current bar volume over the trailing average, current bar
// excluded from the average.
func (a *VolumeAnalyzer) spikeRatio(data []types.Candle) float64 {
	lookback := a.spikeLookback
	if len(data)-1 < lookback {
		lookback = len(data) - 1
	}
	if lookback == 0 {
		return 0
	}

	sum := 0.0
	for _, candle := range data[len(data)-1-lookback : len(data)-1] {
		sum += candle.Volume
	}
	avg := sum / float64(lookback)
	if avg == 0 {
		return 0
	}
	return data[len(data)-1].Volume / avg
}

// volumeTrendScore compares average volume of the recent half of the window
// against the older half.
func (a *VolumeAnalyzer) volumeTrendScore(data []types.Candle) float64 {
	half := len(data) / 2
	if half == 0 {
		return 0.5
	}

	older, recent := 0.0, 0.0
	for _, candle := range data[:half] {
		older += candle.Volume
	}
	for _, candle := range data[len(data)-half:] {
		recent += candle.Volume
	}
	if older == 0 {
		return 0.5
	}

	change := (recent - older) / older
	// +-25% change in participation saturates.
	return clamp(0.5+change/0.25*0.5, 0, 1)
}

func volumeLabel(score float64) VolumeLabel {
	switch {
	case score >= 0.8:
		return VolumeStrongBullish
	case score >= 0.6:
		return VolumeBullish
	case score <= 0.2:
		return VolumeStrongBearish
	case score <= 0.4:
		return VolumeBearish
	default:
		return VolumeNeutral
	}
}
