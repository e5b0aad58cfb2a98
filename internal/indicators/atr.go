package indicators

import (
	"math"

	"github.com/hoanglm/trading-core/pkg/types"
)

// ATR computes the Average True Range over the trailing window using Wilder's
// smoothing. Used as the volatility input for stop distances and position
// sizing.
func ATR(data []types.Candle, period int) (float64, error) {
	if period <= 0 || len(data) < period+1 {
		return 0, ErrInsufficientData
	}

	// Seed with the simple average of the first `period` true ranges.
	atr := 0.0
	for i := 1; i <= period; i++ {
		atr += trueRange(data[i], data[i-1].Close)
	}
	atr /= float64(period)

	for i := period + 1; i < len(data); i++ {
		tr := trueRange(data[i], data[i-1].Close)
		atr = (atr*float64(period-1) + tr) / float64(period)
	}

	return atr, nil
}

// trueRange is max(High-Low, |High-prevClose|, |Low-prevClose|).
func trueRange(current types.Candle, prevClose float64) float64 {
	hl := current.High - current.Low
	hc := math.Abs(current.High - prevClose)
	lc := math.Abs(current.Low - prevClose)
	return math.Max(hl, math.Max(hc, lc))
}
