package indicators

import (
	"errors"
	"math"

	"github.com/hoanglm/trading-core/pkg/types"
)

// ErrInsufficientData is returned when a window is shorter than an indicator's
// minimum requirement.
var ErrInsufficientData = errors.New("insufficient data points")

// ADX computes the Average True Range-based Average Directional Index over the
// trailing window using Wilder's smoothing. The result is on a 0-100 scale:
// values below 20 indicate a ranging market, above 40 a strong trend.
//
// Every call recomputes from the supplied window. The caller controls the
// window, which keeps the value a pure function of the bars it may legally see.
func ADX(data []types.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("ADX period must be positive")
	}
	if len(data) < period*3 {
		return 0, ErrInsufficientData
	}

	// Seed Wilder sums from the first `period` true ranges and directional moves.
	var trSum, plusDMSum, minusDMSum float64
	for i := 1; i <= period; i++ {
		tr, plusDM, minusDM := directionalMove(data[i], data[i-1])
		trSum += tr
		plusDMSum += plusDM
		minusDMSum += minusDM
	}

	dxValues := make([]float64, 0, len(data)-period)
	dxValues = append(dxValues, dxFrom(plusDMSum, minusDMSum, trSum))

	// Smooth forward through the rest of the window.
	for i := period + 1; i < len(data); i++ {
		tr, plusDM, minusDM := directionalMove(data[i], data[i-1])
		trSum = trSum - trSum/float64(period) + tr
		plusDMSum = plusDMSum - plusDMSum/float64(period) + plusDM
		minusDMSum = minusDMSum - minusDMSum/float64(period) + minusDM
		dxValues = append(dxValues, dxFrom(plusDMSum, minusDMSum, trSum))
	}

	// Initial ADX is the simple average of the first `period` DX values,
	// then Wilder-smoothed over the remainder.
	adxSum := 0.0
	for i := 0; i < period; i++ {
		adxSum += dxValues[i]
	}
	adx := adxSum / float64(period)
	for i := period; i < len(dxValues); i++ {
		adx = (adx*float64(period-1) + dxValues[i]) / float64(period)
	}

	return adx, nil
}

// DirectionalIndex returns the +DI and -DI components over the window.
func DirectionalIndex(data []types.Candle, period int) (plusDI, minusDI float64, err error) {
	if len(data) < period+1 {
		return 0, 0, ErrInsufficientData
	}

	var trSum, plusDMSum, minusDMSum float64
	for i := 1; i < len(data); i++ {
		tr, plusDM, minusDM := directionalMove(data[i], data[i-1])
		if i <= period {
			trSum += tr
			plusDMSum += plusDM
			minusDMSum += minusDM
			continue
		}
		trSum = trSum - trSum/float64(period) + tr
		plusDMSum = plusDMSum - plusDMSum/float64(period) + plusDM
		minusDMSum = minusDMSum - minusDMSum/float64(period) + minusDM
	}

	if trSum == 0 {
		return 0, 0, nil
	}
	return plusDMSum / trSum * 100, minusDMSum / trSum * 100, nil
}

func directionalMove(current, previous types.Candle) (tr, plusDM, minusDM float64) {
	tr = trueRange(current, previous.Close)

	highDiff := current.High - previous.High
	lowDiff := previous.Low - current.Low
	if highDiff > lowDiff && highDiff > 0 {
		plusDM = highDiff
	}
	if lowDiff > highDiff && lowDiff > 0 {
		minusDM = lowDiff
	}
	return tr, plusDM, minusDM
}

func dxFrom(plusDMSum, minusDMSum, trSum float64) float64 {
	if trSum == 0 {
		return 0
	}
	plusDI := plusDMSum / trSum * 100
	minusDI := minusDMSum / trSum * 100
	diSum := plusDI + minusDI
	if diSum == 0 {
		return 0
	}
	return math.Abs(plusDI-minusDI) / diSum * 100
}
