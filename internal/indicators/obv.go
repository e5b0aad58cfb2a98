package indicators

import "github.com/hoanglm/trading-core/pkg/types"

// OBVSeries computes the On-Balance Volume series over the window:
//   - close up from the previous bar: add volume
//   - close down: subtract volume
//   - unchanged: carry forward
//
// The absolute level is meaningless on its own; callers compare recent values
// against older ones to read the direction of volume flow.
func OBVSeries(data []types.Candle) ([]float64, error) {
	if len(data) < 2 {
		return nil, ErrInsufficientData
	}

	series := make([]float64, len(data))
	for i := 1; i < len(data); i++ {
		switch {
		case data[i].Close > data[i-1].Close:
			series[i] = series[i-1] + data[i].Volume
		case data[i].Close < data[i-1].Close:
			series[i] = series[i-1] - data[i].Volume
		default:
			series[i] = series[i-1]
		}
	}
	return series, nil
}

// OBVTrend compares the latest OBV value against the value `lookback` bars ago
// and returns +1 (rising), -1 (falling) or 0 (flat within the threshold, which
// is a fraction of the total volume traded over the lookback).
func OBVTrend(data []types.Candle, lookback int, threshold float64) (int, error) {
	series, err := OBVSeries(data)
	if err != nil {
		return 0, err
	}
	if lookback <= 0 || len(series) < lookback+1 {
		return 0, ErrInsufficientData
	}

	delta := series[len(series)-1] - series[len(series)-1-lookback]

	totalVolume := 0.0
	for _, candle := range data[len(data)-lookback:] {
		totalVolume += candle.Volume
	}
	if totalVolume == 0 {
		return 0, nil
	}

	switch {
	case delta > threshold*totalVolume:
		return 1, nil
	case delta < -threshold*totalVolume:
		return -1, nil
	default:
		return 0, nil
	}
}
