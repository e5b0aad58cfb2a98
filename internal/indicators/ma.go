package indicators

import "github.com/hoanglm/trading-core/pkg/types"

// SMA computes the simple moving average of closes over the last `period` bars.
func SMA(data []types.Candle, period int) (float64, error) {
	if period <= 0 || len(data) < period {
		return 0, ErrInsufficientData
	}

	sum := 0.0
	for _, candle := range data[len(data)-period:] {
		sum += candle.Close
	}
	return sum / float64(period), nil
}

// EMA computes the exponential moving average of closes over the window,
// seeded with an SMA of the first `period` closes.
func EMA(data []types.Candle, period int) (float64, error) {
	series, err := EMASeries(data, period)
	if err != nil {
		return 0, err
	}
	return series[len(series)-1], nil
}

// EMASeries returns the full EMA series for the window, one value per bar
// starting at index period-1. The slope of the tail is used for timeframe
// trend scoring.
func EMASeries(data []types.Candle, period int) ([]float64, error) {
	if period <= 0 || len(data) < period {
		return nil, ErrInsufficientData
	}

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += data[i].Close
	}
	seed /= float64(period)

	alpha := 2.0 / float64(period+1)
	series := make([]float64, 0, len(data)-period+1)
	series = append(series, seed)

	ema := seed
	for i := period; i < len(data); i++ {
		ema = (data[i].Close-ema)*alpha + ema
		series = append(series, ema)
	}
	return series, nil
}
