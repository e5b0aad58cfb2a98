package indicators

import "github.com/hoanglm/trading-core/pkg/types"

// VWAP computes the volume-weighted average price over the window using the
// typical price (H+L+C)/3 per bar. Falls back to the simple average of typical
// prices when the window carries no volume.
func VWAP(data []types.Candle) (float64, error) {
	if len(data) == 0 {
		return 0, ErrInsufficientData
	}

	var priceVolume, volume float64
	for _, candle := range data {
		typical := (candle.High + candle.Low + candle.Close) / 3
		priceVolume += typical * candle.Volume
		volume += candle.Volume
	}

	if volume == 0 {
		sum := 0.0
		for _, candle := range data {
			sum += (candle.High + candle.Low + candle.Close) / 3
		}
		return sum / float64(len(data)), nil
	}
	return priceVolume / volume, nil
}
