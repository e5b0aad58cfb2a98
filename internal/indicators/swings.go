package indicators

import "github.com/hoanglm/trading-core/pkg/types"

// SwingPoints finds local swing highs and lows in the window. A bar is a swing
// high when its high exceeds the highs of `strength` bars on each side, and
// symmetrically for swing lows. The last `strength` bars can never qualify, so
// the result only depends on fully confirmed structure.
func SwingPoints(data []types.Candle, strength int) (highs, lows []float64) {
	if strength <= 0 || len(data) < strength*2+1 {
		return nil, nil
	}

	for i := strength; i < len(data)-strength; i++ {
		isHigh, isLow := true, true
		for j := i - strength; j <= i+strength; j++ {
			if j == i {
				continue
			}
			if data[j].High >= data[i].High {
				isHigh = false
			}
			if data[j].Low <= data[i].Low {
				isLow = false
			}
		}
		if isHigh {
			highs = append(highs, data[i].High)
		}
		if isLow {
			lows = append(lows, data[i].Low)
		}
	}
	return highs, lows
}

// NearestSwingLow returns the highest confirmed swing low strictly below the
// reference price, or zero when none exists.
func NearestSwingLow(data []types.Candle, strength int, below float64) float64 {
	_, lows := SwingPoints(data, strength)
	best := 0.0
	for _, low := range lows {
		if low < below && low > best {
			best = low
		}
	}
	return best
}

// NearestSwingHigh returns the lowest confirmed swing high strictly above the
// reference price, or zero when none exists.
func NearestSwingHigh(data []types.Candle, strength int, above float64) float64 {
	highs, _ := SwingPoints(data, strength)
	best := 0.0
	for _, high := range highs {
		if high > above && (best == 0 || high < best) {
			best = high
		}
	}
	return best
}
