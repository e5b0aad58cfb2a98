package indicators

import (
	"math"
	"time"

	"github.com/hoanglm/trading-core/pkg/types"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// generateTestData builds a deterministic wavy series around 100.
func generateTestData(n int) []types.Candle {
	data := make([]types.Candle, n)
	for i := 0; i < n; i++ {
		price := 100.0 + 5.0*math.Sin(float64(i)/4.0) + 0.1*float64(i)
		data[i] = types.Candle{
			OpenTime: testStart.Add(time.Duration(i) * time.Hour),
			Open:     price - 0.2,
			High:     price + 1.0,
			Low:      price - 1.0,
			Close:    price,
			Volume:   1000 + 50*float64(i%7),
		}
	}
	return data
}

// generateFlatData builds candles that all close at the given price.
func generateFlatData(n int, price float64) []types.Candle {
	data := make([]types.Candle, n)
	for i := 0; i < n; i++ {
		data[i] = types.Candle{
			OpenTime: testStart.Add(time.Duration(i) * time.Hour),
			Open:     price,
			High:     price,
			Low:      price,
			Close:    price,
			Volume:   1000,
		}
	}
	return data
}

// generateTrendData builds a strongly directional series, step per bar.
func generateTrendData(n int, start, step float64) []types.Candle {
	data := make([]types.Candle, n)
	price := start
	for i := 0; i < n; i++ {
		data[i] = types.Candle{
			OpenTime: testStart.Add(time.Duration(i) * time.Hour),
			Open:     price,
			High:     math.Max(price, price+step) + math.Abs(step)*0.2,
			Low:      math.Min(price, price+step) - math.Abs(step)*0.2,
			Close:    price + step,
			Volume:   1000,
		}
		price += step
	}
	return data
}
