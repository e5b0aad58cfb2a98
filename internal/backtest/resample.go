package backtest

import (
	"fmt"
	"time"

	"github.com/hoanglm/trading-core/pkg/types"
)

var intervalDurations = map[string]time.Duration{
	"1m":  time.Minute,
	"3m":  3 * time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"2h":  2 * time.Hour,
	"4h":  4 * time.Hour,
	"6h":  6 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
}

// IntervalDuration translates short interval notation to a duration.
func IntervalDuration(interval string) (time.Duration, error) {
	d, ok := intervalDurations[interval]
	if !ok {
		return 0, fmt.Errorf("unsupported interval %q", interval)
	}
	return d, nil
}

// Resample aggregates candles into buckets of the given duration. Input must
// be ordered by OpenTime. The last bucket may be partial; it only ever
// contains bars already present in the input, so resampling a trailing
// window never sees data past the window's end.
func Resample(candles []types.Candle, bucket time.Duration) []types.Candle {
	if len(candles) == 0 || bucket <= 0 {
		return nil
	}

	var out []types.Candle
	for _, c := range candles {
		start := c.OpenTime.Truncate(bucket)
		if len(out) == 0 || !out[len(out)-1].OpenTime.Equal(start) {
			out = append(out, types.Candle{
				OpenTime: start,
				Open:     c.Open,
				High:     c.High,
				Low:      c.Low,
				Close:    c.Close,
				Volume:   c.Volume,
			})
			continue
		}
		last := &out[len(out)-1]
		if c.High > last.High {
			last.High = c.High
		}
		if c.Low < last.Low {
			last.Low = c.Low
		}
		last.Close = c.Close
		last.Volume += c.Volume
	}
	return out
}
