// Package exchange defines the market-data and execution surfaces the decision
// loop runs against: a deterministic in-memory simulator for backtests and
// paper trading, and the provider interface live adapters implement.
package exchange

import (
	"context"

	"github.com/hoanglm/trading-core/pkg/types"
)

// MarketDataProvider supplies candles and order books for one venue. Intervals
// use the short notation ("5m", "1h", "1d"); implementations translate to
// their venue's encoding.
type MarketDataProvider interface {
	Candles(ctx context.Context, symbol, interval string, limit int) ([]types.Candle, error)
	OrderBook(ctx context.Context, symbol string, depth int) (*types.OrderBookSnapshot, error)
}
