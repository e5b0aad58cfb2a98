package decision

import (
	"time"

	"github.com/hoanglm/trading-core/pkg/types"
)

// Action is the verdict the engine hands to the execution layer.
type Action int

const (
	ActionHold Action = iota
	ActionBuy
	ActionSell
	ActionHalt
)

func (a Action) String() string {
	switch a {
	case ActionBuy:
		return "BUY"
	case ActionSell:
		return "SELL"
	case ActionHalt:
		return "HALT"
	default:
		return "HOLD"
	}
}

// Decision is the full output of one evaluation cycle. EntryPrice, StopLoss,
// TakeProfit and SizeFraction are only meaningful for entry actions;
// ClosePosition marks exits, with Forced set when a protective stop fired.
type Decision struct {
	Action        Action
	Confidence    float64
	Reason        string
	EntryPrice    float64
	StopLoss      float64
	TakeProfit    float64
	SizeFraction  float64
	ClosePosition bool
	Forced        bool
}

// History summarizes realized trading performance for position sizing.
// The portfolio tracker produces one each cycle; a zero value is a valid
// cold start and maps to the minimum position size.
type History struct {
	WinRate      float64
	WinLossRatio float64
	TradeCount   int
}

// Input carries everything one evaluation needs. Candles is the primary
// timeframe window, most recent bar last. TimeframeWindows feeds the
// multi-timeframe aggregator and may be missing frames. OrderBook may be
// nil when no snapshot is available.
type Input struct {
	Symbol           string
	Now              time.Time
	Candles          []types.Candle
	TimeframeWindows map[string][]types.Candle
	OrderBook        *types.OrderBookSnapshot
	Equity           float64
	Volatility       float64
	ExternalVeto     bool
	VetoReason       string
	Position         *types.Position
	OpenSymbols      []string
	History          History
}
