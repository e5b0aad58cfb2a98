package analysis

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hoanglm/trading-core/pkg/types"
)

// LiquidityResult is the tradeability verdict for one order-book snapshot.
type LiquidityResult struct {
	Tradeable  bool
	Warning    bool // inside the warning band: tradeable thresholds missed, hard limits not yet
	SpreadPct  float64
	DepthRatio float64
	Reason     string
}

// LiquidityAnalyzer evaluates spread and depth against fixed bands. A missing
// order book is treated as untradeable, never as an assumption of liquidity.
type LiquidityAnalyzer struct {
	maxSpreadPct     float64 // tradeable spread limit, percent of mid
	warnSpreadPct    float64
	maxDepthRatio    float64 // tradeable notional/depth limit
	warnDepthRatio   float64
	depthLevels      int
	log              zerolog.Logger
}

// NewLiquidityAnalyzer creates an analyzer with the standard bands: tradeable
// below 0.15% spread and 10% depth ratio, warning up to 0.20% and 20%.
func NewLiquidityAnalyzer(log zerolog.Logger) *LiquidityAnalyzer {
	return &LiquidityAnalyzer{
		maxSpreadPct:   0.15,
		warnSpreadPct:  0.20,
		maxDepthRatio:  0.10,
		warnDepthRatio: 0.20,
		depthLevels:    5,
		log:            log.With().Str("module", "liquidity").Logger(),
	}
}

// Analyze checks whether a trade of the given notional can execute without
// unacceptable spread cost or book impact.
func (a *LiquidityAnalyzer) Analyze(book *types.OrderBookSnapshot, notional float64) LiquidityResult {
	if book == nil || len(book.Bids) == 0 || len(book.Asks) == 0 {
		a.log.Warn().Msg("order book unavailable, treating as untradeable")
		return LiquidityResult{Reason: "order book unavailable"}
	}

	mid := book.MidPrice()
	if mid <= 0 || book.BestBid() >= book.BestAsk() {
		a.log.Warn().Float64("best_bid", book.BestBid()).Float64("best_ask", book.BestAsk()).
			Msg("crossed or degenerate book, treating as untradeable")
		return LiquidityResult{Reason: "crossed or degenerate book"}
	}

	spreadPct := (book.BestAsk() - book.BestBid()) / mid * 100

	depth := a.visibleDepth(book)
	depthRatio := 1.0
	if depth > 0 {
		depthRatio = notional / depth
	}

	result := LiquidityResult{SpreadPct: spreadPct, DepthRatio: depthRatio}

	switch {
	case spreadPct < a.maxSpreadPct && depthRatio < a.maxDepthRatio:
		result.Tradeable = true
		result.Reason = "liquidity ok"
	case spreadPct < a.warnSpreadPct && depthRatio < a.warnDepthRatio:
		result.Warning = true
		result.Reason = fmt.Sprintf("marginal liquidity: spread %.3f%% (limit %.2f%%), depth ratio %.1f%% (limit %.0f%%)",
			spreadPct, a.maxSpreadPct, depthRatio*100, a.maxDepthRatio*100)
	default:
		result.Reason = fmt.Sprintf("insufficient liquidity: spread %.3f%% (max %.2f%%), depth ratio %.1f%% (max %.0f%%)",
			spreadPct, a.warnSpreadPct, depthRatio*100, a.warnDepthRatio*100)
	}

	if !result.Tradeable {
		a.log.Info().Float64("spread_pct", spreadPct).Float64("depth_ratio", depthRatio).
			Float64("notional", notional).Str("reason", result.Reason).Msg("liquidity gate")
	}
	return result
}

// visibleDepth sums notional over the top levels of each side and takes the
// thinner side, since an exit needs the opposite book.
func (a *LiquidityAnalyzer) visibleDepth(book *types.OrderBookSnapshot) float64 {
	side := func(levels []types.PriceLevel) float64 {
		total := 0.0
		for i, level := range levels {
			if i >= a.depthLevels {
				break
			}
			total += level.Price * level.Size
		}
		return total
	}

	bidDepth, askDepth := side(book.Bids), side(book.Asks)
	if bidDepth < askDepth {
		return bidDepth
	}
	return askDepth
}
