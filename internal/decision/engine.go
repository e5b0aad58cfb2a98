package decision

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hoanglm/trading-core/internal/analysis"
	"github.com/hoanglm/trading-core/internal/regime"
	"github.com/hoanglm/trading-core/internal/risk"
	"github.com/hoanglm/trading-core/pkg/types"
)

// Config holds the engine's own thresholds. The collaborating analyzers
// carry their thresholds in their own configs.
type Config struct {
	BaseConfidence     float64 `yaml:"base_confidence" default:"0.70" validate:"gt=0,lte=1"`
	MinConfidence      float64 `yaml:"min_confidence" default:"0.60" validate:"gt=0,lte=1"`
	VolumeAdjustment   float64 `yaml:"volume_adjustment" default:"0.20" validate:"gte=0"`
	MTFBonus           float64 `yaml:"mtf_bonus" default:"0.15" validate:"gte=0"`
	TakeProfitMultiple float64 `yaml:"take_profit_multiple" default:"2.0" validate:"gt=0"`
}

func DefaultConfig() Config {
	return Config{
		BaseConfidence:     0.70,
		MinConfidence:      0.60,
		VolumeAdjustment:   0.20,
		MTFBonus:           0.15,
		TakeProfitMultiple: 2.0,
	}
}

// Engine runs the evaluation ladder each cycle: validate, manage any open
// position, classify the regime, build confidence, apply vetoes and gates,
// and finally size a new entry. It never places orders itself.
type Engine struct {
	cfg       Config
	regime    *regime.Classifier
	mtf       *analysis.MTFAggregator
	volume    *analysis.VolumeAnalyzer
	liquidity *analysis.LiquidityAnalyzer
	corr      *analysis.CorrelationAnalyzer
	sizer     *risk.Sizer
	stops     *risk.StopManager
	guard     *risk.Guard
	log       zerolog.Logger
}

func NewEngine(
	cfg Config,
	rc *regime.Classifier,
	mtf *analysis.MTFAggregator,
	vol *analysis.VolumeAnalyzer,
	liq *analysis.LiquidityAnalyzer,
	corr *analysis.CorrelationAnalyzer,
	sizer *risk.Sizer,
	stops *risk.StopManager,
	guard *risk.Guard,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		cfg:       cfg,
		regime:    rc,
		mtf:       mtf,
		volume:    vol,
		liquidity: liq,
		corr:      corr,
		sizer:     sizer,
		stops:     stops,
		guard:     guard,
		log:       log.With().Str("component", "decision").Logger(),
	}
}

// Guard exposes the fee and frequency guard so executors can record fills
// against the same counters the engine gates on.
func (e *Engine) Guard() *risk.Guard { return e.guard }

// Stops exposes the stop manager for executors that need the initial stop
// recomputed against the actual fill price.
func (e *Engine) Stops() *risk.StopManager { return e.stops }

// Evaluate runs one full decision cycle. It never returns an error:
// recoverable data problems degrade to HOLD, while corrupted input that
// would make any verdict unsafe yields HALT.
func (e *Engine) Evaluate(ctx context.Context, in Input) Decision {
	if err := ctx.Err(); err != nil {
		return hold("evaluation cancelled")
	}
	if reason, ok := validate(in); !ok {
		e.log.Error().Str("symbol", in.Symbol).Str("reason", reason).Msg("halting on corrupted input")
		return Decision{Action: ActionHalt, Reason: reason}
	}

	// Protective stops come before every other gate. A position whose stop
	// is breached must exit regardless of vetoes, confidence or fee math.
	if in.Position != nil {
		price := in.Candles[len(in.Candles)-1].Close
		in.Position.UpdateExtreme(price)
		in.Position.StopPrice = e.stops.Trail(in.Position, in.Candles)
		if e.stops.ShouldExit(in.Position, price) {
			e.log.Warn().
				Str("symbol", in.Symbol).
				Float64("price", price).
				Float64("stop", in.Position.StopPrice).
				Msg("stop breached, forcing exit")
			return Decision{
				Action:        closeAction(in.Position.Side),
				Confidence:    1.0,
				Reason:        "stop-loss breached",
				ClosePosition: true,
				Forced:        true,
			}
		}
	}

	reg := e.regime.Classify(in.Candles)
	volRes := e.volume.Analyze(in.Candles)
	mtfRes := e.mtf.Aggregate(in.TimeframeWindows)

	if in.Position != nil {
		return e.managePosition(in, reg)
	}

	if reg.Label == regime.Sideways {
		d := hold(fmt.Sprintf("sideways regime (adx %.1f)", reg.TrendStrength))
		d.Confidence = 0.5
		return d
	}

	confidence := e.confidence(reg.Label, volRes, mtfRes)

	if in.ExternalVeto {
		return hold(vetoReason(in))
	}
	if confidence < e.cfg.MinConfidence {
		return hold(fmt.Sprintf("confidence %.2f below threshold %.2f", confidence, e.cfg.MinConfidence))
	}

	return e.enter(in, reg, confidence)
}

// managePosition handles an open position that has not hit its stop:
// voluntary exits on take-profit or regime reversal, both gated by the
// external veto and the fee and frequency guard. Only stop breaches,
// handled before this point, exit under an active veto.
func (e *Engine) managePosition(in Input, reg regime.Result) Decision {
	if in.ExternalVeto {
		return hold(vetoReason(in))
	}

	pos := in.Position
	price := in.Candles[len(in.Candles)-1].Close

	reason := ""
	switch {
	case pos.TakeProfit > 0 && pos.Side == types.SideLong && price >= pos.TakeProfit:
		reason = "take profit"
	case pos.TakeProfit > 0 && pos.Side == types.SideShort && price <= pos.TakeProfit:
		reason = "take profit"
	case pos.Side == types.SideLong && reg.Label == regime.TrendingDown:
		reason = "regime reversal"
	case pos.Side == types.SideShort && reg.Label == regime.TrendingUp:
		reason = "regime reversal"
	default:
		return hold("position open, trend intact")
	}

	grossPnL := pos.UnrealizedPnL(price)
	entryNotional := pos.EntryPrice * pos.Quantity
	exitNotional := price * pos.Quantity
	gate := e.guard.AllowExit(in.Symbol, pos.EntryTime, in.Now, grossPnL, entryNotional, exitNotional)
	if !gate.Allowed {
		return hold(fmt.Sprintf("%s exit blocked: %s", reason, gate.Reason))
	}
	return Decision{
		Action:        closeAction(pos.Side),
		Confidence:    e.cfg.BaseConfidence,
		Reason:        reason,
		ClosePosition: true,
	}
}

// enter runs the entry-side gates in order: position sizing, liquidity on
// the sized notional, correlation against open positions, and trade
// frequency. Any failing gate degrades to HOLD with the gate's reason.
func (e *Engine) enter(in Input, reg regime.Result, confidence float64) Decision {
	price := in.Candles[len(in.Candles)-1].Close
	fraction := e.sizer.Fraction(risk.SizeInput{
		WinRate:      in.History.WinRate,
		WinLossRatio: in.History.WinLossRatio,
		TradeCount:   in.History.TradeCount,
		Volatility:   in.Volatility,
		Confidence:   confidence,
	})
	notional := fraction * in.Equity

	// Warning-band books are not tradeable either; the analyzer's reason
	// distinguishes marginal from insufficient liquidity.
	liq := e.liquidity.Analyze(in.OrderBook, notional)
	if !liq.Tradeable {
		return hold(fmt.Sprintf("liquidity: %s", liq.Reason))
	}

	if vetoed, reason := e.corr.Veto(in.Symbol, in.OpenSymbols); vetoed {
		return hold(reason)
	}

	gate := e.guard.AllowEntry(in.Symbol, in.Now)
	if !gate.Allowed {
		return hold(gate.Reason)
	}

	side := types.SideLong
	action := ActionBuy
	if reg.Label == regime.TrendingDown {
		side = types.SideShort
		action = ActionSell
	}
	stop, distance := e.stops.InitialStop(in.Candles, price, side)
	tp := price + e.cfg.TakeProfitMultiple*distance
	if side == types.SideShort {
		tp = price - e.cfg.TakeProfitMultiple*distance
	}

	e.log.Info().
		Str("symbol", in.Symbol).
		Str("action", action.String()).
		Float64("confidence", confidence).
		Float64("fraction", fraction).
		Float64("stop", stop).
		Float64("take_profit", tp).
		Msg("entry signal")

	return Decision{
		Action:       action,
		Confidence:   confidence,
		Reason:       fmt.Sprintf("%s regime, confidence %.2f", reg.Label, confidence),
		EntryPrice:   price,
		StopLoss:     stop,
		TakeProfit:   tp,
		SizeFraction: fraction,
	}
}

// confidence builds the score from the base level, a symmetric volume
// alignment adjustment, and a bonus-only multi-timeframe adjustment.
// Volume and MTF scores count toward confidence only when they agree with
// the regime direction; disagreement subtracts (volume) or adds nothing
// (MTF).
func (e *Engine) confidence(label regime.Label, vol analysis.VolumeResult, mtf analysis.MTFResult) float64 {
	dir := 1.0
	if label == regime.TrendingDown {
		dir = -1.0
	}

	// Volume score is 0..1 with 0.5 neutral; map alignment to ±adjustment.
	volAlign := dir * (vol.Score - 0.5) * 2
	c := e.cfg.BaseConfidence + volAlign*e.cfg.VolumeAdjustment

	// MTF score is -1..+1; only agreement earns a bonus.
	mtfAlign := dir * mtf.Score
	if mtfAlign > 0 {
		c += clamp(mtfAlign, 0, 1) * e.cfg.MTFBonus
	}

	return clamp(c, 0, 1)
}

func validate(in Input) (string, bool) {
	if len(in.Candles) == 0 {
		return "empty candle window", false
	}
	prev := in.Candles[0]
	if badCandle(prev) {
		return "non-positive price or negative volume in window", false
	}
	for _, c := range in.Candles[1:] {
		if badCandle(c) {
			return "non-positive price or negative volume in window", false
		}
		if !c.OpenTime.After(prev.OpenTime) {
			return "candle timestamps out of order", false
		}
		prev = c
	}
	if in.Equity < 0 {
		return "negative account equity", false
	}
	return "", true
}

func badCandle(c types.Candle) bool {
	return c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 || c.Volume < 0
}

func closeAction(side types.Side) Action {
	if side == types.SideLong {
		return ActionSell
	}
	return ActionBuy
}

func vetoReason(in Input) string {
	if in.VetoReason != "" {
		return in.VetoReason
	}
	return "external veto active"
}

func hold(reason string) Decision {
	return Decision{Action: ActionHold, Reason: reason}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
