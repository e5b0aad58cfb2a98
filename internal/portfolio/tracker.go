// Package portfolio tracks realized trades and the mark-to-market equity
// curve, and derives the performance statistics the sizer feeds on.
package portfolio

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/hoanglm/trading-core/internal/decision"
	"github.com/hoanglm/trading-core/pkg/types"
)

// Stats is the aggregate performance report over all recorded trades and
// equity marks. With zero trades every field is zero; no statistic divides
// by a missing denominator.
type Stats struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	WinLossRatio  float64
	ProfitFactor  float64
	Expectancy    float64
	AvgWin        float64
	AvgLoss       float64
	LargestWin    float64
	LargestLoss   float64
	TotalNetPnL   float64
	TotalFees     float64
	MaxDrawdown   float64 // fraction of peak equity, 0..1
	SharpeRatio   float64 // annualized, from per-bar equity returns
	SortinoRatio  float64 // annualized, downside deviation only
	InitialEquity float64
	FinalEquity   float64
	TotalReturn   float64 // fraction of initial equity
}

// Tracker accumulates equity points and completed round trips. Points and
// trades are never reordered or deleted; re-marking a timestamp overwrites
// that point's equity.
type Tracker struct {
	initialEquity  float64
	periodsPerYear float64
	curve          []types.EquityPoint
	trades         []types.TradeRecord
	log            zerolog.Logger
}

// NewTracker creates a tracker. periodsPerYear annualizes Sharpe and Sortino
// from per-bar returns; pass the bar frequency of the equity marks (8760 for
// hourly, 105120 for 5-minute bars).
func NewTracker(initialEquity, periodsPerYear float64, log zerolog.Logger) *Tracker {
	if periodsPerYear <= 0 {
		periodsPerYear = 365 * 24
	}
	return &Tracker{
		initialEquity:  initialEquity,
		periodsPerYear: periodsPerYear,
		log:            log.With().Str("component", "portfolio").Logger(),
	}
}

// MarkEquity records one equity observation per timestamp. Marking the same
// timestamp twice updates the existing point in place, so the curve stays
// strictly time-ordered with one point per bar.
func (t *Tracker) MarkEquity(ts time.Time, equity float64) {
	if n := len(t.curve); n > 0 && t.curve[n-1].Timestamp.Equal(ts) {
		t.curve[n-1].Equity = equity
		return
	}
	t.curve = append(t.curve, types.EquityPoint{Timestamp: ts, Equity: equity})
}

// RecordTrade appends one completed round trip.
func (t *Tracker) RecordTrade(rec types.TradeRecord) {
	t.trades = append(t.trades, rec)
	t.log.Debug().
		Str("symbol", rec.Symbol).
		Float64("net_pnl", rec.NetPnL).
		Str("exit_reason", rec.ExitReason).
		Int("total_trades", len(t.trades)).
		Msg("trade recorded")
}

// EquityCurve returns the recorded curve. The slice is shared, not copied;
// callers must not mutate it.
func (t *Tracker) EquityCurve() []types.EquityPoint { return t.curve }

// Trades returns the recorded round trips, oldest first.
func (t *Tracker) Trades() []types.TradeRecord { return t.trades }

// History summarizes realized performance in the shape the position sizer
// consumes. A cold tracker returns zeros, which sizes at the minimum.
func (t *Tracker) History() decision.History {
	wins, losses := 0, 0
	winSum, lossSum := 0.0, 0.0
	for _, tr := range t.trades {
		if tr.NetPnL > 0 {
			wins++
			winSum += tr.NetPnL
		} else {
			losses++
			lossSum += math.Abs(tr.NetPnL)
		}
	}

	h := decision.History{TradeCount: len(t.trades)}
	if len(t.trades) > 0 {
		h.WinRate = float64(wins) / float64(len(t.trades))
	}
	if wins > 0 && losses > 0 && lossSum > 0 {
		h.WinLossRatio = (winSum / float64(wins)) / (lossSum / float64(losses))
	}
	return h
}

// Stats computes the full performance report.
func (t *Tracker) Stats() Stats {
	s := Stats{
		TotalTrades:   len(t.trades),
		InitialEquity: t.initialEquity,
		FinalEquity:   t.initialEquity,
	}
	if n := len(t.curve); n > 0 {
		s.FinalEquity = t.curve[n-1].Equity
	}
	if t.initialEquity > 0 {
		s.TotalReturn = (s.FinalEquity - t.initialEquity) / t.initialEquity
	}
	s.MaxDrawdown = maxDrawdown(t.curve)
	s.SharpeRatio, s.SortinoRatio = t.riskAdjusted()

	if len(t.trades) == 0 {
		return s
	}

	var winSum, lossSum float64
	for _, tr := range t.trades {
		s.TotalNetPnL += tr.NetPnL
		s.TotalFees += tr.FeesTotal
		if tr.NetPnL > 0 {
			s.WinningTrades++
			winSum += tr.NetPnL
			if tr.NetPnL > s.LargestWin {
				s.LargestWin = tr.NetPnL
			}
		} else {
			s.LosingTrades++
			lossSum += math.Abs(tr.NetPnL)
			if tr.NetPnL < s.LargestLoss {
				s.LargestLoss = tr.NetPnL
			}
		}
	}

	s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades)
	s.Expectancy = s.TotalNetPnL / float64(s.TotalTrades)
	if s.WinningTrades > 0 {
		s.AvgWin = winSum / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AvgLoss = -lossSum / float64(s.LosingTrades)
	}
	if s.AvgWin > 0 && s.AvgLoss < 0 {
		s.WinLossRatio = s.AvgWin / -s.AvgLoss
	}
	switch {
	case lossSum > 0:
		s.ProfitFactor = winSum / lossSum
	case winSum > 0:
		s.ProfitFactor = math.Inf(1)
	}

	return s
}

// riskAdjusted computes annualized Sharpe and Sortino from per-bar equity
// returns, assuming a zero risk-free rate.
func (t *Tracker) riskAdjusted() (sharpe, sortino float64) {
	if len(t.curve) < 3 {
		return 0, 0
	}

	returns := make([]float64, 0, len(t.curve)-1)
	for i := 1; i < len(t.curve); i++ {
		prev := t.curve[i-1].Equity
		if prev <= 0 {
			continue
		}
		returns = append(returns, (t.curve[i].Equity-prev)/prev)
	}
	if len(returns) < 2 {
		return 0, 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance, downVariance := 0.0, 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
		if r < 0 {
			downVariance += r * r
		}
	}
	variance /= float64(len(returns))
	downVariance /= float64(len(returns))

	annual := math.Sqrt(t.periodsPerYear)
	if std := math.Sqrt(variance); std > 1e-12 {
		sharpe = mean / std * annual
	}
	if downStd := math.Sqrt(downVariance); downStd > 1e-12 {
		sortino = mean / downStd * annual
	} else if mean > 0 {
		sortino = math.Inf(1)
	}
	return sharpe, sortino
}

// maxDrawdown returns the largest peak-to-trough equity decline as a
// fraction of the peak.
func maxDrawdown(curve []types.EquityPoint) float64 {
	peak, maxDD := 0.0, 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			if dd := (peak - p.Equity) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
