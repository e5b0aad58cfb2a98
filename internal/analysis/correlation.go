package analysis

import (
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"
)

// CorrelationAnalyzer maintains trailing return series per symbol and computes
// pairwise Pearson correlation on demand. It is the only state shared across
// symbol workers, so reads take an RLock and AddClose is the single writer
// path, refreshed once per cycle.
type CorrelationAnalyzer struct {
	mu         sync.RWMutex
	returns    map[string][]float64
	lastClose  map[string]float64
	maxPeriods int
	minOverlap int
	threshold  float64
	log        zerolog.Logger
}

// NewCorrelationAnalyzer creates an analyzer keeping 100 trailing returns per
// symbol and vetoing at |r| > 0.7.
func NewCorrelationAnalyzer(log zerolog.Logger) *CorrelationAnalyzer {
	return &CorrelationAnalyzer{
		returns:    make(map[string][]float64),
		lastClose:  make(map[string]float64),
		maxPeriods: 100,
		minOverlap: 30,
		threshold:  0.7,
		log:        log.With().Str("module", "correlation").Logger(),
	}
}

// AddClose appends one period's close for a symbol, converting it to a simple
// return against the previous close. The buffer is bounded at maxPeriods.
func (a *CorrelationAnalyzer) AddClose(symbol string, close float64) {
	if close <= 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if prev, ok := a.lastClose[symbol]; ok && prev > 0 {
		series := append(a.returns[symbol], close/prev-1)
		if len(series) > a.maxPeriods {
			series = series[len(series)-a.maxPeriods:]
		}
		a.returns[symbol] = series
	}
	a.lastClose[symbol] = close
}

// Correlation returns the Pearson correlation between the two symbols' return
// series. ok is false when overlapping history is below the minimum, which
// callers must treat as "uncorrelated" (cold start never vetoes).
func (a *CorrelationAnalyzer) Correlation(symA, symB string) (r float64, ok bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.correlationLocked(symA, symB)
}

func (a *CorrelationAnalyzer) correlationLocked(symA, symB string) (float64, bool) {
	x, y := a.returns[symA], a.returns[symB]
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n < a.minOverlap {
		return 0, false
	}

	// Align on the most recent n periods.
	x, y = x[len(x)-n:], y[len(y)-n:]

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
	}
	meanX, meanY := sumX/float64(n), sumY/float64(n)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx, dy := x[i]-meanX, y[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, false
	}

	return cov / math.Sqrt(varX*varY), true
}

// Veto reports whether a candidate trade is blocked by correlation with any
// symbol currently holding an open position. Insufficient history counts as
// uncorrelated and is logged as a data-quality note.
func (a *CorrelationAnalyzer) Veto(candidate string, openSymbols []string) (bool, string) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, open := range openSymbols {
		if open == candidate {
			continue
		}
		r, ok := a.correlationLocked(candidate, open)
		if !ok {
			a.log.Debug().Str("candidate", candidate).Str("open", open).
				Msg("insufficient overlapping history, treating as uncorrelated")
			continue
		}
		if math.Abs(r) > a.threshold {
			reason := fmt.Sprintf("correlation %.2f with open position %s exceeds %.2f", r, open, a.threshold)
			a.log.Info().Str("candidate", candidate).Str("open", open).
				Float64("correlation", r).Float64("threshold", a.threshold).Msg("correlation veto")
			return true, reason
		}
	}
	return false, ""
}
