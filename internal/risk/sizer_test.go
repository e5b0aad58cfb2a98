package risk

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newTestSizer() *Sizer {
	return NewSizer(DefaultSizerConfig(), zerolog.Nop())
}

func TestFraction_KellyScenario(t *testing.T) {
	// win_rate=0.6, ratio=1.5: kelly ~= 0.333, half-kelly ~= 0.167, and both
	// damping factors at their friendliest still clip to the 2% ceiling.
	s := newTestSizer()

	fraction := s.Fraction(SizeInput{
		WinRate:      0.6,
		WinLossRatio: 1.5,
		TradeCount:   50,
		Volatility:   0.005, // calm: factor 1.0
		Confidence:   1.0,   // factor 1.0
	})

	assert.Equal(t, 0.02, fraction)
}

func TestFraction_AlwaysWithinBounds(t *testing.T) {
	s := newTestSizer()

	for _, winRate := range []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1.0} {
		for _, ratio := range []float64{0.1, 0.5, 1.0, 2.0, 10.0} {
			for _, vol := range []float64{0, 0.02, 0.1} {
				for _, conf := range []float64{0, 0.5, 0.8, 1.0} {
					fraction := s.Fraction(SizeInput{
						WinRate:      winRate,
						WinLossRatio: ratio,
						TradeCount:   100,
						Volatility:   vol,
						Confidence:   conf,
					})
					assert.GreaterOrEqual(t, fraction, 0.005)
					assert.LessOrEqual(t, fraction, 0.02)
				}
			}
		}
	}
}

func TestFraction_FewTradesFallsBackToMinimum(t *testing.T) {
	s := newTestSizer()

	fraction := s.Fraction(SizeInput{
		WinRate:      0.9,
		WinLossRatio: 3.0,
		TradeCount:   3, // below the 10-trade requirement
		Confidence:   1.0,
	})
	assert.Equal(t, 0.005, fraction)
}

func TestFraction_NegativeEdgeClipsToMinimum(t *testing.T) {
	s := newTestSizer()

	// Losing system: kelly would be negative, clipped to zero, then floored.
	fraction := s.Fraction(SizeInput{
		WinRate:      0.3,
		WinLossRatio: 1.0,
		TradeCount:   100,
		Confidence:   1.0,
	})
	assert.Equal(t, 0.005, fraction)
}

func TestFraction_HighVolatilityShrinksSize(t *testing.T) {
	s := newTestSizer()

	// Edge chosen small enough that neither result hits the 2% ceiling.
	base := SizeInput{WinRate: 0.52, WinLossRatio: 1.05, TradeCount: 100, Confidence: 0.6}

	calm := base
	calm.Volatility = 0.005
	wild := base
	wild.Volatility = 0.06

	assert.Greater(t, s.Fraction(calm), s.Fraction(wild))
}

func TestVolatilityFactor_Bounds(t *testing.T) {
	assert.Equal(t, 1.0, volatilityFactor(0))
	assert.Equal(t, 1.0, volatilityFactor(0.01))
	assert.Equal(t, 0.5, volatilityFactor(0.05))
	assert.Equal(t, 0.5, volatilityFactor(0.2))
	mid := volatilityFactor(0.03)
	assert.Greater(t, mid, 0.5)
	assert.Less(t, mid, 1.0)
}

func TestConfidenceFactor_Bounds(t *testing.T) {
	assert.Equal(t, 0.5, confidenceFactor(0))
	assert.Equal(t, 0.5, confidenceFactor(0.5))
	assert.Equal(t, 1.0, confidenceFactor(1.0))
	assert.InDelta(t, 0.75, confidenceFactor(0.75), 1e-9)
}
