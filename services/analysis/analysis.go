// Package analysis holds the decision-support calculators: expected value,
// Kelly staking and arbitrage detection. They share the oddsmath primitives
// with the settlement core but never touch wager state.
package analysis

import (
	"math"

	"github.com/shopspring/decimal"

	"oddsEngine/services/common"
	"oddsEngine/services/oddsmath"
)

// ExpectedValue computes trueProb*payout - (1-trueProb)*stake for a bet at
// the given American odds.
func ExpectedValue(trueProb float64, american int, stake decimal.Decimal) (decimal.Decimal, error) {
	payout, err := oddsmath.Payout(stake, american)
	if err != nil {
		return decimal.Zero, err
	}

	win := payout.Mul(decimal.NewFromFloat(trueProb))
	lose := stake.Mul(decimal.NewFromFloat(1 - trueProb))
	return win.Sub(lose), nil
}

// KellyFraction computes the Kelly criterion stake fraction
// (trueProb*d - 1) / (d - 1) for decimal multiplier d, clamped to [0, 1].
func KellyFraction(trueProb float64, american int) (float64, error) {
	m, err := oddsmath.Multiplier(american)
	if err != nil {
		return 0, err
	}
	d := m.InexactFloat64()
	if d <= 1 || trueProb <= 0 || trueProb >= 1 {
		return 0, nil
	}

	kelly := (trueProb*d - 1) / (d - 1)
	kelly = math.Max(0, kelly)
	kelly = math.Min(kelly, 1.0)
	return kelly, nil
}

// RemoveVig removes the juice from a two-way market using proportional
// normalization, returning probabilities that sum to 1.
func RemoveVig(impliedA, impliedB float64) (float64, float64) {
	if impliedA <= 0 || impliedB <= 0 {
		return 0, 0
	}
	total := impliedA + impliedB
	return impliedA / total, impliedB / total
}

// ArbitrageReport describes a cross-book opportunity for one outcome set.
type ArbitrageReport struct {
	MarketPercent    float64 // sum of implied probabilities
	IsArbitrage      bool    // true iff MarketPercent < 1
	TotalStake       decimal.Decimal
	Stakes           []decimal.Decimal // per leg, proportional to implied probability
	GuaranteedProfit decimal.Decimal   // zero when not an arbitrage
}

// AnalyzeArbitrage sums the implied probabilities of every leg and, when
// they come in under 100%, splits totalStake so each outcome returns the
// same amount. Profit = totalStake/marketPercent - totalStake.
func AnalyzeArbitrage(odds []int, totalStake decimal.Decimal) (*ArbitrageReport, error) {
	if len(odds) == 0 {
		return nil, common.ErrInvalidOdds
	}

	implied := make([]float64, len(odds))
	percent := 0.0
	for i, o := range odds {
		p, err := oddsmath.ImpliedProbability(o)
		if err != nil {
			return nil, err
		}
		implied[i] = p
		percent += p
	}

	report := &ArbitrageReport{
		MarketPercent: percent,
		IsArbitrage:   percent < 1,
		TotalStake:    totalStake,
		Stakes:        make([]decimal.Decimal, len(odds)),
	}

	pct := decimal.NewFromFloat(percent)
	for i, p := range implied {
		report.Stakes[i] = totalStake.Mul(decimal.NewFromFloat(p)).Div(pct).Round(2)
	}
	if report.IsArbitrage {
		report.GuaranteedProfit = totalStake.Div(pct).Sub(totalStake).Round(2)
	} else {
		report.GuaranteedProfit = decimal.Zero
	}

	return report, nil
}
