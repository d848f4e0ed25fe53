package oddsmath

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"oddsEngine/services/common"
)

var one = decimal.NewFromInt(1)

// Multiplier converts American odds to the decimal-odds payout multiplier.
// Positive odds: 1 + odds/100. Negative odds: 1 + 100/|odds|. Zero odds
// are invalid.
func Multiplier(american int) (decimal.Decimal, error) {
	if american == 0 {
		return decimal.Zero, common.ErrInvalidOdds
	}
	if american > 0 {
		return one.Add(decimal.New(int64(american), -2)), nil
	}
	return one.Add(decimal.NewFromInt(100).Div(decimal.NewFromInt(int64(-american)))), nil
}

// Payout returns stake times the decimal multiplier, stake included.
func Payout(stake decimal.Decimal, american int) (decimal.Decimal, error) {
	m, err := Multiplier(american)
	if err != nil {
		return decimal.Zero, err
	}
	return stake.Mul(m), nil
}

// Profit is the payout net of the returned stake.
func Profit(stake decimal.Decimal, american int) (decimal.Decimal, error) {
	p, err := Payout(stake, american)
	if err != nil {
		return decimal.Zero, err
	}
	return p.Sub(stake), nil
}

// ImpliedProbability converts American odds to the bookmaker's implied
// win probability, in (0,1). Positive odds: 100/(odds+100). Negative:
// |odds|/(|odds|+100).
func ImpliedProbability(american int) (float64, error) {
	if american == 0 {
		return 0, common.ErrInvalidOdds
	}
	if american > 0 {
		return 100.0 / (float64(american) + 100.0), nil
	}
	abs := float64(-american)
	return abs / (abs + 100.0), nil
}

// FormatOdds renders American odds with an explicit sign, e.g. "+150", "-110".
func FormatOdds(odds float64) string {
	response := ""

	if odds == float64(int(odds)) {
		response = strconv.Itoa(int(odds))
	} else {
		response = fmt.Sprintf("%.1f", odds)
	}

	if odds > 0 {
		return fmt.Sprintf("+%s", response)
	}
	return response
}
