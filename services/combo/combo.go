// Package combo produces the derived structures compound bet types need:
// k-combinations for round robins and full permutations for reverse bets.
// Enumeration order is lexicographic and therefore stable, so sequence
// identity is reproducible across settlement attempts.
package combo

import (
	"fmt"

	"github.com/shopspring/decimal"

	"oddsEngine/models"
	"oddsEngine/services/common"
	"oddsEngine/services/oddsmath"
)

// SequencePlan is one independently staked execution path derived from a
// composite wager, before any grading has happened.
type SequencePlan struct {
	Order      []int // 0-based leg positions, execution order
	Stake      decimal.Decimal
	Multiplier decimal.Decimal // combined decimal odds of the constituent legs
}

// combinations returns a restartable producer over the k-subsets of
// {0..n-1} in lexicographic order. Each call to next returns a fresh slice.
func combinations(n, k int) func() ([]int, bool) {
	if k <= 0 || k > n {
		return func() ([]int, bool) { return nil, false }
	}

	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	done := false

	return func() ([]int, bool) {
		if done {
			return nil, false
		}
		out := make([]int, k)
		copy(out, idx)

		// advance to the next combination
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			done = true
		} else {
			idx[i]++
			for j := i + 1; j < k; j++ {
				idx[j] = idx[j-1] + 1
			}
		}
		return out, true
	}
}

// permutations returns a restartable producer over all orderings of
// {0..n-1} in lexicographic order.
func permutations(n int) func() ([]int, bool) {
	if n <= 0 {
		return func() ([]int, bool) { return nil, false }
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	done := false

	return func() ([]int, bool) {
		if done {
			return nil, false
		}
		out := make([]int, n)
		copy(out, idx)

		// next lexicographic permutation
		i := n - 2
		for i >= 0 && idx[i] >= idx[i+1] {
			i--
		}
		if i < 0 {
			done = true
			return out, true
		}
		j := n - 1
		for idx[j] <= idx[i] {
			j--
		}
		idx[i], idx[j] = idx[j], idx[i]
		for l, r := i+1, n-1; l < r; l, r = l+1, r-1 {
			idx[l], idx[r] = idx[r], idx[l]
		}
		return out, true
	}
}

// Combinations materializes every k-combination of {0..n-1}.
func Combinations(n, k int) [][]int {
	var out [][]int
	next := combinations(n, k)
	for c, ok := next(); ok; c, ok = next() {
		out = append(out, c)
	}
	return out
}

// Permutations materializes every ordering of {0..n-1}.
func Permutations(n int) [][]int {
	var out [][]int
	next := permutations(n)
	for p, ok := next(); ok; p, ok = next() {
		out = append(out, p)
	}
	return out
}

// SplitStake divides total across n sequences, rounded to cents, with the
// rounding remainder on the first sequence so the parts sum exactly to total.
func SplitStake(total decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}
	per := total.Div(decimal.NewFromInt(int64(n))).RoundDown(2)
	parts := make([]decimal.Decimal, n)
	for i := range parts {
		parts[i] = per
	}
	parts[0] = parts[0].Add(total.Sub(per.Mul(decimal.NewFromInt(int64(n)))))
	return parts
}

// BuildRoundRobinSequences derives one parlay plan per k-combination of the
// wager's legs. Each plan carries an equal share of totalStake and the
// product of its legs' decimal multipliers.
func BuildRoundRobinSequences(legs []models.Leg, groupSize int, totalStake decimal.Decimal) ([]SequencePlan, error) {
	n := len(legs)
	if groupSize < 2 || groupSize >= n {
		return nil, fmt.Errorf("round robin group size %d invalid for %d legs", groupSize, n)
	}

	combos := Combinations(n, groupSize)
	stakes := SplitStake(totalStake, len(combos))

	plans := make([]SequencePlan, 0, len(combos))
	for i, order := range combos {
		mult := decimal.NewFromInt(1)
		for _, pos := range order {
			m, err := oddsmath.Multiplier(legs[pos].AmericanOdds)
			if err != nil {
				return nil, err
			}
			mult = mult.Mul(m)
		}
		plans = append(plans, SequencePlan{Order: order, Stake: stakes[i], Multiplier: mult})
	}
	return plans, nil
}

// BuildReverseSequences derives one if-bet chain plan per permutation of the
// wager's legs, all equally staked. legCap bounds the factorial blow-up;
// exceeding it returns ErrCombinationLimit (n legs produce n! sequences).
func BuildReverseSequences(legs []models.Leg, totalStake decimal.Decimal, legCap int) ([]SequencePlan, error) {
	n := len(legs)
	if n < 2 {
		return nil, fmt.Errorf("reverse bet needs at least 2 legs, got %d", n)
	}
	if n > legCap {
		return nil, fmt.Errorf("%w: %d legs, cap %d", common.ErrCombinationLimit, n, legCap)
	}

	perms := Permutations(n)
	stakes := SplitStake(totalStake, len(perms))

	plans := make([]SequencePlan, 0, len(perms))
	for i, order := range perms {
		plans = append(plans, SequencePlan{Order: order, Stake: stakes[i], Multiplier: decimal.NewFromInt(1)})
	}
	return plans, nil
}
