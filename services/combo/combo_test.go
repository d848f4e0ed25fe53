package combo

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"oddsEngine/models"
	"oddsEngine/services/common"
)

func TestCombinations(t *testing.T) {
	got := Combinations(4, 2)
	expected := [][]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Combinations(4,2) = %v, expected %v", got, expected)
	}

	if got := Combinations(3, 3); len(got) != 1 {
		t.Errorf("Combinations(3,3) has %d entries, expected 1", len(got))
	}
	if got := Combinations(3, 4); got != nil {
		t.Errorf("Combinations(3,4) = %v, expected nil", got)
	}
}

func TestPermutations(t *testing.T) {
	got := Permutations(3)
	expected := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Permutations(3) = %v, expected %v", got, expected)
	}

	if got := Permutations(4); len(got) != 24 {
		t.Errorf("Permutations(4) has %d entries, expected 24", len(got))
	}
}

func TestEnumerationIsDeterministic(t *testing.T) {
	// sequence identity must be reproducible across settlement attempts
	if !reflect.DeepEqual(Combinations(5, 3), Combinations(5, 3)) {
		t.Error("Combinations not deterministic across calls")
	}
	if !reflect.DeepEqual(Permutations(4), Permutations(4)) {
		t.Error("Permutations not deterministic across calls")
	}
}

func TestSplitStake(t *testing.T) {
	tests := []struct {
		name     string
		total    string
		n        int
		expected []string
	}{
		{"even split", "30", 3, []string{"10", "10", "10"}},
		{"remainder goes first", "10", 3, []string{"3.34", "3.33", "3.33"}},
		{"single part", "25.50", 1, []string{"25.50"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := decimal.RequireFromString(tt.total)
			parts := SplitStake(total, tt.n)
			if len(parts) != tt.n {
				t.Fatalf("SplitStake returned %d parts, expected %d", len(parts), tt.n)
			}
			sum := decimal.Zero
			for i, p := range parts {
				if !p.Equal(decimal.RequireFromString(tt.expected[i])) {
					t.Errorf("part %d = %s, expected %s", i, p, tt.expected[i])
				}
				sum = sum.Add(p)
			}
			if !sum.Equal(total) {
				t.Errorf("parts sum to %s, expected %s", sum, total)
			}
		})
	}
}

func legsWithOdds(odds ...int) []models.Leg {
	legs := make([]models.Leg, len(odds))
	for i, o := range odds {
		legs[i] = models.Leg{Position: i, AmericanOdds: o}
	}
	return legs
}

func TestBuildRoundRobinSequences(t *testing.T) {
	legs := legsWithOdds(100, 100, 100)
	plans, err := BuildRoundRobinSequences(legs, 2, decimal.NewFromInt(30))
	if err != nil {
		t.Fatalf("BuildRoundRobinSequences returned error: %v", err)
	}
	if len(plans) != 3 {
		t.Fatalf("3 choose 2 produced %d plans, expected 3", len(plans))
	}
	for _, plan := range plans {
		if !plan.Stake.Equal(decimal.NewFromInt(10)) {
			t.Errorf("plan stake = %s, expected 10", plan.Stake)
		}
		if !plan.Multiplier.Equal(decimal.NewFromInt(4)) {
			t.Errorf("plan multiplier = %s, expected 4 (2.0 x 2.0)", plan.Multiplier)
		}
	}

	if _, err := BuildRoundRobinSequences(legs, 3, decimal.NewFromInt(30)); err == nil {
		t.Error("group size equal to leg count should be rejected")
	}
	if _, err := BuildRoundRobinSequences(legs, 1, decimal.NewFromInt(30)); err == nil {
		t.Error("group size 1 should be rejected")
	}
}

func TestBuildReverseSequences(t *testing.T) {
	legs := legsWithOdds(-110, -110)
	plans, err := BuildReverseSequences(legs, decimal.NewFromInt(50), 4)
	if err != nil {
		t.Fatalf("BuildReverseSequences returned error: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("2-leg reverse produced %d plans, expected 2", len(plans))
	}
	if !plans[0].Stake.Equal(decimal.NewFromInt(25)) || !plans[1].Stake.Equal(decimal.NewFromInt(25)) {
		t.Errorf("plan stakes = %s, %s, expected 25 each", plans[0].Stake, plans[1].Stake)
	}
	if !reflect.DeepEqual(plans[0].Order, []int{0, 1}) || !reflect.DeepEqual(plans[1].Order, []int{1, 0}) {
		t.Errorf("plan orders = %v, %v, expected [0 1], [1 0]", plans[0].Order, plans[1].Order)
	}
}

func TestBuildReverseSequencesCap(t *testing.T) {
	legs := legsWithOdds(100, 100, 100, 100, 100)
	_, err := BuildReverseSequences(legs, decimal.NewFromInt(100), 4)
	if !errors.Is(err, common.ErrCombinationLimit) {
		t.Errorf("5 legs over cap 4: error = %v, expected ErrCombinationLimit", err)
	}
}
