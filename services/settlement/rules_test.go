package settlement

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"oddsEngine/models"
	"oddsEngine/services/common"
	"oddsEngine/services/grading"
)

func floatPtr(f float64) *float64 { return &f }

// Shared snapshots: a moneyline home leg on "win"/"lose"/"tie" grades
// won/lost/push; a prop leg on "win" with no stat line grades void.
func testSnaps() map[string]grading.Snapshot {
	return map[string]grading.Snapshot{
		"win":  {GameID: "win", Finished: true, HomeScore: 2, AwayScore: 1},
		"lose": {GameID: "lose", Finished: true, HomeScore: 0, AwayScore: 1},
		"tie":  {GameID: "tie", Finished: true, HomeScore: 1, AwayScore: 1},
	}
}

func mlLeg(pos int, game string, odds int) models.Leg {
	return models.Leg{
		ID: uint(pos + 1), Position: pos, GameID: game,
		Market: models.MarketMoneyline, Selection: models.SideHome, AmericanOdds: odds,
	}
}

func voidLeg(pos int, odds int) models.Leg {
	return models.Leg{
		ID: uint(pos + 1), Position: pos, GameID: "win",
		Market: models.MarketPlayerProp, Selection: models.SideOver,
		Line: floatPtr(9.5), PlayerID: "ghost", StatType: "points", AmericanOdds: odds,
	}
}

func newWager(wt models.WagerType, stake int64, legs ...models.Leg) *models.Wager {
	return &models.Wager{
		ID: 1, Type: wt, Status: models.StatusPending,
		Stake: decimal.NewFromInt(stake), Legs: legs,
	}
}

func TestResolveSingle(t *testing.T) {
	tests := []struct {
		name           string
		leg            models.Leg
		expectedStatus models.WagerStatus
		expectedPayout string
	}{
		{"win pays at the leg odds", mlLeg(0, "win", 150), models.StatusWon, "25.00"},
		{"loss pays nothing", mlLeg(0, "lose", 150), models.StatusLost, "0.00"},
		{"push returns the stake", mlLeg(0, "tie", 150), models.StatusPush, "10.00"},
		{"void returns the stake", voidLeg(0, 150), models.StatusPush, "10.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Resolve(newWager(models.WagerSingle, 10, tt.leg), testSnaps(), 4)
			if err != nil {
				t.Fatalf("Resolve returned error: %v", err)
			}
			if out.Status != tt.expectedStatus {
				t.Errorf("status = %s, expected %s", out.Status, tt.expectedStatus)
			}
			if out.Payout.StringFixed(2) != tt.expectedPayout {
				t.Errorf("payout = %s, expected %s", out.Payout.StringFixed(2), tt.expectedPayout)
			}
		})
	}
}

func TestResolveParlayReducedByPush(t *testing.T) {
	// +150 win, -110 push, +120 win at $10: the pushed leg drops out of the
	// product, leaving 10 x 2.5 x 2.2 = 55.00
	w := newWager(models.WagerParlay, 10,
		mlLeg(0, "win", 150),
		mlLeg(1, "tie", -110),
		mlLeg(2, "win", 120),
	)

	out, err := Resolve(w, testSnaps(), 4)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if out.Status != models.StatusWon {
		t.Errorf("status = %s, expected won", out.Status)
	}
	if out.Payout.StringFixed(2) != "55.00" {
		t.Errorf("payout = %s, expected 55.00", out.Payout.StringFixed(2))
	}
	if out.LegResults[1] != models.LegPush {
		t.Errorf("pushed leg result = %s, expected push", out.LegResults[1])
	}
}

func TestResolveParlayEdges(t *testing.T) {
	t.Run("any lost leg loses the ticket", func(t *testing.T) {
		w := newWager(models.WagerParlay, 10, mlLeg(0, "win", 150), mlLeg(1, "lose", 120))
		out, err := Resolve(w, testSnaps(), 4)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if out.Status != models.StatusLost || !out.Payout.IsZero() {
			t.Errorf("got %s/%s, expected lost/0", out.Status, out.Payout)
		}
	})

	t.Run("every leg pushing pushes the ticket", func(t *testing.T) {
		w := newWager(models.WagerParlay, 10, mlLeg(0, "tie", 150), mlLeg(1, "tie", 120))
		out, err := Resolve(w, testSnaps(), 4)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if out.Status != models.StatusPush {
			t.Errorf("status = %s, expected push", out.Status)
		}
		if out.Payout.StringFixed(2) != "10.00" {
			t.Errorf("payout = %s, expected stake back", out.Payout.StringFixed(2))
		}
	})

	t.Run("void leg is removed like a push", func(t *testing.T) {
		w := newWager(models.WagerParlay, 10, mlLeg(0, "win", 100), voidLeg(1, 150))
		out, err := Resolve(w, testSnaps(), 4)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if out.Status != models.StatusWon || out.Payout.StringFixed(2) != "20.00" {
			t.Errorf("got %s/%s, expected won/20.00", out.Status, out.Payout.StringFixed(2))
		}
	})
}

func TestResolveTeaser(t *testing.T) {
	// home -10 (adjusted) on a game won by exactly 10: push at the adjusted
	// line; the original line was -4, a comfortable cover.
	snaps := testSnaps()
	snaps["t"] = grading.Snapshot{GameID: "t", Finished: true, HomeScore: 110, AwayScore: 100}
	pushedLeg := models.Leg{
		ID: 9, Position: 1, GameID: "t", Market: models.MarketSpread,
		Selection: models.SideHome, Line: floatPtr(-10), BaseLine: floatPtr(-4), AmericanOdds: -110,
	}

	base := func(rule models.TeaserPushRule) *models.Wager {
		w := newWager(models.WagerTeaser, 10, mlLeg(0, "win", -110), pushedLeg)
		w.PushRule = rule
		return w
	}

	t.Run("push rule removes the leg", func(t *testing.T) {
		out, err := Resolve(base(models.TeaserPushRemoves), snaps, 4)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if out.Status != models.StatusWon {
			t.Errorf("status = %s, expected won", out.Status)
		}
		// only the surviving -110 leg: 10 x 1.909090... = 19.09
		if out.Payout.StringFixed(2) != "19.09" {
			t.Errorf("payout = %s, expected 19.09", out.Payout.StringFixed(2))
		}
	})

	t.Run("lose rule drops the whole teaser", func(t *testing.T) {
		out, err := Resolve(base(models.TeaserPushLoses), snaps, 4)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if out.Status != models.StatusLost || !out.Payout.IsZero() {
			t.Errorf("got %s/%s, expected lost/0", out.Status, out.Payout)
		}
	})

	t.Run("revert rule re-grades at the base line", func(t *testing.T) {
		out, err := Resolve(base(models.TeaserPushReverts), snaps, 4)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if out.Status != models.StatusWon {
			t.Errorf("status = %s, expected won", out.Status)
		}
		if out.LegResults[1] != models.LegWon {
			t.Errorf("reverted leg = %s, expected won at base line", out.LegResults[1])
		}
		// both -110 legs in the product: 10 x 1.9090... x 1.9090... = 36.45
		if out.Payout.StringFixed(2) != "36.45" {
			t.Errorf("payout = %s, expected 36.45", out.Payout.StringFixed(2))
		}
	})
}

func TestResolveRoundRobin(t *testing.T) {
	// 3 legs by 2s at $30: win/push/push gives two reduced-parlay wins of
	// $20 and one pushed sequence returning its $10 stake.
	w := newWager(models.WagerRoundRobin, 30,
		mlLeg(0, "win", 100),
		mlLeg(1, "tie", 100),
		mlLeg(2, "tie", 100),
	)
	w.GroupSize = 2

	out, err := Resolve(w, testSnaps(), 4)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if out.Status != models.StatusWon {
		t.Errorf("status = %s, expected won (partial win)", out.Status)
	}
	if len(out.Sequences) != 3 {
		t.Fatalf("got %d sequences, expected 3", len(out.Sequences))
	}
	if out.Payout.StringFixed(2) != "50.00" {
		t.Errorf("payout = %s, expected 50.00", out.Payout.StringFixed(2))
	}

	stakeSum := decimal.Zero
	for _, seq := range out.Sequences {
		stakeSum = stakeSum.Add(seq.Stake)
	}
	if !stakeSum.Equal(w.Stake) {
		t.Errorf("sequence stakes sum to %s, expected %s", stakeSum, w.Stake)
	}
}

func TestResolveRoundRobinAllLost(t *testing.T) {
	w := newWager(models.WagerRoundRobin, 30,
		mlLeg(0, "lose", 100),
		mlLeg(1, "lose", 100),
		mlLeg(2, "win", 100),
	)
	w.GroupSize = 2

	out, err := Resolve(w, testSnaps(), 4)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	// every 2-leg sequence contains a lost leg
	if out.Status != models.StatusLost || !out.Payout.IsZero() {
		t.Errorf("got %s/%s, expected lost/0", out.Status, out.Payout)
	}
}

func TestResolveIfBet(t *testing.T) {
	t.Run("first leg loss voids the rest", func(t *testing.T) {
		w := newWager(models.WagerIfBet, 10, mlLeg(0, "lose", 100), mlLeg(1, "win", 100))
		w.Condition = models.IfWinOnly

		out, err := Resolve(w, testSnaps(), 4)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if out.Status != models.StatusLost || !out.Payout.IsZero() {
			t.Errorf("got %s/%s, expected lost/0", out.Status, out.Payout)
		}
		if out.LegResults[1] != models.LegVoid {
			t.Errorf("unexecuted leg = %s, expected void", out.LegResults[1])
		}
	})

	t.Run("win only stops on a push", func(t *testing.T) {
		w := newWager(models.WagerIfBet, 10, mlLeg(0, "tie", 100), mlLeg(1, "win", 100))
		w.Condition = models.IfWinOnly

		out, err := Resolve(w, testSnaps(), 4)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if out.Status != models.StatusPush {
			t.Errorf("status = %s, expected push", out.Status)
		}
		if out.Payout.StringFixed(2) != "10.00" {
			t.Errorf("payout = %s, expected stake back", out.Payout.StringFixed(2))
		}
		if out.LegResults[1] != models.LegVoid {
			t.Errorf("leg after the push = %s, expected void", out.LegResults[1])
		}
	})

	t.Run("win or tie continues through a push", func(t *testing.T) {
		w := newWager(models.WagerIfBet, 10, mlLeg(0, "tie", 100), mlLeg(1, "win", 100))
		w.Condition = models.IfWinOrTie

		out, err := Resolve(w, testSnaps(), 4)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if out.Status != models.StatusWon {
			t.Errorf("status = %s, expected won", out.Status)
		}
		if out.Payout.StringFixed(2) != "20.00" {
			t.Errorf("payout = %s, expected 20.00", out.Payout.StringFixed(2))
		}
	})

	t.Run("full chain win multiplies through", func(t *testing.T) {
		w := newWager(models.WagerIfBet, 10, mlLeg(0, "win", 150), mlLeg(1, "win", 100))
		w.Condition = models.IfWinOnly

		out, err := Resolve(w, testSnaps(), 4)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if out.Status != models.StatusWon || out.Payout.StringFixed(2) != "50.00" {
			t.Errorf("got %s/%s, expected won/50.00", out.Status, out.Payout.StringFixed(2))
		}
	})
}

func TestResolveReverse(t *testing.T) {
	t.Run("both orderings win", func(t *testing.T) {
		w := newWager(models.WagerReverse, 50, mlLeg(0, "win", 100), mlLeg(1, "win", 100))
		w.Condition = models.IfWinOnly

		out, err := Resolve(w, testSnaps(), 4)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if out.Status != models.StatusWon {
			t.Errorf("status = %s, expected won", out.Status)
		}
		if len(out.Sequences) != 2 {
			t.Fatalf("got %d sequences, expected 2", len(out.Sequences))
		}
		// each chain: 25 x 2 x 2 = 100
		if out.Payout.StringFixed(2) != "200.00" {
			t.Errorf("payout = %s, expected 200.00", out.Payout.StringFixed(2))
		}
	})

	t.Run("split result still pays the surviving action", func(t *testing.T) {
		w := newWager(models.WagerReverse, 50, mlLeg(0, "win", 100), mlLeg(1, "lose", 100))
		w.Condition = models.IfWinOnly

		out, err := Resolve(w, testSnaps(), 4)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		// [0,1]: win then loss -> chain lost. [1,0]: loss stops the chain -> lost.
		if out.Status != models.StatusLost || !out.Payout.IsZero() {
			t.Errorf("got %s/%s, expected lost/0", out.Status, out.Payout)
		}
	})

	t.Run("leg cap enforced", func(t *testing.T) {
		w := newWager(models.WagerReverse, 50,
			mlLeg(0, "win", 100), mlLeg(1, "win", 100), mlLeg(2, "win", 100),
			mlLeg(3, "win", 100), mlLeg(4, "win", 100))
		w.Condition = models.IfWinOnly

		_, err := Resolve(w, testSnaps(), 4)
		if !errors.Is(err, common.ErrCombinationLimit) {
			t.Errorf("error = %v, expected ErrCombinationLimit", err)
		}
	})
}

func TestResolveBetItAll(t *testing.T) {
	t.Run("all or nothing loses everything on a mid-chain loss", func(t *testing.T) {
		// $10 -> 10x2.1=$21 rides on leg 2, which loses
		w := newWager(models.WagerBetItAll, 10,
			mlLeg(0, "win", 110), mlLeg(1, "lose", 100), mlLeg(2, "win", 100))
		w.AllOrNothing = true

		out, err := Resolve(w, testSnaps(), 4)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if out.Status != models.StatusLost || !out.Payout.IsZero() {
			t.Errorf("got %s/%s, expected lost/0", out.Status, out.Payout.StringFixed(2))
		}
	})

	t.Run("without all or nothing the chain banks through the last win", func(t *testing.T) {
		w := newWager(models.WagerBetItAll, 10,
			mlLeg(0, "win", 110), mlLeg(1, "lose", 100), mlLeg(2, "win", 100))
		w.AllOrNothing = false

		out, err := Resolve(w, testSnaps(), 4)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if out.Status != models.StatusLost {
			t.Errorf("status = %s, expected lost", out.Status)
		}
		if out.Payout.StringFixed(2) != "21.00" {
			t.Errorf("payout = %s, expected 21.00 banked through leg 1", out.Payout.StringFixed(2))
		}
	})

	t.Run("full winning chain compounds", func(t *testing.T) {
		// 10 x 2.1 x 2.0 x 1.5 = 63
		w := newWager(models.WagerBetItAll, 10,
			mlLeg(0, "win", 110), mlLeg(1, "win", 100), mlLeg(2, "win", -200))
		w.AllOrNothing = true

		out, err := Resolve(w, testSnaps(), 4)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if out.Status != models.StatusWon || out.Payout.StringFixed(2) != "63.00" {
			t.Errorf("got %s/%s, expected won/63.00", out.Status, out.Payout.StringFixed(2))
		}
	})

	t.Run("push passes the running stake unchanged", func(t *testing.T) {
		w := newWager(models.WagerBetItAll, 10,
			mlLeg(0, "win", 100), mlLeg(1, "tie", 100), mlLeg(2, "win", 100))

		out, err := Resolve(w, testSnaps(), 4)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if out.Status != models.StatusWon || out.Payout.StringFixed(2) != "40.00" {
			t.Errorf("got %s/%s, expected won/40.00", out.Status, out.Payout.StringFixed(2))
		}
	})

	t.Run("all pushes push the wager", func(t *testing.T) {
		w := newWager(models.WagerBetItAll, 10, mlLeg(0, "tie", 100), mlLeg(1, "tie", 100))

		out, err := Resolve(w, testSnaps(), 4)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if out.Status != models.StatusPush || out.Payout.StringFixed(2) != "10.00" {
			t.Errorf("got %s/%s, expected push/10.00", out.Status, out.Payout.StringFixed(2))
		}
	})
}

func TestResolvePreconditions(t *testing.T) {
	t.Run("terminal wager is a conflict", func(t *testing.T) {
		w := newWager(models.WagerSingle, 10, mlLeg(0, "win", 100))
		w.Status = models.StatusWon
		_, err := Resolve(w, testSnaps(), 4)
		if !errors.Is(err, common.ErrSettlementConflict) {
			t.Errorf("error = %v, expected ErrSettlementConflict", err)
		}
	})

	t.Run("missing game result defers", func(t *testing.T) {
		w := newWager(models.WagerSingle, 10, mlLeg(0, "unknown", 100))
		_, err := Resolve(w, testSnaps(), 4)
		if !errors.Is(err, common.ErrGradingIncomplete) {
			t.Errorf("error = %v, expected ErrGradingIncomplete", err)
		}
	})

	t.Run("unfinished game defers", func(t *testing.T) {
		snaps := testSnaps()
		snaps["live"] = grading.Snapshot{GameID: "live", Finished: false}
		w := newWager(models.WagerParlay, 10, mlLeg(0, "win", 100), mlLeg(1, "live", 100))
		_, err := Resolve(w, snaps, 4)
		if !errors.Is(err, common.ErrGameNotFinal) {
			t.Errorf("error = %v, expected ErrGameNotFinal", err)
		}
	})
}
