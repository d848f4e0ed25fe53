package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"

	"oddsEngine/models"
	"oddsEngine/services/combo"
	"oddsEngine/services/common"
	"oddsEngine/services/grading"
	"oddsEngine/services/oddsmath"
)

// SequenceOutcome is the settled state of one derived execution path.
type SequenceOutcome struct {
	Order  []int
	Stake  decimal.Decimal
	Payout decimal.Decimal
	Status models.WagerStatus
}

// Outcome is the terminal state a settlement attempt computed for a wager.
// Nothing here has been persisted; the ledger gateway applies it atomically.
type Outcome struct {
	Status     models.WagerStatus
	Payout     decimal.Decimal
	LegResults []models.LegResult // indexed by leg position
	Sequences  []SequenceOutcome
}

// Resolve grades every leg of the wager against the supplied snapshots and
// runs the wager type's state machine. It is pure: safe to call repeatedly,
// concurrently, and before any lock is held.
//
// Every referenced game must be finished; otherwise ErrGameNotFinal comes
// back and the wager stays pending. Grading failures likewise surface as
// errors instead of silently settling a leg as lost.
func Resolve(w *models.Wager, snaps map[string]grading.Snapshot, reverseCap int) (*Outcome, error) {
	if w.Status.Terminal() {
		return nil, fmt.Errorf("%w: wager %d already %s", common.ErrSettlementConflict, w.ID, w.Status)
	}
	if len(w.Legs) == 0 {
		return nil, fmt.Errorf("%w: wager %d has no legs", common.ErrGradingIncomplete, w.ID)
	}

	results := make([]models.LegResult, len(w.Legs))
	for i, leg := range w.Legs {
		snap, ok := snaps[leg.GameID]
		if !ok {
			return nil, fmt.Errorf("%w: no result for game %s", common.ErrGradingIncomplete, leg.GameID)
		}
		r, err := grading.Grade(leg, snap)
		if err != nil {
			return nil, err
		}
		results[i] = r
	}

	switch w.Type {
	case models.WagerSingle:
		return settleSingle(w, results)
	case models.WagerParlay:
		return settleParlay(w, results)
	case models.WagerTeaser:
		return settleTeaser(w, results, snaps)
	case models.WagerRoundRobin:
		return settleRoundRobin(w, results)
	case models.WagerIfBet:
		return settleIfBet(w, results)
	case models.WagerReverse:
		return settleReverse(w, results, reverseCap)
	case models.WagerBetItAll:
		return settleBetItAll(w, results)
	default:
		return nil, fmt.Errorf("%w: unknown wager type %q", common.ErrGradingIncomplete, w.Type)
	}
}

// settleSingle maps the lone leg's result straight onto the wager: full
// payout on a win, stake back on a push or void, nothing on a loss.
func settleSingle(w *models.Wager, results []models.LegResult) (*Outcome, error) {
	out := &Outcome{LegResults: results}
	switch results[0] {
	case models.LegWon:
		p, err := oddsmath.Payout(w.Stake, w.Legs[0].AmericanOdds)
		if err != nil {
			return nil, err
		}
		out.Status = models.StatusWon
		out.Payout = p.Round(2)
	case models.LegLost:
		out.Status = models.StatusLost
		out.Payout = decimal.Zero
	default: // push or void: stake returned
		out.Status = models.StatusPush
		out.Payout = w.Stake
	}
	return out, nil
}

// parlayChain settles a set of legs as a parlay at the given stake. A lost
// leg loses the ticket. Pushed and void legs are removed from the odds
// product (reduced parlay); if every leg was removed the ticket pushes.
func parlayChain(legs []models.Leg, results []models.LegResult, stake decimal.Decimal) (models.WagerStatus, decimal.Decimal, error) {
	mult := decimal.NewFromInt(1)
	live := 0
	for i, r := range results {
		switch r {
		case models.LegLost:
			return models.StatusLost, decimal.Zero, nil
		case models.LegWon:
			m, err := oddsmath.Multiplier(legs[i].AmericanOdds)
			if err != nil {
				return models.StatusPending, decimal.Zero, err
			}
			mult = mult.Mul(m)
			live++
		case models.LegPush, models.LegVoid:
			// removed from the product
		default:
			return models.StatusPending, decimal.Zero, fmt.Errorf("%w: leg result %q", common.ErrGradingIncomplete, r)
		}
	}
	if live == 0 {
		return models.StatusPush, stake, nil
	}
	return models.StatusWon, stake.Mul(mult).Round(2), nil
}

func settleParlay(w *models.Wager, results []models.LegResult) (*Outcome, error) {
	status, payout, err := parlayChain(w.Legs, results, w.Stake)
	if err != nil {
		return nil, err
	}
	return &Outcome{Status: status, Payout: payout, LegResults: results}, nil
}

// settleTeaser applies the wager's push rule before running the parlay
// machine. Legs were pre-adjusted with the teaser points at placement, so a
// plain grade already reflects the teased line; "revert" re-grades a pushed
// leg at its original line and uses that result instead.
func settleTeaser(w *models.Wager, results []models.LegResult, snaps map[string]grading.Snapshot) (*Outcome, error) {
	effective := make([]models.LegResult, len(results))
	copy(effective, results)

	for i, r := range results {
		if r != models.LegPush {
			continue
		}
		switch w.PushRule {
		case models.TeaserPushLoses:
			return &Outcome{Status: models.StatusLost, Payout: decimal.Zero, LegResults: effective}, nil
		case models.TeaserPushReverts:
			base := w.Legs[i]
			if base.BaseLine == nil {
				return nil, fmt.Errorf("%w: teaser leg %d has no base line", common.ErrGradingIncomplete, base.ID)
			}
			base.Line = base.BaseLine
			r2, err := grading.Grade(base, snaps[base.GameID])
			if err != nil {
				return nil, err
			}
			effective[i] = r2
		default:
			// TeaserPushRemoves: leave as push, parlayChain drops it
		}
	}

	status, payout, err := parlayChain(w.Legs, effective, w.Stake)
	if err != nil {
		return nil, err
	}
	return &Outcome{Status: status, Payout: payout, LegResults: effective}, nil
}

// aggregateSequences folds per-sequence outcomes into a composite wager
// status: won if at least one sequence won, push if every sequence pushed,
// lost otherwise. Payout is the sum of sequence payouts.
func aggregateSequences(seqs []SequenceOutcome) (models.WagerStatus, decimal.Decimal) {
	payout := decimal.Zero
	won, pushed := 0, 0
	for _, s := range seqs {
		payout = payout.Add(s.Payout)
		switch s.Status {
		case models.StatusWon:
			won++
		case models.StatusPush:
			pushed++
		}
	}
	switch {
	case won > 0:
		return models.StatusWon, payout
	case pushed == len(seqs):
		return models.StatusPush, payout
	default:
		return models.StatusLost, payout
	}
}

func settleRoundRobin(w *models.Wager, results []models.LegResult) (*Outcome, error) {
	plans, err := combo.BuildRoundRobinSequences(w.Legs, w.GroupSize, w.Stake)
	if err != nil {
		return nil, err
	}

	seqs := make([]SequenceOutcome, 0, len(plans))
	for _, plan := range plans {
		subLegs := make([]models.Leg, len(plan.Order))
		subResults := make([]models.LegResult, len(plan.Order))
		for j, pos := range plan.Order {
			subLegs[j] = w.Legs[pos]
			subResults[j] = results[pos]
		}
		status, payout, err := parlayChain(subLegs, subResults, plan.Stake)
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, SequenceOutcome{Order: plan.Order, Stake: plan.Stake, Payout: payout, Status: status})
	}

	status, payout := aggregateSequences(seqs)
	return &Outcome{Status: status, Payout: payout, LegResults: results, Sequences: seqs}, nil
}

// ifChain executes legs strictly in order. Leg i runs only if the previous
// executed leg satisfied the condition (won, or won/push/void for
// if_win_or_tie); once the condition fails, the rest of the chain is void.
// Payout is the stake times the multipliers of the executed winning legs.
// A graded-void executed leg behaves like a push: stake passes unchanged.
func ifChain(legs []models.Leg, results []models.LegResult, stake decimal.Decimal, cond models.IfCondition) (models.WagerStatus, decimal.Decimal, []models.LegResult, error) {
	chain := make([]models.LegResult, len(results))
	for i := range chain {
		chain[i] = models.LegVoid
	}

	mult := decimal.NewFromInt(1)
	wonCount, lostCount, executed := 0, 0, 0
	proceed := true

	for i := range legs {
		if !proceed {
			break
		}
		r := results[i]
		chain[i] = r
		executed++

		switch r {
		case models.LegWon:
			m, err := oddsmath.Multiplier(legs[i].AmericanOdds)
			if err != nil {
				return models.StatusPending, decimal.Zero, nil, err
			}
			mult = mult.Mul(m)
			wonCount++
		case models.LegLost:
			lostCount++
			proceed = false
		case models.LegPush, models.LegVoid:
			if cond != models.IfWinOrTie {
				proceed = false
			}
		default:
			return models.StatusPending, decimal.Zero, nil, fmt.Errorf("%w: leg result %q", common.ErrGradingIncomplete, r)
		}
	}

	switch {
	case lostCount > 0:
		return models.StatusLost, decimal.Zero, chain, nil
	case wonCount == 0:
		// chain stopped (or ran out) on pushes alone
		return models.StatusPush, stake, chain, nil
	default:
		return models.StatusWon, stake.Mul(mult).Round(2), chain, nil
	}
}

func settleIfBet(w *models.Wager, results []models.LegResult) (*Outcome, error) {
	status, payout, chain, err := ifChain(w.Legs, results, w.Stake, w.Condition)
	if err != nil {
		return nil, err
	}
	return &Outcome{Status: status, Payout: payout, LegResults: chain}, nil
}

// settleReverse runs one if-bet chain per permutation of the legs, equally
// staked, and aggregates like a round robin. Leg rows keep their plain
// graded results; executed/void bookkeeping is per sequence.
func settleReverse(w *models.Wager, results []models.LegResult, legCap int) (*Outcome, error) {
	plans, err := combo.BuildReverseSequences(w.Legs, w.Stake, legCap)
	if err != nil {
		return nil, err
	}

	seqs := make([]SequenceOutcome, 0, len(plans))
	for _, plan := range plans {
		subLegs := make([]models.Leg, len(plan.Order))
		subResults := make([]models.LegResult, len(plan.Order))
		for j, pos := range plan.Order {
			subLegs[j] = w.Legs[pos]
			subResults[j] = results[pos]
		}
		status, payout, _, err := ifChain(subLegs, subResults, plan.Stake, w.Condition)
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, SequenceOutcome{Order: plan.Order, Stake: plan.Stake, Payout: payout, Status: status})
	}

	status, payout := aggregateSequences(seqs)
	return &Outcome{Status: status, Payout: payout, LegResults: results, Sequences: seqs}, nil
}

// settleBetItAll rolls each leg's full payout into the next leg's stake.
// A push (or void) passes the running stake through unchanged. On the first
// loss: all-or-nothing chains lose everything; otherwise the wager stops
// and pays whatever the chain had banked through the last won leg.
func settleBetItAll(w *models.Wager, results []models.LegResult) (*Outcome, error) {
	running := w.Stake
	banked := decimal.Zero
	wonCount := 0

	for i, r := range results {
		switch r {
		case models.LegWon:
			m, err := oddsmath.Multiplier(w.Legs[i].AmericanOdds)
			if err != nil {
				return nil, err
			}
			running = running.Mul(m)
			banked = running
			wonCount++
		case models.LegPush, models.LegVoid:
			// stake passes unchanged
		case models.LegLost:
			if w.AllOrNothing {
				return &Outcome{Status: models.StatusLost, Payout: decimal.Zero, LegResults: results}, nil
			}
			return &Outcome{Status: models.StatusLost, Payout: banked.Round(2), LegResults: results}, nil
		default:
			return nil, fmt.Errorf("%w: leg result %q", common.ErrGradingIncomplete, r)
		}
	}

	if wonCount == 0 {
		return &Outcome{Status: models.StatusPush, Payout: w.Stake, LegResults: results}, nil
	}
	return &Outcome{Status: models.StatusWon, Payout: running.Round(2), LegResults: results}, nil
}
