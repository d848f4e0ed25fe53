// Package grading evaluates a single wager leg against a final game result.
// Grading is a pure function of (leg, snapshot): it never reads or writes
// wager-level state and is safe to call any number of times with the same
// inputs.
package grading

import (
	"fmt"

	"oddsEngine/models"
	"oddsEngine/services/common"
)

// StatKey identifies one prop stat inside a snapshot.
type StatKey struct {
	PlayerID string
	StatType string
	PeriodID string
}

// StatValue is a stat observation. Available=false records a stat that
// definitively cannot exist (DNP, period never occurred).
type StatValue struct {
	Value     float64
	Available bool
}

// Snapshot is the read-only final state of one game as the grader sees it.
type Snapshot struct {
	GameID    string
	Finished  bool
	HomeScore int
	AwayScore int
	Stats     map[StatKey]StatValue
}

// Grade returns the outcome of one leg against the game snapshot.
//
// It returns ErrGameNotFinal when the game is not finished and
// ErrGradingIncomplete for malformed legs (missing line, unknown market);
// neither is a terminal result and the caller must leave the leg pending.
func Grade(leg models.Leg, snap Snapshot) (models.LegResult, error) {
	if snap.GameID != leg.GameID {
		return models.LegPending, fmt.Errorf("%w: snapshot for game %s, leg references %s",
			common.ErrGradingIncomplete, snap.GameID, leg.GameID)
	}
	if !snap.Finished {
		return models.LegPending, fmt.Errorf("%w: game %s", common.ErrGameNotFinal, leg.GameID)
	}

	switch leg.Market {
	case models.MarketSpread:
		return gradeSpread(leg, snap)
	case models.MarketMoneyline:
		return gradeMoneyline(leg, snap)
	case models.MarketTotal:
		return gradeTotal(leg, snap)
	case models.MarketPlayerProp, models.MarketGameProp:
		return gradeProp(leg, snap)
	default:
		return models.LegPending, fmt.Errorf("%w: unknown market %q", common.ErrGradingIncomplete, leg.Market)
	}
}

// gradeSpread compares the selected side's final margin plus the leg-relative
// line: home legs use homeScore-awayScore+line, away legs the reverse.
func gradeSpread(leg models.Leg, snap Snapshot) (models.LegResult, error) {
	if leg.Line == nil {
		return models.LegPending, fmt.Errorf("%w: spread leg %d has no line", common.ErrGradingIncomplete, leg.ID)
	}

	var margin float64
	switch leg.Selection {
	case models.SideHome:
		margin = float64(snap.HomeScore-snap.AwayScore) + *leg.Line
	case models.SideAway:
		margin = float64(snap.AwayScore-snap.HomeScore) + *leg.Line
	default:
		return models.LegPending, fmt.Errorf("%w: spread leg %d selection %q", common.ErrGradingIncomplete, leg.ID, leg.Selection)
	}

	switch {
	case margin > 0:
		return models.LegWon, nil
	case margin == 0:
		return models.LegPush, nil
	default:
		return models.LegLost, nil
	}
}

// gradeMoneyline wins iff the selected side strictly outscored the opponent.
// A tie is a push.
func gradeMoneyline(leg models.Leg, snap Snapshot) (models.LegResult, error) {
	var own, opp int
	switch leg.Selection {
	case models.SideHome:
		own, opp = snap.HomeScore, snap.AwayScore
	case models.SideAway:
		own, opp = snap.AwayScore, snap.HomeScore
	default:
		return models.LegPending, fmt.Errorf("%w: moneyline leg %d selection %q", common.ErrGradingIncomplete, leg.ID, leg.Selection)
	}

	switch {
	case own > opp:
		return models.LegWon, nil
	case own == opp:
		return models.LegPush, nil
	default:
		return models.LegLost, nil
	}
}

func gradeTotal(leg models.Leg, snap Snapshot) (models.LegResult, error) {
	if leg.Line == nil {
		return models.LegPending, fmt.Errorf("%w: total leg %d has no line", common.ErrGradingIncomplete, leg.ID)
	}
	actual := float64(snap.HomeScore + snap.AwayScore)
	return gradeOverUnder(leg, actual)
}

// gradeProp grades a player or game prop with the same over/under semantics
// as a total. A stat the snapshot marks (or implies) unavailable voids the
// leg: the stake comes back, the leg is not a win or a loss.
func gradeProp(leg models.Leg, snap Snapshot) (models.LegResult, error) {
	if leg.Line == nil {
		return models.LegPending, fmt.Errorf("%w: prop leg %d has no line", common.ErrGradingIncomplete, leg.ID)
	}

	key := StatKey{PlayerID: leg.PlayerID, StatType: leg.StatType, PeriodID: leg.PeriodID}
	stat, ok := snap.Stats[key]
	if !ok || !stat.Available {
		return models.LegVoid, nil
	}

	return gradeOverUnder(leg, stat.Value)
}

func gradeOverUnder(leg models.Leg, actual float64) (models.LegResult, error) {
	if actual == *leg.Line {
		return models.LegPush, nil
	}

	over := actual > *leg.Line
	switch leg.Selection {
	case models.SideOver:
		if over {
			return models.LegWon, nil
		}
		return models.LegLost, nil
	case models.SideUnder:
		if over {
			return models.LegLost, nil
		}
		return models.LegWon, nil
	default:
		return models.LegPending, fmt.Errorf("%w: leg %d selection %q for over/under market", common.ErrGradingIncomplete, leg.ID, leg.Selection)
	}
}
