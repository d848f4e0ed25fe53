package common

import "errors"

// Settlement error taxonomy. Only ErrInvalidOdds and ErrCombinationLimit
// are user-visible validation failures; the rest are internal conditions
// the engine handles by deferring or retrying.
var (
	// ErrInvalidOdds rejects zero or malformed American odds at the math layer.
	ErrInvalidOdds = errors.New("invalid american odds")

	// ErrGameNotFinal defers settlement until every referenced game finishes.
	ErrGameNotFinal = errors.New("game not final")

	// ErrGradingIncomplete means upstream data needed to grade a leg is
	// missing; the wager stays pending and is retried on the next sweep.
	ErrGradingIncomplete = errors.New("grading incomplete")

	// ErrStatUnavailable marks a prop stat that definitively cannot be
	// produced (player did not play, period never occurred); the leg is void.
	ErrStatUnavailable = errors.New("stat unavailable")

	// ErrCombinationLimit rejects reverse bets beyond the permutation cap.
	ErrCombinationLimit = errors.New("combination limit exceeded")

	// ErrSettlementConflict means another settlement attempt won the race.
	// It is success-elsewhere, not a failure to the caller.
	ErrSettlementConflict = errors.New("settlement conflict")

	// ErrLedgerWrite wraps an aborted ledger transaction; retried with backoff.
	ErrLedgerWrite = errors.New("ledger write failed")

	// ErrLockHeld means the per-wager settlement lock is held elsewhere.
	ErrLockHeld = errors.New("lock already held")
)
