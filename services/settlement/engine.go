// Package settlement turns finished games into terminal wager states. The
// engine pulls pending wagers from the ledger, grades their legs against
// event results, runs the per-type state machines in rules.go and writes the
// outcome back atomically. Grading is pure and runs fully in parallel; only
// the write-back is serialized per wager.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"oddsEngine/models"
	"oddsEngine/services/common"
	"oddsEngine/services/grading"
)

// Ledger is the transactional store for wagers and account balances. The
// engine calls it; it does not implement it.
type Ledger interface {
	PendingWagersForFinishedGames(ctx context.Context) ([]models.Wager, error)
	PendingWagersForGame(ctx context.Context, gameID string) ([]models.Wager, error)
	WagerByID(ctx context.Context, id uint) (*models.Wager, error)

	// TryTransitionWager commits the outcome in a single transaction:
	// status pending -> terminal (conditional), leg results, sequences and
	// the owner's balance/risk adjustment. It returns ErrSettlementConflict
	// when the wager was no longer pending, and wraps transient failures in
	// ErrLedgerWrite.
	TryTransitionWager(ctx context.Context, w *models.Wager, out *Outcome) error
}

// ResultSource supplies final game results and stats.
type ResultSource interface {
	Snapshot(ctx context.Context, gameID string) (*grading.Snapshot, error)
}

// Locker scopes an exclusive short-lived lock to a wager id. Acquire
// returns ErrLockHeld when another settlement attempt owns the key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// Notifier is told about each successfully settled wager. Implementations
// must not block settlement on delivery failures.
type Notifier interface {
	WagerSettled(w *models.Wager, out *Outcome)
}

// Summary is the structured result of one settlement entry-point call.
type Summary struct {
	Settled int
	Won     int
	Lost    int
	Push    int
	Errors  int
}

func (s *Summary) add(other Summary) {
	s.Settled += other.Settled
	s.Won += other.Won
	s.Lost += other.Lost
	s.Push += other.Push
	s.Errors += other.Errors
}

// Options tune the engine. Zero values fall back to sane defaults.
type Options struct {
	Workers       int
	ReverseLegCap int
	LockTTL       time.Duration
	WriteRetries  int
	RetryBackoff  time.Duration
	Notifier      Notifier
}

type Engine struct {
	ledger  Ledger
	results ResultSource
	locks   Locker
	notify  Notifier
	log     *zap.Logger

	workers      int
	reverseCap   int
	lockTTL      time.Duration
	writeRetries int
	backoff      time.Duration
}

// New wires an Engine from its collaborators. All dependencies are injected;
// the engine keeps no global state.
func New(ledger Ledger, results ResultSource, locks Locker, log *zap.Logger, opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.ReverseLegCap <= 0 {
		opts.ReverseLegCap = 4
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Second
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 500 * time.Millisecond
	}
	return &Engine{
		ledger:       ledger,
		results:      results,
		locks:        locks,
		notify:       opts.Notifier,
		log:          log,
		workers:      opts.Workers,
		reverseCap:   opts.ReverseLegCap,
		lockTTL:      opts.LockTTL,
		writeRetries: opts.WriteRetries,
		backoff:      opts.RetryBackoff,
	}
}

// SettleWager attempts to settle a single wager by id.
func (e *Engine) SettleWager(ctx context.Context, id uint) (Summary, error) {
	w, err := e.ledger.WagerByID(ctx, id)
	if err != nil {
		return Summary{Errors: 1}, err
	}
	return e.settleBatch(ctx, []models.Wager{*w}), nil
}

// SettleGame settles every pending wager that references the given game.
func (e *Engine) SettleGame(ctx context.Context, gameID string) (Summary, error) {
	wagers, err := e.ledger.PendingWagersForGame(ctx, gameID)
	if err != nil {
		return Summary{Errors: 1}, err
	}
	return e.settleBatch(ctx, wagers), nil
}

// SettleAllFinishedGames is the periodic sweep: it settles every pending
// wager whose referenced games have all finished.
func (e *Engine) SettleAllFinishedGames(ctx context.Context) (Summary, error) {
	wagers, err := e.ledger.PendingWagersForFinishedGames(ctx)
	if err != nil {
		return Summary{Errors: 1}, err
	}
	return e.settleBatch(ctx, wagers), nil
}

func (e *Engine) settleBatch(ctx context.Context, wagers []models.Wager) Summary {
	var (
		mu    sync.Mutex
		total Summary
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range wagers {
		w := wagers[i]
		g.Go(func() error {
			s := e.settleOne(ctx, &w)
			mu.Lock()
			total.add(s)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return total
}

// settleOne runs the full settle path for one wager. Deferrals (game not
// final, grading incomplete, lock or transition lost) contribute nothing to
// the summary; only real failures count as errors.
func (e *Engine) settleOne(ctx context.Context, w *models.Wager) Summary {
	if w.Status.Terminal() {
		return Summary{}
	}

	snaps, err := e.snapshots(ctx, w)
	if err != nil {
		return e.classify(w, err)
	}

	out, err := Resolve(w, snaps, e.reverseCap)
	if err != nil {
		return e.classify(w, err)
	}

	unlock, err := e.locks.Acquire(ctx, fmt.Sprintf("settle:wager:%d", w.ID), e.lockTTL)
	if err != nil {
		if errors.Is(err, common.ErrLockHeld) {
			e.log.Debug("settlement lock held elsewhere", zap.Uint("wager", w.ID))
			return Summary{}
		}
		return e.classify(w, err)
	}
	defer unlock()

	if err := e.write(ctx, w, out); err != nil {
		return e.classify(w, err)
	}

	e.log.Info("wager settled",
		zap.Uint("wager", w.ID),
		zap.String("type", string(w.Type)),
		zap.String("status", string(out.Status)),
		zap.String("payout", out.Payout.StringFixed(2)))

	if e.notify != nil {
		e.notify.WagerSettled(w, out)
	}

	s := Summary{Settled: 1}
	switch out.Status {
	case models.StatusWon:
		s.Won = 1
	case models.StatusLost:
		s.Lost = 1
	case models.StatusPush:
		s.Push = 1
	}
	return s
}

func (e *Engine) snapshots(ctx context.Context, w *models.Wager) (map[string]grading.Snapshot, error) {
	snaps := make(map[string]grading.Snapshot)
	for _, leg := range w.Legs {
		if _, ok := snaps[leg.GameID]; ok {
			continue
		}
		snap, err := e.results.Snapshot(ctx, leg.GameID)
		if err != nil {
			return nil, err
		}
		if !snap.Finished {
			return nil, fmt.Errorf("%w: game %s", common.ErrGameNotFinal, leg.GameID)
		}
		snaps[leg.GameID] = *snap
	}
	return snaps, nil
}

// write commits the outcome, retrying transient ledger failures with a flat
// backoff. A conflict means another attempt already settled the wager.
func (e *Engine) write(ctx context.Context, w *models.Wager, out *Outcome) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = e.ledger.TryTransitionWager(ctx, w, out)
		if err == nil || !errors.Is(err, common.ErrLedgerWrite) || attempt >= e.writeRetries {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.backoff * time.Duration(attempt+1)):
		}
	}
}

// classify buckets a settle failure: deferrals keep the wager pending and
// are not errors; conflicts mean the work happened elsewhere.
func (e *Engine) classify(w *models.Wager, err error) Summary {
	switch {
	case errors.Is(err, common.ErrSettlementConflict):
		e.log.Debug("settlement won elsewhere", zap.Uint("wager", w.ID))
		return Summary{}
	case errors.Is(err, common.ErrGameNotFinal), errors.Is(err, common.ErrGradingIncomplete):
		e.log.Debug("settlement deferred", zap.Uint("wager", w.ID), zap.Error(err))
		return Summary{}
	default:
		e.log.Warn("settlement failed", zap.Uint("wager", w.ID), zap.Error(err))
		return Summary{Errors: 1}
	}
}
