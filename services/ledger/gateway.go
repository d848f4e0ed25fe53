// Package ledger is the transactional gateway over the wager and account
// tables. The settlement engine depends on its interface, not this type, so
// tests can substitute an in-memory fake.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"oddsEngine/models"
	"oddsEngine/services/common"
	"oddsEngine/services/settlement"
)

type Gateway struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(db *gorm.DB, log *zap.Logger) *Gateway {
	return &Gateway{db: db, log: log}
}

// WagerByID loads one wager with its legs in placement order.
func (g *Gateway) WagerByID(ctx context.Context, id uint) (*models.Wager, error) {
	var w models.Wager
	err := g.db.WithContext(ctx).
		Preload("Legs", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&w, id).Error
	if err != nil {
		return nil, fmt.Errorf("load wager %d: %w", id, err)
	}
	return &w, nil
}

// PendingWagersForGame returns pending wagers with at least one leg on the
// given game.
func (g *Gateway) PendingWagersForGame(ctx context.Context, gameID string) ([]models.Wager, error) {
	var ids []uint
	err := g.db.WithContext(ctx).Model(&models.Leg{}).
		Distinct("wager_id").
		Where("game_id = ?", gameID).
		Pluck("wager_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("legs for game %s: %w", gameID, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var wagers []models.Wager
	err = g.db.WithContext(ctx).
		Preload("Legs", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id IN ? AND status = ?", ids, models.StatusPending).
		Find(&wagers).Error
	if err != nil {
		return nil, fmt.Errorf("pending wagers for game %s: %w", gameID, err)
	}
	return wagers, nil
}

// PendingWagersForFinishedGames returns pending wagers whose referenced
// games have all finished. Partial finishes stay out of the batch; the
// engine would only defer them anyway.
func (g *Gateway) PendingWagersForFinishedGames(ctx context.Context) ([]models.Wager, error) {
	var wagers []models.Wager
	err := g.db.WithContext(ctx).
		Preload("Legs", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("status = ?", models.StatusPending).
		Find(&wagers).Error
	if err != nil {
		return nil, fmt.Errorf("pending wagers: %w", err)
	}
	if len(wagers) == 0 {
		return nil, nil
	}

	gameIDs := make(map[string]struct{})
	for _, w := range wagers {
		for _, leg := range w.Legs {
			gameIDs[leg.GameID] = struct{}{}
		}
	}
	all := make([]string, 0, len(gameIDs))
	for id := range gameIDs {
		all = append(all, id)
	}

	var finished []string
	err = g.db.WithContext(ctx).Model(&models.Game{}).
		Where("game_id IN ? AND status = ?", all, models.GameFinished).
		Pluck("game_id", &finished).Error
	if err != nil {
		return nil, fmt.Errorf("finished games: %w", err)
	}
	finishedSet := make(map[string]struct{}, len(finished))
	for _, id := range finished {
		finishedSet[id] = struct{}{}
	}

	ready := wagers[:0]
	for _, w := range wagers {
		ok := len(w.Legs) > 0
		for _, leg := range w.Legs {
			if _, f := finishedSet[leg.GameID]; !f {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, w)
		}
	}
	return ready, nil
}

// TryTransitionWager applies a settlement outcome in one transaction:
//
//	UPDATE wagers SET status=?, payout=?, settled_at=? WHERE id=? AND status='pending'
//
// plus leg results, derived sequences and the owner's balance/risk move.
// RowsAffected 0 on the conditional update means another attempt settled
// the wager first; that surfaces as ErrSettlementConflict and nothing is
// committed. The net balance delta is payout minus stake (win nets the
// profit, loss nets -stake, push nets zero) and risk drops by the stake.
func (g *Gateway) TryTransitionWager(ctx context.Context, w *models.Wager, out *settlement.Outcome) error {
	now := time.Now()

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Wager{}).
			Where("id = ? AND status = ?", w.ID, models.StatusPending).
			Updates(map[string]interface{}{
				"status":     out.Status,
				"payout":     out.Payout,
				"settled_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return common.ErrSettlementConflict
		}

		for i, leg := range w.Legs {
			// result is written exactly once; a terminal result never regresses
			lr := tx.Model(&models.Leg{}).
				Where("id = ? AND result = ?", leg.ID, models.LegPending).
				Update("result", out.LegResults[i])
			if lr.Error != nil {
				return lr.Error
			}
		}

		for _, seq := range out.Sequences {
			row := models.Sequence{
				WagerID:  w.ID,
				LegOrder: joinOrder(seq.Order),
				Stake:    seq.Stake,
				Payout:   seq.Payout,
				Status:   seq.Status,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		delta := out.Payout.Sub(w.Stake)
		ar := tx.Model(&models.Account{}).
			Where("id = ?", w.OwnerID).
			Updates(map[string]interface{}{
				"balance": gorm.Expr("balance + ?", delta),
				"risk":    gorm.Expr("risk - ?", w.Stake),
			})
		if ar.Error != nil {
			return ar.Error
		}

		return nil
	})

	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrSettlementConflict) {
		return err
	}
	return fmt.Errorf("%w: wager %d: %v", common.ErrLedgerWrite, w.ID, err)
}

func joinOrder(order []int) string {
	parts := make([]string, len(order))
	for i, p := range order {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}
