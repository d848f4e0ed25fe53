package scheduler_jobs

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"oddsEngine/models"
	"oddsEngine/services/settlement"
)

// SettleSweep runs one pass of the settlement engine over every pending
// wager whose games have finished. Panics are recovered and logged so a bad
// wager cannot take the scheduler down.
func SettleSweep(ctx context.Context, engine *settlement.Engine, db *gorm.DB, log *zap.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("recovered in SettleSweep", zap.Any("panic", r))
			debug.PrintStack()
			err = fmt.Errorf("panic recovered in SettleSweep: %v", r)
		}
	}()

	summary, err := engine.SettleAllFinishedGames(ctx)
	if err != nil {
		db.Create(&models.ErrorLog{Source: "settle_sweep", Message: err.Error()})
		return err
	}

	log.Info("settlement sweep complete",
		zap.Int("settled", summary.Settled),
		zap.Int("won", summary.Won),
		zap.Int("lost", summary.Lost),
		zap.Int("push", summary.Push),
		zap.Int("errors", summary.Errors))

	if summary.Errors > 0 {
		db.Create(&models.ErrorLog{
			Source:  "settle_sweep",
			Message: fmt.Sprintf("%d wagers failed to settle", summary.Errors),
		})
	}
	return nil
}
