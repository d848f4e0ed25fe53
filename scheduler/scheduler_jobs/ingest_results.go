package scheduler_jobs

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"oddsEngine/models"
	"oddsEngine/services/eventsource"
)

// IngestResults refreshes the games table from the scoreboard feed so the
// following sweep sees newly finished games.
func IngestResults(ctx context.Context, ingestor *eventsource.Ingestor, db *gorm.DB, log *zap.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("recovered in IngestResults", zap.Any("panic", r))
			debug.PrintStack()
			err = fmt.Errorf("panic recovered in IngestResults: %v", r)
		}
	}()

	if err := ingestor.IngestFinals(ctx); err != nil {
		db.Create(&models.ErrorLog{Source: "ingest_results", Message: err.Error()})
		return err
	}
	return nil
}
