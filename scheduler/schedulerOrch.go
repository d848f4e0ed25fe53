package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"oddsEngine/config"
	"oddsEngine/scheduler/scheduler_jobs"
	"oddsEngine/services/eventsource"
	"oddsEngine/services/settlement"
)

// SetupCron wires the periodic jobs: result ingestion ahead of the
// settlement sweep. The returned cron is already started.
func SetupCron(ctx context.Context, engine *settlement.Engine, ingestor *eventsource.Ingestor, db *gorm.DB, log *zap.Logger, cfg config.Config) *cron.Cron {
	cronService := cron.New(cron.WithSeconds())

	_, err := cronService.AddFunc(cfg.IngestSpec, func() {
		if err := scheduler_jobs.IngestResults(ctx, ingestor, db, log); err != nil {
			log.Error("result ingest job failed", zap.Error(err))
		}
	})
	if err != nil {
		log.Error("cron wiring failed", zap.String("spec", cfg.IngestSpec), zap.Error(err))
	}

	_, err = cronService.AddFunc(cfg.SweepSpec, func() {
		if err := scheduler_jobs.SettleSweep(ctx, engine, db, log); err != nil {
			log.Error("settlement sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		log.Error("cron wiring failed", zap.String("spec", cfg.SweepSpec), zap.Error(err))
	}

	cronService.Start()
	return cronService
}
