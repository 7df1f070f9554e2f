package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"dashgen-backend/config"
	"dashgen-backend/internal/service"
)

func newCron() *cron.Cron {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.DowOptional | cron.Descriptor)
	return cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
}

// addJobs registers the session sweep and the upload cleanup.
func addJobs(c *cron.Cron, cfg *config.Config, maintenance service.MaintenanceService) error {
	if _, err := c.AddFunc(cfg.Session.SweepSchedule, func() {
		maintenance.SweepSessions(context.Background())
	}); err != nil {
		log.Error().Err(err).Str("schedule", cfg.Session.SweepSchedule).Msg("Failed to add session sweep job")
		return err
	}
	log.Info().Str("schedule", cfg.Session.SweepSchedule).Msg("Scheduled session sweep job")

	if _, err := c.AddFunc(cfg.Upload.CleanupSchedule, func() {
		if _, err := maintenance.CleanupUploads(context.Background()); err != nil {
			log.Error().Err(err).Msg("Error during scheduled upload cleanup")
		}
	}); err != nil {
		log.Error().Err(err).Str("schedule", cfg.Upload.CleanupSchedule).Msg("Failed to add upload cleanup job")
		return err
	}
	log.Info().Str("schedule", cfg.Upload.CleanupSchedule).Msg("Scheduled upload cleanup job")
	return nil
}

func NewScheduler(lc fx.Lifecycle, cfg *config.Config, maintenance service.MaintenanceService) (*cron.Cron, error) {
	c := newCron()
	if err := addJobs(c, cfg, maintenance); err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msg("Starting cron scheduler")
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Stopping cron scheduler...")
			stopCtx := c.Stop()
			select {
			case <-stopCtx.Done():
				log.Info().Msg("Cron scheduler stopped gracefully.")
				return nil
			case <-ctx.Done():
				log.Error().Msg("Context cancelled while waiting for cron scheduler to stop.")
				return ctx.Err()
			}
		},
	})
	return c, nil
}
