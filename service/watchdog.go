package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"video-splitter/config"
	"video-splitter/constant"
	"video-splitter/repository"
)

// Watchdog fails PROCESSING jobs whose progress has not moved within the
// configured ceiling, so a dead worker cannot leave a job spinning forever.
type Watchdog struct {
	repo     repository.JobRepository
	jobs     JobService
	ceiling  time.Duration
	interval time.Duration
}

func NewWatchdog(repo repository.JobRepository, jobs JobService, cfg config.Processing) *Watchdog {
	return &Watchdog{
		repo:     repo,
		jobs:     jobs,
		ceiling:  cfg.StallCeiling,
		interval: cfg.WatchInterval,
	}
}

func (w *Watchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Watchdog) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-w.ceiling)
	stalled, err := w.repo.ListStalledProcessing(ctx, cutoff)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("watchdog sweep failed")
		return
	}

	for _, job := range stalled {
		zerolog.Ctx(ctx).Warn().
			Str("job_id", job.ID.String()).
			Dur("ceiling", w.ceiling).
			Msg("job stalled past ceiling, failing")
		if err := w.jobs.ReportFailure(ctx, job.ID, constant.FailureReasonTimeout); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("job_id", job.ID.String()).Msg("failed to time out job")
		}
	}
}
