package jobs

import (
	"context"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"watchpost/internal/config"
	"watchpost/internal/engine"
	"watchpost/internal/store"
)

// Scheduler drives the engine's sweep entry points on fixed cadences and
// runs the retention cleanup. The cadences are configuration; the engine
// itself stays cadence-free.
type Scheduler struct {
	cron   *cron.Cron
	engine *engine.Engine
	store  *store.Store
	cfg    config.SweepConfig
	log    zerolog.Logger
}

// NewScheduler creates a job scheduler
func NewScheduler(eng *engine.Engine, st *store.Store, cfg config.SweepConfig, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		engine: eng,
		store:  st,
		cfg:    cfg,
		log:    log,
	}
}

// Start registers the sweep jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	ctx := context.Background()

	if _, err := s.cron.AddFunc(s.cfg.MonitorCron, func() {
		s.engine.SweepDueMonitors(ctx)
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(s.cfg.SSLCron, func() {
		s.log.Info().Msg("running SSL sweep")
		s.engine.SweepSSL(ctx)
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(s.cfg.DomainCron, func() {
		s.log.Info().Msg("running domain sweep")
		s.engine.SweepDomains(ctx)
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(s.cfg.RetentionCron, func() {
		s.cleanup(ctx)
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info().
		Str("monitor_cron", s.cfg.MonitorCron).
		Str("ssl_cron", s.cfg.SSLCron).
		Str("domain_cron", s.cfg.DomainCron).
		Msg("job scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("job scheduler stopped")
}

// cleanup removes checks and closed downtimes older than the retention
// window. The window can be overridden at runtime through the settings
// store.
func (s *Scheduler) cleanup(ctx context.Context) {
	days := s.cfg.RetentionDays
	if v, err := s.store.GetSetting(ctx, "retention_days", ""); err == nil && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			days = parsed
		}
	}
	if days < 1 {
		days = 1
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	checks, err := s.store.DeleteChecksBefore(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to clean up old checks")
	}
	downtimes, err := s.store.DeleteClosedDowntimesBefore(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to clean up old downtimes")
	}

	s.log.Info().
		Int64("checks", checks).
		Int64("downtimes", downtimes).
		Int("retention_days", days).
		Msg("retention cleanup completed")
}
