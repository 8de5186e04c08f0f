package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"watchpost/internal/api"
	"watchpost/internal/config"
	"watchpost/internal/database"
	"watchpost/internal/engine"
	"watchpost/internal/jobs"
	"watchpost/internal/logging"
	"watchpost/internal/notification"
	"watchpost/internal/probe"
	"watchpost/internal/store"
	"watchpost/internal/uptime"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.Logging)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuration validation failed")
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get database connection")
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(cfg.Database); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	st := store.New(db)
	dispatcher := notification.NewDispatcher(st, log.With().Str("component", "notify").Logger())

	var guard *probe.URLGuard
	if !cfg.Probes.AllowPrivateIPs {
		guard = probe.NewURLGuard(false)
	}

	var renderer probe.Renderer
	if cfg.Probes.RenderEnabled {
		renderer = probe.NewChromeRenderer()
	}
	validator := probe.NewContentValidator(renderer, cfg.Probes.RenderTimeout)

	eng := engine.New(
		st,
		[]probe.Prober{
			probe.NewHTTPProber(cfg.Probes.HTTPTimeout, validator, guard),
			probe.NewPingProber(cfg.Probes.HTTPTimeout),
		},
		probe.NewCertProber(cfg.Probes.TLSTimeout),
		probe.NewWhoisProber(cfg.Probes.WhoisTimeout),
		dispatcher,
		probe.NewConnectivity(cfg.Probes.ConnectivityURL, cfg.Probes.ConnectivityTimeout),
		log.With().Str("component", "engine").Logger(),
		engine.Config{
			SettleDelay:   cfg.Sweeps.SettleDelay,
			RenotifyAfter: cfg.Sweeps.RenotifyAfter,
			FastPoll:      cfg.Sweeps.FastPoll,
			BatchSize:     cfg.Sweeps.BatchSize,
		},
	)
	defer eng.Close()

	scheduler := jobs.NewScheduler(eng, st, cfg.Sweeps, log.With().Str("component", "jobs").Logger())
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer scheduler.Stop()

	router := api.NewRouter(cfg, st, uptime.NewCalculator(db), log.With().Str("component", "api").Logger())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
