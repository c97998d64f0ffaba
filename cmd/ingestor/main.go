package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"reviewhound/internal/adapters/observability"
	"reviewhound/internal/app"
	"reviewhound/internal/bootstrap"
	"reviewhound/internal/shared"
)

func main() {
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	bootstrap.InitLogger(cfg)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("ingestor failed")
	}
}

func run(cfg shared.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Int("workers", cfg.Workers).
		Dur("interval", cfg.SweepInterval).
		Dur("source_timeout", cfg.SourceTimeout).
		Bool("alerts", cfg.SendAlerts).
		Msg("ingestor starting")

	observability.Serve(cfg.MetricsAddr, observability.InitRegistry())

	deps, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()
	log.Info().Msg("db ping ok")

	// 2) sweep now, then on every tick; a zero interval means a single sweep
	if err := sweep(ctx, deps.Sweeper); err != nil {
		if cfg.SweepInterval <= 0 {
			return err
		}
		log.Error().Err(err).Msg("sweep aborted")
	}
	if cfg.SweepInterval <= 0 {
		return nil
	}

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("ingestor stopped")
			return nil
		case <-ticker.C:
			if err := sweep(ctx, deps.Sweeper); err != nil {
				log.Error().Err(err).Msg("sweep aborted")
			}
		}
	}
}

func sweep(ctx context.Context, s *app.Sweeper) error {
	_, err := s.RunSweep(ctx, app.SweepOptions{})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
