// Package bootstrap assembles the services every binary shares from a
// loaded shared.Config.
package bootstrap

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog/log"

	"reviewhound/internal/adapters/notify"
	"reviewhound/internal/adapters/observability"
	redisad "reviewhound/internal/adapters/redis"
	"reviewhound/internal/adapters/sources"
	"reviewhound/internal/app"
	"reviewhound/internal/sentiment"
	"reviewhound/internal/shared"
	mysqlrepo "reviewhound/internal/storage/mysql"
)

type Deps struct {
	DB      *sql.DB
	Repo    *mysqlrepo.Repo
	Cache   *redisad.Cache
	Queries *app.QueryService
	Manage  *app.ManagementService
	Sweeper *app.Sweeper
}

// InitLogger installs the global logger for cfg.
func InitLogger(cfg shared.Config) {
	log.Logger = observability.NewLogger(cfg.AppEnv).Level(observability.ParseLevel(cfg.LogLevel))
}

// Open connects to MySQL and Redis and wires the application services.
// Redis being down is logged, not fatal: reads fall through to the store.
func Open(ctx context.Context, cfg shared.Config) (*Deps, error) {
	db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN)
	if err != nil {
		return nil, err
	}
	repo := mysqlrepo.New(db)

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cache.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable; serving uncached")
	}
	q := app.NewQueryService(repo, cache, cfg.CacheTTL)

	pm := observability.PipelineMetrics{}
	sw := app.NewSweeper(repo,
		app.NewIngestor(repo, sentiment.NewScorer(nil)),
		app.NewAlertEvaluator(repo, notify.New(SMTPConfig(cfg)), pm),
		sources.NewRegistry(SourcesConfig(cfg)),
		app.SweepConfig{Workers: cfg.Workers, SourceTimeout: cfg.SourceTimeout, SendAlerts: cfg.SendAlerts},
	)
	sw.Cache = q
	sw.Metrics = pm

	return &Deps{
		DB:      db,
		Repo:    repo,
		Cache:   cache,
		Queries: q,
		Manage:  app.NewManagementService(repo),
		Sweeper: sw,
	}, nil
}

func (d *Deps) Close() {
	if err := d.Cache.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close failed")
	}
	if err := d.DB.Close(); err != nil {
		log.Warn().Err(err).Msg("db close failed")
	}
}

func SMTPConfig(cfg shared.Config) notify.SMTPConfig {
	return notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}
}

func SourcesConfig(cfg shared.Config) sources.Config {
	return sources.Config{
		MaxPages:          cfg.MaxPagesPerSource,
		BBBComplaints:     cfg.BBBComplaints,
		RequestsPerSecond: cfg.RequestsPerSecond,
		UserAgent:         cfg.UserAgent,
		GooglePlacesBase:  cfg.GooglePlacesBase,
		YelpFusionBase:    cfg.YelpFusionBase,
	}
}
