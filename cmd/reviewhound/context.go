package main

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"reviewhound/internal/app"
	"reviewhound/internal/bootstrap"
	"reviewhound/internal/domain"
	"reviewhound/internal/shared"
	mysqlrepo "reviewhound/internal/storage/mysql"
)

type manager interface {
	AddBusiness(ctx context.Context, b domain.Business) (domain.Business, error)
	ListBusinesses(ctx context.Context) ([]domain.Business, error)
	ResolveBusiness(ctx context.Context, ident string) (domain.Business, error)
	ConfigureAlert(ctx context.Context, businessID int64, email string, threshold float64, disable bool) (domain.NotificationRule, string, error)
	ListAlerts(ctx context.Context, businessID *int64) ([]domain.NotificationRule, error)
	SetSentimentPolicy(ctx context.Context, p domain.SentimentPolicy) error
	SetAPIConfig(ctx context.Context, c domain.APIConfig) error
}

type queries interface {
	ListReviews(ctx context.Context, q domain.ReviewQuery) ([]domain.Review, error)
	Stats(ctx context.Context, businessID int64) (domain.ReviewStats, error)
	ScrapeRuns(ctx context.Context, businessID int64, limit int) ([]domain.ScrapeRun, error)
}

type sweeper interface {
	RunSweep(ctx context.Context, opts app.SweepOptions) (app.Summary, error)
}

type services struct {
	manage  manager
	queries queries
	sweeper sweeper
	migrate func(ctx context.Context) error
}

// commandContext opens the backing services lazily, once per invocation.
type commandContext struct {
	cfg  shared.Config
	open func(ctx context.Context, cfg shared.Config) (*services, func(), error)

	once    sync.Once
	svc     *services
	svcErr  error
	closeFn func()
}

func newCommandContext() *commandContext {
	return &commandContext{open: openServices}
}

func (c *commandContext) setup() {
	c.cfg = shared.Load()
	bootstrap.InitLogger(c.cfg)
	// stdout carries command output
	log.Logger = log.Logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

func (c *commandContext) services(ctx context.Context) (*services, error) {
	c.once.Do(func() {
		c.svc, c.closeFn, c.svcErr = c.open(ctx, c.cfg)
	})
	return c.svc, c.svcErr
}

func (c *commandContext) close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}

func openServices(ctx context.Context, cfg shared.Config) (*services, func(), error) {
	deps, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return &services{
		manage:  deps.Manage,
		queries: deps.Queries,
		sweeper: deps.Sweeper,
		migrate: func(ctx context.Context) error { return mysqlrepo.Migrate(ctx, deps.DB) },
	}, deps.Close, nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
