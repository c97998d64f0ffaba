package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"reviewhound/internal/domain"
)

// SweepConfig is passed explicitly rather than read from process state.
type SweepConfig struct {
	Workers       int
	SourceTimeout time.Duration
	SendAlerts    bool
}

type SweepOptions struct {
	// BusinessIDs restricts the sweep; empty means every business.
	BusinessIDs   []int64
	DisableAlerts bool
}

type SourceFailure struct {
	BusinessID int64         `json:"business_id"`
	Business   string        `json:"business"`
	Source     domain.Source `json:"source"`
	RunID      int64         `json:"run_id,omitempty"`
	Error      string        `json:"error"`
}

func (f SourceFailure) Name() string { return fmt.Sprintf("%s/%s", f.Business, f.Source) }

type Summary struct {
	SweepID             string          `json:"sweep_id"`
	StartedAt           time.Time       `json:"started_at"`
	FinishedAt          time.Time       `json:"finished_at"`
	Businesses          int             `json:"businesses"`
	Units               int             `json:"units"`
	NewReviews          int             `json:"new_reviews"`
	Failed              []SourceFailure `json:"failed_sources,omitempty"`
	Skipped             []SourceFailure `json:"skipped_sources,omitempty"`
	NotificationsSent   int             `json:"notifications_sent"`
	NotificationsFailed int             `json:"notifications_failed"`
}

// FailedSources names each failed unit as "business/source".
func (s Summary) FailedSources() []string {
	out := make([]string, 0, len(s.Failed))
	for _, f := range s.Failed {
		out = append(out, f.Name())
	}
	return out
}

// AdapterSet resolves the adapter able to fetch a target.
type AdapterSet interface {
	Adapter(t domain.Target) (domain.SourceAdapter, bool)
}

// Invalidator drops cached read models for a business.
type Invalidator interface {
	InvalidateBusiness(ctx context.Context, businessID int64) error
}

type SweepStore interface {
	ListBusinesses(ctx context.Context) ([]domain.Business, error)
	GetBusiness(ctx context.Context, id int64) (domain.Business, error)
	ListAPIConfigs(ctx context.Context) ([]domain.APIConfig, error)
}

type Sweeper struct {
	store    SweepStore
	ingestor *Ingestor
	alerts   *AlertEvaluator
	adapters AdapterSet
	cfg      SweepConfig

	// Optional collaborators.
	Cache   Invalidator
	Metrics Metrics
}

func NewSweeper(st SweepStore, ing *Ingestor, ae *AlertEvaluator, as AdapterSet, cfg SweepConfig) *Sweeper {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Sweeper{store: st, ingestor: ing, alerts: ae, adapters: as, cfg: cfg, Metrics: NopMetrics{}}
}

type unit struct {
	business domain.Business
	target   domain.Target
	adapter  domain.SourceAdapter
}

type unitResult struct {
	unit
	run      domain.ScrapeRun
	added    int
	dispatch Dispatch
	err      error
}

// RunSweep ingests every configured source of every business. Units run in
// parallel; an adapter failure only fails its own unit, while a persistence
// failure stops new units from starting and is returned. Units already
// running when that happens are left to finish.
func (s *Sweeper) RunSweep(ctx context.Context, opts SweepOptions) (Summary, error) {
	sum := Summary{SweepID: uuid.NewString(), StartedAt: time.Now().UTC()}
	l := log.With().Str("sweep_id", sum.SweepID).Logger()
	l.Info().Int("workers", s.cfg.Workers).Msg("sweep starting")

	businesses, err := s.businesses(ctx, opts.BusinessIDs)
	if err != nil {
		return s.finish(sum, l), err
	}
	cfgs, err := s.store.ListAPIConfigs(ctx)
	if err != nil {
		return s.finish(sum, l), &domain.PersistenceError{Op: "list api configs", Err: err}
	}
	keys := EnabledAPIKeys(cfgs)

	var units []unit
	for _, b := range businesses {
		targets, cfgErrs := SelectSources(b, keys)
		for _, ce := range cfgErrs {
			l.Warn().Int64("business_id", b.ID).Str("source", ce.Source.String()).Msg(ce.Reason)
			sum.Skipped = append(sum.Skipped, SourceFailure{BusinessID: b.ID, Business: b.Name, Source: ce.Source, Error: ce.Error()})
		}
		if len(targets) == 0 && len(cfgErrs) == 0 {
			l.Debug().Int64("business_id", b.ID).Msg("no sources configured")
			continue
		}
		for _, t := range targets {
			a, ok := s.adapters.Adapter(t)
			if !ok {
				ce := &domain.ConfigError{Source: t.Source, Reason: fmt.Sprintf("no %s adapter", t.Kind)}
				sum.Skipped = append(sum.Skipped, SourceFailure{BusinessID: b.ID, Business: b.Name, Source: t.Source, Error: ce.Error()})
				continue
			}
			units = append(units, unit{business: b, target: t, adapter: a})
		}
	}
	sum.Businesses = len(businesses)
	sum.Units = len(units)

	sendAlerts := s.cfg.SendAlerts && !opts.DisableAlerts && s.alerts != nil

	// stop only gates new units; running ones keep the caller's context
	starting, stop := context.WithCancel(ctx)
	defer stop()

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		fatal error
	)
	sem := semaphore.NewWeighted(int64(s.cfg.Workers))

	for i, u := range units {
		// acquire before launching the goroutine; release inside it
		if starting.Err() != nil || sem.Acquire(starting, 1) != nil {
			mu.Lock()
			for _, rest := range units[i:] {
				sum.Skipped = append(sum.Skipped, SourceFailure{
					BusinessID: rest.business.ID, Business: rest.business.Name,
					Source: rest.target.Source, Error: "not started: sweep aborted",
				})
			}
			mu.Unlock()
			break
		}

		wg.Add(1)
		go func(u unit) {
			defer wg.Done()
			defer sem.Release(1)

			res := s.runUnit(ctx, u, sendAlerts, l)

			mu.Lock()
			defer mu.Unlock()
			sum.NewReviews += res.added
			sum.NotificationsSent += res.dispatch.Sent
			sum.NotificationsFailed += res.dispatch.Failed
			if res.err != nil {
				sum.Failed = append(sum.Failed, SourceFailure{
					BusinessID: u.business.ID, Business: u.business.Name,
					Source: u.target.Source, RunID: res.run.ID, Error: res.err.Error(),
				})
				if domain.IsPersistence(res.err) && fatal == nil {
					fatal = res.err
					stop()
				}
			}
		}(u)
	}
	wg.Wait()

	sum = s.finish(sum, l)
	if fatal != nil {
		l.Error().Err(fatal).Msg("sweep aborted on store failure")
		return sum, fatal
	}
	return sum, nil
}

func (s *Sweeper) runUnit(ctx context.Context, u unit, sendAlerts bool, l zerolog.Logger) unitResult {
	res := unitResult{unit: u}

	uctx := ctx
	if s.cfg.SourceTimeout > 0 {
		var cancel context.CancelFunc
		uctx, cancel = context.WithTimeout(ctx, s.cfg.SourceTimeout)
		defer cancel()
	}

	var onAdmit AdmitFunc
	if sendAlerts {
		onAdmit = func(ctx context.Context, b domain.Business, r domain.Review) error {
			d, err := s.alerts.Evaluate(ctx, r, b)
			res.dispatch.Add(d)
			return err
		}
	}

	res.run, res.added, res.err = s.ingestor.Ingest(uctx, u.business, u.target, u.adapter, onAdmit)

	src := u.target.Source.String()
	if res.run.Status != domain.RunRunning {
		s.Metrics.RunFinished(src, string(res.run.Status))
	}
	s.Metrics.ReviewsAdmitted(src, res.added)

	if res.added > 0 && s.Cache != nil {
		if err := s.Cache.InvalidateBusiness(context.WithoutCancel(ctx), u.business.ID); err != nil {
			l.Warn().Err(err).Int64("business_id", u.business.ID).Msg("cache invalidation failed")
		}
	}

	ev := l.Info()
	if res.err != nil {
		ev = l.Warn().Err(res.err)
	}
	ev.Int64("business_id", u.business.ID).
		Str("source", src).
		Str("kind", string(u.target.Kind)).
		Int("new_reviews", res.added).
		Msg("unit finished")
	return res
}

func (s *Sweeper) businesses(ctx context.Context, ids []int64) ([]domain.Business, error) {
	if len(ids) == 0 {
		bs, err := s.store.ListBusinesses(ctx)
		if err != nil {
			return nil, &domain.PersistenceError{Op: "list businesses", Err: err}
		}
		return bs, nil
	}
	out := make([]domain.Business, 0, len(ids))
	for _, id := range ids {
		b, err := s.store.GetBusiness(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("business %d: %w", id, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *Sweeper) finish(sum Summary, l zerolog.Logger) Summary {
	sum.FinishedAt = time.Now().UTC()
	s.Metrics.SweepFinished(sum.FinishedAt.Sub(sum.StartedAt), len(sum.Failed))
	l.Info().
		Int("businesses", sum.Businesses).
		Int("units", sum.Units).
		Int("new_reviews", sum.NewReviews).
		Strs("failed", sum.FailedSources()).
		Int("notifications_sent", sum.NotificationsSent).
		Int("notifications_failed", sum.NotificationsFailed).
		Msg("sweep completed")
	return sum
}
