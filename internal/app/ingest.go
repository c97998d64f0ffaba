package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"reviewhound/internal/domain"
	"reviewhound/internal/sentiment"
)

// AdmitFunc is called once per newly admitted review, after it is stored and
// before the next candidate is considered.
type AdmitFunc func(ctx context.Context, b domain.Business, r domain.Review) error

type IngestStore interface {
	domain.ReviewRepository
	domain.ScrapeRunRepository
	domain.SettingsRepository
}

type Ingestor struct {
	store  IngestStore
	scorer *sentiment.Scorer
	now    func() time.Time
}

func NewIngestor(st IngestStore, sc *sentiment.Scorer) *Ingestor {
	if sc == nil {
		sc = sentiment.NewScorer(nil)
	}
	return &Ingestor{store: st, scorer: sc, now: func() time.Time { return time.Now().UTC() }}
}

// Ingest runs one business×source attempt: it records a running ScrapeRun,
// fetches candidates through the adapter and admits the ones not yet stored.
// The returned run is always finalized unless the run itself could not be created.
func (s *Ingestor) Ingest(ctx context.Context, b domain.Business, t domain.Target, a domain.SourceAdapter, onAdmit AdmitFunc) (domain.ScrapeRun, int, error) {
	run, err := s.start(ctx, b.ID, t.Source)
	if err != nil {
		return run, 0, err
	}

	cands, err := a.Fetch(ctx, t)
	if err != nil {
		return s.fail(ctx, run, 0, &domain.FetchError{Source: t.Source, Err: err})
	}
	return s.admit(ctx, run, b, cands, onAdmit)
}

// Admit stores an already-fetched candidate set under its own ScrapeRun.
func (s *Ingestor) Admit(ctx context.Context, b domain.Business, src domain.Source, cands []domain.RawCandidate, onAdmit AdmitFunc) (domain.ScrapeRun, int, error) {
	run, err := s.start(ctx, b.ID, src)
	if err != nil {
		return run, 0, err
	}
	return s.admit(ctx, run, b, cands, onAdmit)
}

func (s *Ingestor) start(ctx context.Context, businessID int64, src domain.Source) (domain.ScrapeRun, error) {
	run := domain.NewScrapeRun(businessID, src, s.now())
	id, err := s.store.StartScrapeRun(ctx, run)
	if err != nil {
		return run, s.storeErr(ctx, "start scrape run", err)
	}
	run.ID = id
	return run, nil
}

func (s *Ingestor) admit(ctx context.Context, run domain.ScrapeRun, b domain.Business, cands []domain.RawCandidate, onAdmit AdmitFunc) (domain.ScrapeRun, int, error) {
	l := log.With().Int64("business_id", b.ID).Str("source", run.Source.String()).Int64("run_id", run.ID).Logger()

	policy, err := s.policy(ctx)
	if err != nil {
		return s.fail(ctx, run, 0, err)
	}

	added := 0
	for _, c := range cands {
		extID := strings.TrimSpace(c.ExternalID)
		if extID == "" {
			l.Warn().Msg("candidate without external id dropped")
			continue
		}

		exists, err := s.store.ReviewExists(ctx, run.Source, extID)
		if err != nil {
			return s.fail(ctx, run, added, s.storeErr(ctx, "review exists", err))
		}
		if exists {
			continue
		}

		rv := s.build(b.ID, run.Source, extID, c, policy)
		id, err := s.store.InsertReview(ctx, rv)
		if errors.Is(err, domain.ErrDuplicateReview) {
			// another sweep admitted it between our check and insert
			continue
		}
		if err != nil {
			return s.fail(ctx, run, added, s.storeErr(ctx, "insert review", err))
		}
		rv.ID = id
		added++

		if onAdmit != nil {
			if err := onAdmit(ctx, b, rv); err != nil {
				return s.fail(ctx, run, added, err)
			}
		}
	}

	done := run
	if err := done.Succeed(added, s.now()); err != nil {
		return run, added, err
	}
	if err := s.store.FinishScrapeRun(context.WithoutCancel(ctx), done); err != nil {
		// run is still running here; one more attempt records it as failed
		return s.fail(ctx, run, added, &domain.PersistenceError{Op: "finish scrape run", Err: err})
	}
	l.Info().Int("new_reviews", added).Int("candidates", len(cands)).Msg("ingest ok")
	return done, added, nil
}

func (s *Ingestor) build(businessID int64, src domain.Source, extID string, c domain.RawCandidate, p domain.SentimentPolicy) domain.Review {
	text := ""
	if c.Text != nil {
		text = *c.Text
	}
	score, label := s.scorer.Score(text, c.Rating, p)
	return domain.Review{
		BusinessID:     businessID,
		Source:         src,
		ExternalID:     extID,
		Author:         c.Author,
		Rating:         c.Rating,
		Text:           c.Text,
		ReviewDate:     c.Date,
		IngestedAt:     s.now(),
		SentimentScore: score,
		SentimentLabel: label,
	}
}

func (s *Ingestor) policy(ctx context.Context) (domain.SentimentPolicy, error) {
	p, ok, err := s.store.GetSentimentPolicy(ctx)
	if err != nil {
		return domain.SentimentPolicy{}, s.storeErr(ctx, "get sentiment policy", err)
	}
	if !ok {
		return sentiment.DefaultPolicy(), nil
	}
	return p, nil
}

// fail finalizes run as failed on a context detached from the unit's
// deadline, so a timed-out unit still leaves its outcome behind.
func (s *Ingestor) fail(ctx context.Context, run domain.ScrapeRun, added int, cause error) (domain.ScrapeRun, int, error) {
	run.ReviewsFound = added
	if err := run.Fail(cause, s.now()); err != nil {
		return run, added, errors.Join(cause, err)
	}
	if err := s.store.FinishScrapeRun(context.WithoutCancel(ctx), run); err != nil {
		log.Error().Err(err).Int64("run_id", run.ID).Msg("could not record failed scrape run")
		return run, added, errors.Join(cause, &domain.PersistenceError{Op: "finish scrape run", Err: err})
	}
	log.Warn().Err(cause).
		Int64("business_id", run.BusinessID).
		Str("source", run.Source.String()).
		Int64("run_id", run.ID).
		Msg("ingest failed")
	return run, added, cause
}

// storeErr classifies a store failure. When the unit's own context has
// expired the failure belongs to this unit alone, not to the store.
func (s *Ingestor) storeErr(ctx context.Context, op string, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return fmt.Errorf("%s: %w", op, cerr)
	}
	return &domain.PersistenceError{Op: op, Err: err}
}
