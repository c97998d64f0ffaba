package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reviewhound/internal/domain"
)

// Review listing limits whose unfiltered pages are cached.
var cachedLimits = []int{20, 50, 100, 200}

type QueryStore interface {
	GetBusiness(ctx context.Context, id int64) (domain.Business, error)
	ListReviews(ctx context.Context, q domain.ReviewQuery) ([]domain.Review, error)
	ListScrapeRuns(ctx context.Context, businessID int64, limit int) ([]domain.ScrapeRun, error)
}

type QueryService struct {
	store    QueryStore
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(st QueryStore, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{store: st, cache: c, cacheTTL: ttl}
}

func reviewsKey(businessID int64, limit int) string {
	return fmt.Sprintf("reviews:%d:%d:-ingested_at", businessID, limit)
}

func statsKey(businessID int64) string { return fmt.Sprintf("stats:%d", businessID) }

// ListReviews returns a business's reviews newest first. Only unfiltered
// pages are cached; they are evicted whenever the business gains reviews.
func (s *QueryService) ListReviews(ctx context.Context, q domain.ReviewQuery) ([]domain.Review, error) {
	cacheable := s.cache != nil && q.Unfiltered() && isCachedLimit(q.Limit)
	key := reviewsKey(q.BusinessID, q.Limit)
	if cacheable {
		var out []domain.Review
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}

	rs, err := s.store.ListReviews(ctx, q)
	if err != nil {
		return nil, err
	}

	// copy slice to avoid aliasing the repo's backing array
	out := make([]domain.Review, len(rs))
	copy(out, rs)

	if cacheable {
		// optional size guard
		if b, _ := json.Marshal(out); len(b) < 1_000_000 {
			_ = s.cache.Set(ctx, key, out, s.cacheTTL)
		}
	}
	return out, nil
}

func (s *QueryService) Stats(ctx context.Context, businessID int64) (domain.ReviewStats, error) {
	key := statsKey(businessID)
	var st domain.ReviewStats
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &st); ok {
			return st, nil
		}
	}
	rs, err := s.store.ListReviews(ctx, domain.ReviewQuery{BusinessID: businessID})
	if err != nil {
		return domain.ReviewStats{}, err
	}
	st = CalculateStats(rs)
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, st, s.cacheTTL)
	}
	return st, nil
}

func (s *QueryService) Business(ctx context.Context, id int64) (domain.Business, error) {
	return s.store.GetBusiness(ctx, id)
}

func (s *QueryService) ScrapeRuns(ctx context.Context, businessID int64, limit int) ([]domain.ScrapeRun, error) {
	return s.store.ListScrapeRuns(ctx, businessID, limit)
}

// InvalidateBusiness evicts the cached stats and review pages of a business.
func (s *QueryService) InvalidateBusiness(ctx context.Context, businessID int64) error {
	if s.cache == nil {
		return nil
	}
	keys := []string{statsKey(businessID)}
	for _, lim := range cachedLimits {
		keys = append(keys, reviewsKey(businessID, lim))
	}
	return s.cache.Del(ctx, keys...)
}

func isCachedLimit(limit int) bool {
	for _, l := range cachedLimits {
		if l == limit {
			return true
		}
	}
	return false
}

// CalculateStats summarizes reviews. The average covers rated reviews only.
func CalculateStats(rs []domain.Review) domain.ReviewStats {
	st := domain.ReviewStats{BySource: map[string]int{}}
	st.Total = len(rs)
	if st.Total == 0 {
		return st
	}

	var sum float64
	var rated int
	for _, r := range rs {
		if r.Rating != nil {
			sum += *r.Rating
			rated++
		}
		switch r.SentimentLabel {
		case domain.LabelPositive:
			st.Positive++
		case domain.LabelNegative:
			st.Negative++
		case domain.LabelNeutral:
			st.Neutral++
		}
		st.BySource[r.Source.String()]++
	}
	if rated > 0 {
		st.AvgRating = sum / float64(rated)
	}
	total := float64(st.Total)
	st.PositivePct = float64(st.Positive) / total * 100
	st.NegativePct = float64(st.Negative) / total * 100
	st.NeutralPct = float64(st.Neutral) / total * 100
	return st
}
