package app_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"reviewhound/internal/app"
	"reviewhound/internal/domain"
)

// fakeCache stores JSON blobs in memory and counts lookups.
type fakeCache struct {
	m    map[string][]byte
	gets int
	hits int
}

func newFakeCache() *fakeCache { return &fakeCache{m: map[string][]byte{}} }

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.gets++
	b, ok := c.m[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.m[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.m, k)
	}
	return nil
}

func seedReviews(t *testing.T, st *memStore) domain.Business {
	t.Helper()
	b := mustBusiness(st, domain.Business{Name: "Acme"})
	ing := app.NewIngestor(st, nil)
	cands := []domain.RawCandidate{
		cand("1", 5, "excellent service"),
		cand("2", 1, "terrible and rude"),
		cand("3", 4, "ok"),
	}
	if _, _, err := ing.Admit(context.Background(), b, domain.SourceTrustpilot, cands, nil); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return b
}

func TestListReviews_CacheMissThenHit(t *testing.T) {
	st := newMemStore()
	b := seedReviews(t, st)
	fc := newFakeCache()
	svc := app.NewQueryService(st, fc, time.Minute)
	q := domain.ReviewQuery{BusinessID: b.ID, Limit: 20}

	first, err := svc.ListReviews(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if fc.hits != 0 {
		t.Fatalf("expected a miss first, hits=%d", fc.hits)
	}
	second, err := svc.ListReviews(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if fc.hits != 1 {
		t.Fatalf("expected a hit second, hits=%d", fc.hits)
	}
	if len(first) != 3 || len(second) != 3 || first[0].ID != second[0].ID {
		t.Fatalf("first=%d second=%d", len(first), len(second))
	}
	if first[0].ExternalID != "3" {
		t.Fatalf("expected newest first, got %s", first[0].ExternalID)
	}
}

func TestListReviews_FilteredQueriesBypassCache(t *testing.T) {
	st := newMemStore()
	b := seedReviews(t, st)
	fc := newFakeCache()
	svc := app.NewQueryService(st, fc, time.Minute)

	neg := domain.LabelNegative
	rs, err := svc.ListReviews(context.Background(), domain.ReviewQuery{BusinessID: b.ID, Label: &neg, Limit: 20})
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) != 1 || rs[0].ExternalID != "2" {
		t.Fatalf("negative reviews = %+v", rs)
	}
	if fc.gets != 0 || len(fc.m) != 0 {
		t.Fatalf("filtered query touched the cache")
	}

	if _, err := svc.ListReviews(context.Background(), domain.ReviewQuery{BusinessID: b.ID, Limit: 7}); err != nil {
		t.Fatal(err)
	}
	if len(fc.m) != 0 {
		t.Fatalf("uncached limit was stored")
	}
}

func TestStats_CachedAndInvalidated(t *testing.T) {
	st := newMemStore()
	b := seedReviews(t, st)
	fc := newFakeCache()
	svc := app.NewQueryService(st, fc, time.Minute)

	s1, err := svc.Stats(context.Background(), b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if s1.Total != 3 || s1.AvgRating < 3.33 || s1.AvgRating > 3.34 {
		t.Fatalf("stats = %+v", s1)
	}
	if _, err := svc.ListReviews(context.Background(), domain.ReviewQuery{BusinessID: b.ID, Limit: 50}); err != nil {
		t.Fatal(err)
	}

	ing := app.NewIngestor(st, nil)
	if _, _, err := ing.Admit(context.Background(), b, domain.SourceYelp, []domain.RawCandidate{cand("y1", 5, "great")}, nil); err != nil {
		t.Fatal(err)
	}
	stale, _ := svc.Stats(context.Background(), b.ID)
	if stale.Total != 3 {
		t.Fatalf("expected cached total 3, got %d", stale.Total)
	}

	if err := svc.InvalidateBusiness(context.Background(), b.ID); err != nil {
		t.Fatal(err)
	}
	if len(fc.m) != 0 {
		t.Fatalf("keys left after invalidation: %d", len(fc.m))
	}
	fresh, _ := svc.Stats(context.Background(), b.ID)
	if fresh.Total != 4 || fresh.BySource["yelp"] != 1 {
		t.Fatalf("fresh stats = %+v", fresh)
	}
}

func TestQueryService_NilCache(t *testing.T) {
	st := newMemStore()
	b := seedReviews(t, st)
	svc := app.NewQueryService(st, nil, 0)

	if rs, err := svc.ListReviews(context.Background(), domain.ReviewQuery{BusinessID: b.ID, Limit: 20}); err != nil || len(rs) != 3 {
		t.Fatalf("reviews=%d err=%v", len(rs), err)
	}
	if err := svc.InvalidateBusiness(context.Background(), b.ID); err != nil {
		t.Fatal(err)
	}
}

func TestCalculateStats(t *testing.T) {
	rs := []domain.Review{
		{Source: domain.SourceTrustpilot, Rating: ptr(5.0), SentimentLabel: domain.LabelPositive},
		{Source: domain.SourceTrustpilot, Rating: ptr(1.0), SentimentLabel: domain.LabelNegative},
		{Source: domain.SourceBBB, SentimentLabel: domain.LabelNeutral},
		{Source: domain.SourceGoogle, Rating: ptr(3.0), SentimentLabel: domain.LabelPositive},
	}
	st := app.CalculateStats(rs)
	if st.Total != 4 || st.Positive != 2 || st.Negative != 1 || st.Neutral != 1 {
		t.Fatalf("counts = %+v", st)
	}
	if st.AvgRating != 3 {
		t.Fatalf("avg = %v, want 3 (unrated excluded)", st.AvgRating)
	}
	if st.PositivePct != 50 || st.NegativePct != 25 {
		t.Fatalf("pct = %v/%v", st.PositivePct, st.NegativePct)
	}
	if st.BySource["trustpilot"] != 2 || st.BySource["bbb"] != 1 {
		t.Fatalf("by source = %v", st.BySource)
	}

	if empty := app.CalculateStats(nil); empty.Total != 0 || empty.AvgRating != 0 {
		t.Fatalf("empty = %+v", empty)
	}
}
