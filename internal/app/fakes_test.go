package app_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"reviewhound/internal/domain"
)

// ---- in-memory store ----

type memStore struct {
	mu         sync.Mutex
	nextID     int64
	businesses map[int64]domain.Business
	reviews    []domain.Review
	keys       map[string]int64
	runs       map[int64]domain.ScrapeRun
	rules      []domain.NotificationRule
	policy     *domain.SentimentPolicy
	apiCfgs    []domain.APIConfig

	insertErr   error
	insertErrOn domain.Source // when set, insertErr only applies to this source
	startErr    error
	finishFails int  // FinishScrapeRun fails this many times before succeeding
	blindExists bool // ReviewExists always reports false, forcing the insert conflict path
}

func newMemStore() *memStore {
	return &memStore{
		businesses: map[int64]domain.Business{},
		keys:       map[string]int64{},
		runs:       map[int64]domain.ScrapeRun{},
	}
}

func key(src domain.Source, ext string) string { return string(src) + "\x00" + ext }

func (m *memStore) id() int64 { m.nextID++; return m.nextID }

func (m *memStore) CreateBusiness(ctx context.Context, b domain.Business) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.id()
	m.businesses[b.ID] = b
	return b.ID, nil
}

func (m *memStore) UpdateBusiness(ctx context.Context, b domain.Business) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.businesses[b.ID]; !ok {
		return domain.ErrNotFound
	}
	m.businesses[b.ID] = b
	return nil
}

func (m *memStore) GetBusiness(ctx context.Context, id int64) (domain.Business, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.businesses[id]
	if !ok {
		return domain.Business{}, domain.ErrNotFound
	}
	return b, nil
}

func (m *memStore) FindBusiness(ctx context.Context, frag string) (domain.Business, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.businesses {
		if strings.Contains(strings.ToLower(b.Name), strings.ToLower(frag)) {
			return b, nil
		}
	}
	return domain.Business{}, domain.ErrNotFound
}

func (m *memStore) ListBusinesses(ctx context.Context) ([]domain.Business, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Business, 0, len(m.businesses))
	for _, b := range m.businesses {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ReviewExists(ctx context.Context, src domain.Source, ext string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blindExists {
		return false, nil
	}
	_, ok := m.keys[key(src, ext)]
	return ok, nil
}

func (m *memStore) InsertReview(ctx context.Context, r domain.Review) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil && (m.insertErrOn == "" || m.insertErrOn == r.Source) {
		return 0, m.insertErr
	}
	k := key(r.Source, r.ExternalID)
	if _, ok := m.keys[k]; ok {
		return 0, domain.ErrDuplicateReview
	}
	r.ID = m.id()
	m.keys[k] = r.ID
	m.reviews = append(m.reviews, r)
	return r.ID, nil
}

func (m *memStore) ListReviews(ctx context.Context, q domain.ReviewQuery) ([]domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Review
	for _, r := range m.reviews {
		if r.BusinessID != q.BusinessID {
			continue
		}
		if q.Source != nil && r.Source != *q.Source {
			continue
		}
		if q.Label != nil && r.SentimentLabel != *q.Label {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *memStore) hasReview(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.ID == id {
			return true
		}
	}
	return false
}

func (m *memStore) reviewCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reviews)
}

func (m *memStore) StartScrapeRun(ctx context.Context, run domain.ScrapeRun) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return 0, m.startErr
	}
	run.ID = m.id()
	m.runs[run.ID] = run
	return run.ID, nil
}

func (m *memStore) FinishScrapeRun(ctx context.Context, run domain.ScrapeRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finishFails > 0 {
		m.finishFails--
		return errors.New("mysql: connection reset")
	}
	cur, ok := m.runs[run.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Status != domain.RunRunning {
		return domain.ErrRunFinalized
	}
	m.runs[run.ID] = run
	return nil
}

func (m *memStore) ListScrapeRuns(ctx context.Context, businessID int64, limit int) ([]domain.ScrapeRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ScrapeRun
	for _, r := range m.runs {
		if r.BusinessID == businessID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) runFor(businessID int64, src domain.Source) (domain.ScrapeRun, bool) {
	runs, _ := m.ListScrapeRuns(context.Background(), businessID, 0)
	for _, r := range runs {
		if r.Source == src {
			return r, true
		}
	}
	return domain.ScrapeRun{}, false
}

func (m *memStore) ListEnabledRules(ctx context.Context, businessID int64) ([]domain.NotificationRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.NotificationRule
	for _, r := range m.rules {
		if r.BusinessID == businessID && r.Enabled {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) ListRules(ctx context.Context, businessID *int64) ([]domain.NotificationRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.NotificationRule
	for _, r := range m.rules {
		if businessID == nil || r.BusinessID == *businessID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) GetRuleByEmail(ctx context.Context, businessID int64, email string) (domain.NotificationRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rules {
		if r.BusinessID == businessID && r.Email == email {
			return r, nil
		}
	}
	return domain.NotificationRule{}, domain.ErrNotFound
}

func (m *memStore) SaveRule(ctx context.Context, r domain.NotificationRule) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, cur := range m.rules {
		if cur.BusinessID == r.BusinessID && cur.Email == r.Email {
			r.ID = cur.ID
			m.rules[i] = r
			return r.ID, nil
		}
	}
	r.ID = m.id()
	m.rules = append(m.rules, r)
	return r.ID, nil
}

func (m *memStore) GetSentimentPolicy(ctx context.Context) (domain.SentimentPolicy, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.policy == nil {
		return domain.SentimentPolicy{}, false, nil
	}
	return *m.policy, true, nil
}

func (m *memStore) SaveSentimentPolicy(ctx context.Context, p domain.SentimentPolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policy = &p
	return nil
}

func (m *memStore) ListAPIConfigs(ctx context.Context) ([]domain.APIConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.APIConfig(nil), m.apiCfgs...), nil
}

func (m *memStore) SaveAPIConfig(ctx context.Context, c domain.APIConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, cur := range m.apiCfgs {
		if cur.Provider == c.Provider {
			m.apiCfgs[i] = c
			return nil
		}
	}
	m.apiCfgs = append(m.apiCfgs, c)
	return nil
}

// ---- adapters ----

type staticAdapter struct {
	cands []domain.RawCandidate
	err   error
}

func (a staticAdapter) Fetch(ctx context.Context, t domain.Target) ([]domain.RawCandidate, error) {
	return a.cands, a.err
}

// blockingAdapter never returns until its context is done.
type blockingAdapter struct{}

func (blockingAdapter) Fetch(ctx context.Context, t domain.Target) ([]domain.RawCandidate, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type adapterMap map[domain.Source]domain.SourceAdapter

func (m adapterMap) Adapter(t domain.Target) (domain.SourceAdapter, bool) {
	a, ok := m[t.Source]
	return a, ok
}

// ---- notifier ----

type sent struct {
	to      string
	subject string
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []sent
	failTo map[string]bool
	before func() // runs on each Send, before recording
}

func (n *fakeNotifier) Send(ctx context.Context, to string, msg domain.Notification) error {
	if n.before != nil {
		n.before()
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failTo[to] {
		return errors.New("smtp: connection refused")
	}
	n.sent = append(n.sent, sent{to: to, subject: msg.Subject})
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// ---- helpers ----

func ptr[T any](v T) *T { return &v }

func cand(ext string, rating float64, text string) domain.RawCandidate {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return domain.RawCandidate{ExternalID: ext, Author: ptr("Ana"), Rating: ptr(rating), Text: ptr(text), Date: &d}
}

func mustBusiness(s *memStore, b domain.Business) domain.Business {
	id, _ := s.CreateBusiness(context.Background(), b)
	b.ID = id
	return b
}
