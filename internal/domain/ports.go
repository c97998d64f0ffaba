package domain

import (
	"context"
	"time"
)

type BusinessRepository interface {
	CreateBusiness(ctx context.Context, b Business) (int64, error)
	UpdateBusiness(ctx context.Context, b Business) error
	GetBusiness(ctx context.Context, id int64) (Business, error)
	FindBusiness(ctx context.Context, nameFragment string) (Business, error)
	ListBusinesses(ctx context.Context) ([]Business, error)
}

type ReviewRepository interface {
	ReviewExists(ctx context.Context, src Source, externalID string) (bool, error)
	// InsertReview returns the new review's id, or ErrDuplicateReview when
	// (source, external_id) is already stored.
	InsertReview(ctx context.Context, r Review) (int64, error)
	ListReviews(ctx context.Context, q ReviewQuery) ([]Review, error)
}

type ScrapeRunRepository interface {
	StartScrapeRun(ctx context.Context, run ScrapeRun) (int64, error)
	// FinishScrapeRun returns ErrRunFinalized if the stored run is no longer running.
	FinishScrapeRun(ctx context.Context, run ScrapeRun) error
	ListScrapeRuns(ctx context.Context, businessID int64, limit int) ([]ScrapeRun, error)
}

type RuleRepository interface {
	ListEnabledRules(ctx context.Context, businessID int64) ([]NotificationRule, error)
	ListRules(ctx context.Context, businessID *int64) ([]NotificationRule, error)
	GetRuleByEmail(ctx context.Context, businessID int64, email string) (NotificationRule, error)
	SaveRule(ctx context.Context, r NotificationRule) (int64, error)
}

type SettingsRepository interface {
	// GetSentimentPolicy reports false when no policy row exists.
	GetSentimentPolicy(ctx context.Context) (SentimentPolicy, bool, error)
	SaveSentimentPolicy(ctx context.Context, p SentimentPolicy) error
	ListAPIConfigs(ctx context.Context) ([]APIConfig, error)
	SaveAPIConfig(ctx context.Context, c APIConfig) error
}

type Store interface {
	BusinessRepository
	ReviewRepository
	ScrapeRunRepository
	RuleRepository
	SettingsRepository
}

// SourceKind distinguishes scraped pages from provider APIs.
type SourceKind string

const (
	KindWeb SourceKind = "web"
	KindAPI SourceKind = "api"
)

// Target is one resolved source for one business: a page URL for web
// sources, a provider identifier plus key for API sources.
type Target struct {
	Source  Source
	Kind    SourceKind
	Locator string
	APIKey  string
}

type SourceAdapter interface {
	Fetch(ctx context.Context, t Target) ([]RawCandidate, error)
}

type Notification struct {
	Subject string
	Body    string
}

type Notifier interface {
	Send(ctx context.Context, to string, n Notification) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
