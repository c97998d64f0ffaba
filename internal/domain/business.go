package domain

import (
	"strings"
	"time"
)

type Business struct {
	ID      int64
	Name    string
	Address *string

	// Web sources (scraped pages).
	TrustpilotURL *string
	BBBURL        *string
	YelpURL       *string

	// Provider API identifiers.
	YelpBusinessID *string
	GooglePlaceID  *string

	CreatedAt time.Time
}

// Configured reports whether p holds a usable, non-blank value.
func Configured(p *string) bool {
	return p != nil && strings.TrimSpace(*p) != ""
}

// NotificationRule alerts Email when a new review is rated at or below Threshold.
type NotificationRule struct {
	ID         int64
	BusinessID int64
	Email      string
	Threshold  float64
	Enabled    bool
}

// Matches reports whether a review with the given rating should trigger the rule.
// Reviews without a rating never match.
func (r NotificationRule) Matches(rating *float64) bool {
	return r.Enabled && rating != nil && *rating <= r.Threshold
}

// Provider names for API-backed sources.
const (
	ProviderGooglePlaces = "google_places"
	ProviderYelpFusion   = "yelp_fusion"
)

type APIConfig struct {
	Provider string
	APIKey   string
	Enabled  bool
}

// SentimentPolicy weighs the rating against text polarity. At most one is active.
type SentimentPolicy struct {
	RatingWeight float64
	TextWeight   float64
	Threshold    float64
}
