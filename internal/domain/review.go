package domain

import "time"

// Source tags a review platform. External ids are unique only within one source.
type Source string

const (
	SourceTrustpilot Source = "trustpilot"
	SourceBBB        Source = "bbb"
	SourceYelp       Source = "yelp"
	SourceGoogle     Source = "google"
)

func (s Source) String() string { return string(s) }

// ParseSource returns the known source matching s.
func ParseSource(s string) (Source, bool) {
	switch Source(s) {
	case SourceTrustpilot, SourceBBB, SourceYelp, SourceGoogle:
		return Source(s), true
	}
	return "", false
}

type Label string

const (
	LabelPositive Label = "positive"
	LabelNeutral  Label = "neutral"
	LabelNegative Label = "negative"
)

// ParseLabel returns the sentiment label matching s.
func ParseLabel(s string) (Label, bool) {
	switch Label(s) {
	case LabelPositive, LabelNeutral, LabelNegative:
		return Label(s), true
	}
	return "", false
}

// RawCandidate is what a source adapter yields before dedup and scoring.
type RawCandidate struct {
	ExternalID string
	Author     *string
	Rating     *float64
	Text       *string
	Date       *time.Time
}

type Review struct {
	ID             int64
	BusinessID     int64
	Source         Source
	ExternalID     string
	Author         *string
	Rating         *float64
	Text           *string
	ReviewDate     *time.Time
	IngestedAt     time.Time
	SentimentScore float64
	SentimentLabel Label
}

// ReviewQuery filters a business's reviews. Results are newest-ingested first.
type ReviewQuery struct {
	BusinessID int64
	Source     *Source
	Label      *Label
	Limit      int
}

// Unfiltered reports whether the query only bounds by business and limit.
func (q ReviewQuery) Unfiltered() bool { return q.Source == nil && q.Label == nil }

type ReviewStats struct {
	Total       int            `json:"total"`
	AvgRating   float64        `json:"avg_rating"`
	Positive    int            `json:"positive"`
	Negative    int            `json:"negative"`
	Neutral     int            `json:"neutral"`
	PositivePct float64        `json:"positive_pct"`
	NegativePct float64        `json:"negative_pct"`
	NeutralPct  float64        `json:"neutral_pct"`
	BySource    map[string]int `json:"by_source"`
}
