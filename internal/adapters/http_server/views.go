package httpserver

import (
	"time"

	"reviewhound/internal/domain"
)

type businessView struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Address        *string   `json:"address,omitempty"`
	TrustpilotURL  *string   `json:"trustpilot_url,omitempty"`
	BBBURL         *string   `json:"bbb_url,omitempty"`
	YelpURL        *string   `json:"yelp_url,omitempty"`
	YelpBusinessID *string   `json:"yelp_business_id,omitempty"`
	GooglePlaceID  *string   `json:"google_place_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// businessInput is the create payload; the same field names as businessView.
type businessInput struct {
	Name           string  `json:"name"`
	Address        *string `json:"address"`
	TrustpilotURL  *string `json:"trustpilot_url"`
	BBBURL         *string `json:"bbb_url"`
	YelpURL        *string `json:"yelp_url"`
	YelpBusinessID *string `json:"yelp_business_id"`
	GooglePlaceID  *string `json:"google_place_id"`
}

func (in businessInput) toDomain() domain.Business {
	return domain.Business{
		Name: in.Name, Address: in.Address,
		TrustpilotURL: in.TrustpilotURL, BBBURL: in.BBBURL, YelpURL: in.YelpURL,
		YelpBusinessID: in.YelpBusinessID, GooglePlaceID: in.GooglePlaceID,
	}
}

func toBusinessView(b domain.Business) businessView {
	return businessView{
		ID: b.ID, Name: b.Name, Address: b.Address,
		TrustpilotURL: b.TrustpilotURL, BBBURL: b.BBBURL, YelpURL: b.YelpURL,
		YelpBusinessID: b.YelpBusinessID, GooglePlaceID: b.GooglePlaceID,
		CreatedAt: b.CreatedAt,
	}
}

type reviewView struct {
	ID             int64    `json:"id"`
	Source         string   `json:"source"`
	ExternalID     string   `json:"external_id"`
	Author         *string  `json:"author,omitempty"`
	Rating         *float64 `json:"rating,omitempty"`
	Text           *string  `json:"text,omitempty"`
	ReviewDate     *string  `json:"review_date,omitempty"`
	IngestedAt     string   `json:"ingested_at"`
	SentimentScore float64  `json:"sentiment_score"`
	SentimentLabel string   `json:"sentiment_label"`
}

func toReviewViews(rs []domain.Review) []reviewView {
	out := make([]reviewView, 0, len(rs))
	for _, r := range rs {
		v := reviewView{
			ID: r.ID, Source: r.Source.String(), ExternalID: r.ExternalID,
			Author: r.Author, Rating: r.Rating, Text: r.Text,
			IngestedAt:     r.IngestedAt.UTC().Format(time.RFC3339),
			SentimentScore: r.SentimentScore, SentimentLabel: string(r.SentimentLabel),
		}
		if r.ReviewDate != nil {
			d := r.ReviewDate.Format("2006-01-02")
			v.ReviewDate = &d
		}
		out = append(out, v)
	}
	return out
}

type runView struct {
	ID           int64      `json:"id"`
	Source       string     `json:"source"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ReviewsFound int        `json:"reviews_found"`
	Error        *string    `json:"error,omitempty"`
}

func toRunViews(rs []domain.ScrapeRun) []runView {
	out := make([]runView, 0, len(rs))
	for _, r := range rs {
		out = append(out, runView{
			ID: r.ID, Source: r.Source.String(), Status: string(r.Status),
			StartedAt: r.StartedAt, CompletedAt: r.CompletedAt,
			ReviewsFound: r.ReviewsFound, Error: r.Error,
		})
	}
	return out
}

type alertInput struct {
	Email     string   `json:"email"`
	Threshold *float64 `json:"threshold"`
	Disabled  bool     `json:"disabled"`
}

type alertView struct {
	ID         int64   `json:"id"`
	BusinessID int64   `json:"business_id"`
	Email      string  `json:"email"`
	Threshold  float64 `json:"threshold"`
	Enabled    bool    `json:"enabled"`
	Action     string  `json:"action,omitempty"`
}

func toAlertView(r domain.NotificationRule) alertView {
	return alertView{ID: r.ID, BusinessID: r.BusinessID, Email: r.Email, Threshold: r.Threshold, Enabled: r.Enabled}
}

type sweepInput struct {
	BusinessIDs []int64 `json:"business_ids"`
	NoAlerts    bool    `json:"no_alerts"`
}
