// Package sentiment turns a review's text and rating into a bounded score
// in [-1, 1] and a positive/neutral/negative label.
package sentiment

import (
	"math"
	"strings"

	"reviewhound/internal/domain"
)

// Rating domain. The midpoint maps to 0, the extremes to ±1.
const (
	MinRating = 1.0
	MaxRating = 5.0
)

// PolarityModel estimates the polarity of free text in [-1, 1].
type PolarityModel interface {
	Polarity(text string) float64
}

// DefaultPolicy is used when no policy is stored: text only, threshold 0.1.
func DefaultPolicy() domain.SentimentPolicy {
	return domain.SentimentPolicy{RatingWeight: 0, TextWeight: 1, Threshold: 0.1}
}

type Scorer struct {
	model PolarityModel
}

// NewScorer returns a scorer backed by m, or by the built-in lexicon when m is nil.
func NewScorer(m PolarityModel) *Scorer {
	if m == nil {
		m = NewLexicon()
	}
	return &Scorer{model: m}
}

// Score combines text polarity with the rating component using the policy
// weights. Without a rating the text polarity is used alone.
func (s *Scorer) Score(text string, rating *float64, p domain.SentimentPolicy) (float64, domain.Label) {
	polarity := s.textPolarity(text)

	score := polarity
	if rating != nil && !math.IsNaN(*rating) {
		score = p.RatingWeight*RatingComponent(*rating) + p.TextWeight*polarity
	}
	score = clamp(score)
	return score, Classify(score, p.Threshold)
}

func (s *Scorer) textPolarity(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	v := s.model.Polarity(text)
	if math.IsNaN(v) {
		return 0
	}
	return clamp(v)
}

// RatingComponent maps a rating linearly onto [-1, 1].
func RatingComponent(rating float64) float64 {
	r := math.Max(MinRating, math.Min(MaxRating, rating))
	mid := (MinRating + MaxRating) / 2
	return (r - mid) / (MaxRating - mid)
}

// Classify labels score against ±threshold. Scores on the boundary are neutral.
func Classify(score, threshold float64) domain.Label {
	t := math.Abs(threshold)
	switch {
	case score > t:
		return domain.LabelPositive
	case score < -t:
		return domain.LabelNegative
	default:
		return domain.LabelNeutral
	}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}
