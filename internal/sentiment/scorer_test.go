package sentiment_test

import (
	"math"
	"testing"

	"reviewhound/internal/domain"
	"reviewhound/internal/sentiment"
)

type fixedModel float64

func (f fixedModel) Polarity(string) float64 { return float64(f) }

func pfloat(f float64) *float64 { return &f }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestScore_EmptyTextNoRating(t *testing.T) {
	s := sentiment.NewScorer(fixedModel(0.9)) // model must not be consulted
	for _, text := range []string{"", "   ", "\n\t"} {
		score, label := s.Score(text, nil, sentiment.DefaultPolicy())
		if score != 0 || label != domain.LabelNeutral {
			t.Fatalf("text %q: got %v %s, want 0 neutral", text, score, label)
		}
	}
}

func TestScore_WeightedExample(t *testing.T) {
	s := sentiment.NewScorer(fixedModel(0.6))
	p := domain.SentimentPolicy{RatingWeight: 0.6, TextWeight: 0.4, Threshold: 0.1}

	score, label := s.Score("great place", pfloat(5), p)
	if !approx(score, 0.84) {
		t.Fatalf("score = %v, want 0.84", score)
	}
	if label != domain.LabelPositive {
		t.Fatalf("label = %s, want positive", label)
	}
}

func TestScore_DefaultPolicyIgnoresRating(t *testing.T) {
	s := sentiment.NewScorer(fixedModel(0.05))

	score, label := s.Score("meh", pfloat(1), sentiment.DefaultPolicy())
	if !approx(score, 0.05) || label != domain.LabelNeutral {
		t.Fatalf("got %v %s, want text-only 0.05 neutral", score, label)
	}
}

func TestScore_RatingAbsentUsesTextOnly(t *testing.T) {
	s := sentiment.NewScorer(fixedModel(-0.4))
	p := domain.SentimentPolicy{RatingWeight: 0.9, TextWeight: 0.1, Threshold: 0.1}

	score, label := s.Score("bad", nil, p)
	if !approx(score, -0.4) || label != domain.LabelNegative {
		t.Fatalf("got %v %s, want -0.4 negative", score, label)
	}
}

func TestScore_AlwaysBounded(t *testing.T) {
	policies := []domain.SentimentPolicy{
		sentiment.DefaultPolicy(),
		{RatingWeight: 0.6, TextWeight: 0.4, Threshold: 0.1},
		{RatingWeight: 2, TextWeight: 2, Threshold: 0.3},
		{RatingWeight: -1, TextWeight: 3, Threshold: 0},
	}
	polarities := []float64{-5, -1, -0.3, 0, 0.2, 1, 7, math.NaN()}
	ratings := []*float64{nil, pfloat(0), pfloat(1), pfloat(2.5), pfloat(3), pfloat(5), pfloat(11), pfloat(math.NaN())}

	for _, p := range policies {
		for _, pol := range polarities {
			s := sentiment.NewScorer(fixedModel(pol))
			for _, r := range ratings {
				score, label := s.Score("some text", r, p)
				if score < -1 || score > 1 || math.IsNaN(score) {
					t.Fatalf("score %v out of bounds (policy %+v, polarity %v)", score, p, pol)
				}
				if want := sentiment.Classify(score, p.Threshold); label != want {
					t.Fatalf("label %s, want %s for score %v", label, want, score)
				}
			}
		}
	}
}

func TestClassify_Boundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  domain.Label
	}{
		{0.1, domain.LabelNeutral},
		{-0.1, domain.LabelNeutral},
		{0.1000001, domain.LabelPositive},
		{-0.1000001, domain.LabelNegative},
		{0, domain.LabelNeutral},
	}
	for _, c := range cases {
		if got := sentiment.Classify(c.score, 0.1); got != c.want {
			t.Errorf("Classify(%v) = %s, want %s", c.score, got, c.want)
		}
	}
}

func TestRatingComponent(t *testing.T) {
	cases := map[float64]float64{1: -1, 2: -0.5, 3: 0, 4: 0.5, 5: 1, 0: -1, 9: 1}
	for in, want := range cases {
		if got := sentiment.RatingComponent(in); !approx(got, want) {
			t.Errorf("RatingComponent(%v) = %v, want %v", in, got, want)
		}
	}
}
