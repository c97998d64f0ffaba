package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"reviewhound/internal/domain"
)

const (
	DefaultGooglePlacesBaseURL = "https://maps.googleapis.com/maps/api"
	DefaultYelpFusionBaseURL   = "https://api.yelp.com/v3"
)

// GooglePlaces reads the reviews embedded in a Place Details response.
type GooglePlaces struct {
	client *Client
	base   string
}

func NewGooglePlaces(c *Client, base string) *GooglePlaces {
	if base == "" {
		base = DefaultGooglePlacesBaseURL
	}
	return &GooglePlaces{client: c, base: strings.TrimRight(base, "/")}
}

type placeDetails struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		Reviews []map[string]any `json:"reviews"`
	} `json:"result"`
}

func (g *GooglePlaces) Fetch(ctx context.Context, t domain.Target) ([]domain.RawCandidate, error) {
	if t.APIKey == "" {
		return nil, fmt.Errorf("google places: api key is required")
	}
	q := url.Values{}
	q.Set("place_id", t.Locator)
	q.Set("fields", "reviews")
	q.Set("key", t.APIKey)

	var out placeDetails
	if err := g.client.GetJSON(ctx, "google_places", g.base+"/place/details/json?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	switch out.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	default:
		return nil, fmt.Errorf("google places: status %s: %s", out.Status, out.ErrorMessage)
	}
	return mapReviews(out.Result.Reviews), nil
}

// YelpFusion reads a business's reviews from the Fusion API.
type YelpFusion struct {
	client *Client
	base   string
}

func NewYelpFusion(c *Client, base string) *YelpFusion {
	if base == "" {
		base = DefaultYelpFusionBaseURL
	}
	return &YelpFusion{client: c, base: strings.TrimRight(base, "/")}
}

func (y *YelpFusion) Fetch(ctx context.Context, t domain.Target) ([]domain.RawCandidate, error) {
	if t.APIKey == "" {
		return nil, fmt.Errorf("yelp fusion: api key is required")
	}
	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer "+t.APIKey)

	var out struct {
		Reviews []map[string]any `json:"reviews"`
	}
	u := fmt.Sprintf("%s/businesses/%s/reviews", y.base, url.PathEscape(t.Locator))
	if err := y.client.GetJSON(ctx, "yelp_fusion", u, hdr, &out); err != nil {
		return nil, err
	}
	return mapReviews(out.Reviews), nil
}
