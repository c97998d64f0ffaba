package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"reviewhound/internal/domain"
)

// pageParser extracts the reviews present on one listing page.
type pageParser func(doc *goquery.Document) []domain.RawCandidate

// pager returns the URL of the zero-based page of a listing.
type pager func(base string, page int) string

// WebAdapter walks up to maxPages listing pages of a review site. A failing
// first page fails the fetch; a failing or empty later page ends it.
type WebAdapter struct {
	client   *Client
	source   domain.Source
	maxPages int
	page     pager
	parse    pageParser
}

var htmlHeaders = http.Header{
	"Accept":          {"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
	"Accept-Language": {"en-US,en;q=0.9"},
}

func (a *WebAdapter) Fetch(ctx context.Context, t domain.Target) ([]domain.RawCandidate, error) {
	base, _, _ := strings.Cut(strings.TrimSpace(t.Locator), "?")
	if base == "" {
		return nil, fmt.Errorf("%s: empty page url", a.source)
	}

	l := log.With().Str("source", a.source.String()).Str("url", base).Logger()
	var out []domain.RawCandidate
	seen := map[string]struct{}{}
	for page := 0; page < a.maxPages; page++ {
		body, err := a.client.Get(ctx, a.source.String(), a.page(base, page), htmlHeaders)
		if err != nil {
			if page == 0 || ctx.Err() != nil {
				return nil, err
			}
			l.Debug().Err(err).Int("page", page+1).Msg("pagination stopped")
			break
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("%s: parse page: %w", a.source, err)
			}
			break
		}

		cands := a.parse(doc)
		if len(cands) == 0 {
			break
		}
		for _, c := range cands {
			if _, dup := seen[c.ExternalID]; dup {
				continue
			}
			seen[c.ExternalID] = struct{}{}
			out = append(out, c)
		}
	}
	l.Debug().Int("candidates", len(out)).Msg("pages fetched")
	return out, nil
}

// textOf returns the trimmed text of the first <p> inside sel, or of sel itself.
func textOf(sel *goquery.Selection) string {
	if p := sel.Find("p").First(); p.Length() > 0 {
		return strings.TrimSpace(p.Text())
	}
	return strings.TrimSpace(sel.Text())
}

func strPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
