package sources

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"reviewhound/internal/domain"
)

var trustpilotDate = regexp.MustCompile(`(\w+ \d{1,2}, \d{4})`)

func NewTrustpilot(c *Client, maxPages int) *WebAdapter {
	return &WebAdapter{
		client:   c,
		source:   domain.SourceTrustpilot,
		maxPages: maxPages,
		page: func(base string, page int) string {
			if page == 0 {
				return base
			}
			return fmt.Sprintf("%s?page=%d", base, page+1)
		},
		parse: parseTrustpilot,
	}
}

func parseTrustpilot(doc *goquery.Document) []domain.RawCandidate {
	var out []domain.RawCandidate
	doc.Find("article[data-review-id]").Each(func(_ int, s *goquery.Selection) {
		id := strings.TrimSpace(s.AttrOr("data-review-id", ""))
		if id == "" {
			return
		}
		c := domain.RawCandidate{ExternalID: id}
		c.Author = strPtr(s.Find("aside a span").First().Text())

		if v, ok := s.Find("[data-service-review-rating]").First().Attr("data-service-review-rating"); ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				c.Rating = &f
			}
		}
		if t := s.Find("[data-service-review-text-typography]").First(); t.Length() > 0 {
			c.Text = strPtr(textOf(t))
		}
		if d := s.Find("[data-service-review-date-of-experience-typography]").First(); d.Length() > 0 {
			if m := trustpilotDate.FindString(textOf(d)); m != "" {
				if t, err := time.Parse("January 2, 2006", m); err == nil {
					c.Date = &t
				}
			}
		}
		out = append(out, c)
	})
	return out
}
