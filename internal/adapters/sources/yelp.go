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

var yelpStars = regexp.MustCompile(`(\d+(?:\.\d+)?) star rating`)

// NewYelpWeb scrapes Yelp business pages, which paginate by ?start=10n.
func NewYelpWeb(c *Client, maxPages int) *WebAdapter {
	return &WebAdapter{
		client:   c,
		source:   domain.SourceYelp,
		maxPages: maxPages,
		page: func(base string, page int) string {
			if page == 0 {
				return base
			}
			return fmt.Sprintf("%s?start=%d", base, page*10)
		},
		parse: parseYelp,
	}
}

func parseYelp(doc *goquery.Document) []domain.RawCandidate {
	var out []domain.RawCandidate
	doc.Find("li[data-review-id]").Each(func(_ int, s *goquery.Selection) {
		id := strings.TrimSpace(s.AttrOr("data-review-id", ""))
		if id == "" {
			return
		}
		c := domain.RawCandidate{ExternalID: id}
		c.Author = strPtr(s.Find(".user-passport-info span.fs-block").First().Text())

		s.Find("[aria-label]").EachWithBreak(func(_ int, el *goquery.Selection) bool {
			m := yelpStars.FindStringSubmatch(el.AttrOr("aria-label", ""))
			if m == nil {
				return true
			}
			if f, err := strconv.ParseFloat(m[1], 64); err == nil {
				c.Rating = &f
			}
			return false
		})

		c.Text = strPtr(s.Find("span.raw__09f24__T4Ezm").First().Text())
		if d := strings.TrimSpace(s.Find("span.css-chan6m").First().Text()); d != "" {
			if t, err := time.Parse("Jan 2, 2006", d); err == nil {
				c.Date = &t
			}
		}
		out = append(out, c)
	})
	return out
}
