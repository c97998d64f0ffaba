package sources

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"reviewhound/internal/domain"
)

// complaintRating is assigned to every complaint; BBB complaints carry no stars.
const complaintRating = 1.0

// NewBBB scrapes customer reviews. With complaints set, filed complaints on
// the same pages are ingested too, as 1-star reviews.
func NewBBB(c *Client, maxPages int, complaints bool) *WebAdapter {
	parse := parseBBB
	if complaints {
		parse = func(doc *goquery.Document) []domain.RawCandidate {
			return append(parseBBB(doc), parseBBBComplaints(doc)...)
		}
	}
	return &WebAdapter{
		client:   c,
		source:   domain.SourceBBB,
		maxPages: maxPages,
		page: func(base string, page int) string {
			if page == 0 {
				return base
			}
			return fmt.Sprintf("%s?page=%d", base, page+1)
		},
		parse: parse,
	}
}

func parseBBB(doc *goquery.Document) []domain.RawCandidate {
	var out []domain.RawCandidate
	doc.Find("div.review-item").Each(func(_ int, s *goquery.Selection) {
		id := strings.TrimSpace(s.AttrOr("data-review-id", ""))
		if id == "" {
			return
		}
		c := domain.RawCandidate{ExternalID: id}
		c.Author = strPtr(s.Find("span.reviewer-name").First().Text())

		if v := strings.TrimSpace(s.Find("div.star-rating").First().AttrOr("data-rating", "")); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				c.Rating = &f
			}
		}
		if t := s.Find("div.review-text").First(); t.Length() > 0 {
			c.Text = strPtr(textOf(t))
		}
		// BBB prints MM/DD/YYYY
		if d := strings.TrimSpace(s.Find("span.review-date").First().Text()); d != "" {
			if t, err := time.Parse("01/02/2006", d); err == nil {
				c.Date = &t
			}
		}
		out = append(out, c)
	})
	return out
}

func parseBBBComplaints(doc *goquery.Document) []domain.RawCandidate {
	var out []domain.RawCandidate
	doc.Find("div.complaint-item").Each(func(_ int, s *goquery.Selection) {
		id := strings.TrimSpace(s.AttrOr("data-complaint-id", ""))
		if id == "" {
			return
		}
		rating := complaintRating
		// own id space so a complaint never shadows a review
		c := domain.RawCandidate{ExternalID: "complaint:" + id, Rating: &rating}
		c.Author = strPtr(s.Find("span.complaint-type").First().Text())
		if c.Author == nil {
			c.Author = strPtr("Complaint")
		}
		if t := s.Find("div.complaint-text").First(); t.Length() > 0 {
			c.Text = strPtr(textOf(t))
		}
		if d := strings.TrimSpace(s.Find("span.complaint-date").First().Text()); d != "" {
			if t, err := time.Parse("01/02/2006", d); err == nil {
				c.Date = &t
			}
		}
		out = append(out, c)
	})
	return out
}
