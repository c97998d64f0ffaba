package sources

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"reviewhound/internal/domain"
)

/********** alias registry (shared by the API adapters) **********/

var reviewAliases = map[string][]string{
	"external_id": {"id", "review_id", "reviewId"},
	"author":      {"author_name", "user.name", "author", "reviewer.name", "name"},
	"text":        {"text", "comment", "content", "body"},
	"rating":      {"rating", "score", "rating.value"},
	"date":        {"time", "time_created", "publishTime", "created_at"},
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// lookupAny: nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func lookupStr(m map[string]any, path string) string {
	if s, ok := lookupAny(m, path).(string); ok {
		return s
	}
	return ""
}

// firstNonEmptyAlias: first non-blank string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) *string {
	for _, p := range aliases[key] {
		if s := strings.TrimSpace(lookupStr(m, p)); s != "" {
			return &s
		}
	}
	return nil
}

// getFloatFlexible: number from several paths (float64/int/string like "4,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// getTimeFlexible accepts unix seconds or one of timeLayouts.
func getTimeFlexible(m map[string]any, paths ...string) *time.Time {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			t := time.Unix(int64(v), 0).UTC()
			return &t
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				t := time.Unix(n, 0).UTC()
				return &t
			}
			for _, layout := range timeLayouts {
				if t, err := time.Parse(layout, s); err == nil {
					t = t.UTC()
					return &t
				}
			}
		}
	}
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

/********** review mapper **********/

// mapReviews turns provider review objects into candidates. Providers that
// do not expose a review id get a stable one hashed from author, date, rating and text.
func mapReviews(in []map[string]any) []domain.RawCandidate {
	out := make([]domain.RawCandidate, 0, len(in))
	for _, r := range in {
		var c domain.RawCandidate
		c.Author = firstNonEmptyAlias(r, reviewAliases, "author")
		c.Text = firstNonEmptyAlias(r, reviewAliases, "text")
		c.Rating = getFloatFlexible(r, reviewAliases["rating"]...)
		c.Date = getTimeFlexible(r, reviewAliases["date"]...)

		if s := firstNonEmptyAlias(r, reviewAliases, "external_id"); s != nil {
			c.ExternalID = *s
		} else {
			c.ExternalID = syntheticID(c)
		}
		out = append(out, c)
	}
	return out
}

func syntheticID(c domain.RawCandidate) string {
	rating, date := "", ""
	if c.Rating != nil {
		rating = fmt.Sprintf("%.3f", *c.Rating)
	}
	if c.Date != nil {
		date = strconv.FormatInt(c.Date.Unix(), 10)
	}
	sig := strings.Join([]string{deref(c.Author), date, rating, deref(c.Text)}, "|")
	sum := sha1.Sum([]byte(sig))
	return hex.EncodeToString(sum[:])
}
