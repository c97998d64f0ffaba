package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"reviewhound/internal/domain"
)

// Dispatch counts notification outcomes.
type Dispatch struct {
	Sent   int
	Failed int
}

func (d *Dispatch) Add(o Dispatch) {
	d.Sent += o.Sent
	d.Failed += o.Failed
}

// AlertEvaluator fires a business's enabled rules for one newly admitted
// review. It keeps no state between calls; callers invoke it once per admission.
type AlertEvaluator struct {
	rules    domain.RuleRepository
	notifier domain.Notifier
	metrics  Metrics
}

func NewAlertEvaluator(rules domain.RuleRepository, n domain.Notifier, m Metrics) *AlertEvaluator {
	if m == nil {
		m = NopMetrics{}
	}
	return &AlertEvaluator{rules: rules, notifier: n, metrics: m}
}

// Evaluate sends one notification per matching rule. Delivery failures are
// logged and counted, never returned. Only a failure to load rules is an error.
func (e *AlertEvaluator) Evaluate(ctx context.Context, r domain.Review, b domain.Business) (Dispatch, error) {
	var d Dispatch
	if r.Rating == nil {
		return d, nil
	}
	rules, err := e.rules.ListEnabledRules(ctx, b.ID)
	if err != nil {
		return d, &domain.PersistenceError{Op: "list alert rules", Err: err}
	}
	for _, rule := range rules {
		if !rule.Matches(r.Rating) {
			continue
		}
		if err := e.notifier.Send(ctx, rule.Email, BuildNotification(b, r)); err != nil {
			d.Failed++
			e.metrics.NotificationSent(false)
			log.Error().Err(err).
				Int64("rule_id", rule.ID).
				Int64("review_id", r.ID).
				Str("to", rule.Email).
				Msg("alert delivery failed")
			continue
		}
		d.Sent++
		e.metrics.NotificationSent(true)
		log.Info().Int64("rule_id", rule.ID).Int64("review_id", r.ID).Str("to", rule.Email).Msg("alert sent")
	}
	return d, nil
}

func BuildNotification(b domain.Business, r domain.Review) domain.Notification {
	rating := "-"
	if r.Rating != nil {
		rating = fmt.Sprintf("%.1f", *r.Rating)
	}
	author := "Anonymous"
	if r.Author != nil && strings.TrimSpace(*r.Author) != "" {
		author = *r.Author
	}

	var body strings.Builder
	fmt.Fprintf(&body, "A new %s★ review was posted for %s on %s.\n\n", rating, b.Name, r.Source)
	fmt.Fprintf(&body, "Author: %s\n", author)
	if r.ReviewDate != nil {
		fmt.Fprintf(&body, "Date: %s\n", r.ReviewDate.Format("2006-01-02"))
	}
	fmt.Fprintf(&body, "Sentiment: %s (%.2f)\n", r.SentimentLabel, r.SentimentScore)
	if r.Text != nil && strings.TrimSpace(*r.Text) != "" {
		fmt.Fprintf(&body, "\n%s\n", truncate(*r.Text, 500))
	}

	return domain.Notification{
		Subject: fmt.Sprintf("[Review Hound] %s★ review for %s on %s", rating, b.Name, r.Source),
		Body:    body.String(),
	}
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n]) + "…"
}
