package app_test

import (
	"context"
	"strings"
	"testing"

	"reviewhound/internal/app"
	"reviewhound/internal/domain"
)

func TestEvaluate_ThresholdGating(t *testing.T) {
	st := newMemStore()
	b := mustBusiness(st, domain.Business{Name: "Acme"})
	_, _ = st.SaveRule(context.Background(), domain.NotificationRule{BusinessID: b.ID, Email: "ops@acme.test", Threshold: 3.0, Enabled: true})

	cases := []struct {
		name   string
		rating *float64
		want   int
	}{
		{"below threshold fires", ptr(2.0), 1},
		{"at threshold fires", ptr(3.0), 1},
		{"above threshold silent", ptr(4.0), 0},
		{"no rating silent", nil, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			n := &fakeNotifier{}
			ev := app.NewAlertEvaluator(st, n, nil)
			d, err := ev.Evaluate(context.Background(), domain.Review{ID: 9, Source: domain.SourceYelp, Rating: c.rating}, b)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if d.Sent != c.want || n.count() != c.want {
				t.Fatalf("sent %d (notifier saw %d), want %d", d.Sent, n.count(), c.want)
			}
		})
	}
}

func TestEvaluate_OneSendPerMatchingRule(t *testing.T) {
	st := newMemStore()
	b := mustBusiness(st, domain.Business{Name: "Acme"})
	other := mustBusiness(st, domain.Business{Name: "Other"})
	ctx := context.Background()
	_, _ = st.SaveRule(ctx, domain.NotificationRule{BusinessID: b.ID, Email: "a@acme.test", Threshold: 3, Enabled: true})
	_, _ = st.SaveRule(ctx, domain.NotificationRule{BusinessID: b.ID, Email: "b@acme.test", Threshold: 1, Enabled: true})
	_, _ = st.SaveRule(ctx, domain.NotificationRule{BusinessID: b.ID, Email: "c@acme.test", Threshold: 5, Enabled: false})
	_, _ = st.SaveRule(ctx, domain.NotificationRule{BusinessID: other.ID, Email: "d@other.test", Threshold: 5, Enabled: true})

	n := &fakeNotifier{}
	d, err := app.NewAlertEvaluator(st, n, nil).Evaluate(ctx, domain.Review{ID: 1, Source: domain.SourceBBB, Rating: ptr(2.0)}, b)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Sent != 1 || len(n.sent) != 1 || n.sent[0].to != "a@acme.test" {
		t.Fatalf("unexpected sends: %+v", n.sent)
	}
}

func TestEvaluate_DeliveryFailureIsCountedNotReturned(t *testing.T) {
	st := newMemStore()
	b := mustBusiness(st, domain.Business{Name: "Acme"})
	ctx := context.Background()
	_, _ = st.SaveRule(ctx, domain.NotificationRule{BusinessID: b.ID, Email: "down@acme.test", Threshold: 3, Enabled: true})
	_, _ = st.SaveRule(ctx, domain.NotificationRule{BusinessID: b.ID, Email: "up@acme.test", Threshold: 3, Enabled: true})

	n := &fakeNotifier{failTo: map[string]bool{"down@acme.test": true}}
	d, err := app.NewAlertEvaluator(st, n, nil).Evaluate(ctx, domain.Review{ID: 1, Rating: ptr(1.0)}, b)
	if err != nil {
		t.Fatalf("delivery failure must not surface: %v", err)
	}
	if d.Sent != 1 || d.Failed != 1 {
		t.Fatalf("dispatch = %+v", d)
	}
}

func TestBuildNotification(t *testing.T) {
	r := domain.Review{Source: domain.SourceTrustpilot, Rating: ptr(1.0), Text: ptr("Rude staff"), SentimentLabel: domain.LabelNegative, SentimentScore: -0.6}
	msg := app.BuildNotification(domain.Business{Name: "Acme"}, r)
	if !strings.Contains(msg.Subject, "Acme") || !strings.Contains(msg.Subject, "1.0★") {
		t.Fatalf("subject = %q", msg.Subject)
	}
	for _, want := range []string{"Anonymous", "Rude staff", "negative", "trustpilot"} {
		if !strings.Contains(msg.Body, want) {
			t.Fatalf("body missing %q:\n%s", want, msg.Body)
		}
	}
}
