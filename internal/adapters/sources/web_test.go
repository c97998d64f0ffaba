package sources_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"reviewhound/internal/adapters/sources"
	"reviewhound/internal/domain"
)

const trustpilotPage1 = `<html><body>
<article data-review-id="tp-1">
  <aside><a href="/users/1"><span>Dana K.</span></a></aside>
  <div data-service-review-rating="5"></div>
  <div data-service-review-text-typography="true"><p>Excellent, fast delivery.</p></div>
  <div data-service-review-date-of-experience-typography="true"><p>Date of experience: March 4, 2024</p></div>
</article>
<article data-review-id="tp-2">
  <div data-service-review-rating="1"></div>
  <div data-service-review-text-typography="true">Never again.</div>
</article>
<article><div data-service-review-rating="3"></div></article>
</body></html>`

const trustpilotPage2 = `<html><body>
<article data-review-id="tp-3"><div data-service-review-rating="4"></div></article>
<article data-review-id="tp-1"><div data-service-review-rating="5"></div></article>
</body></html>`

type pageServer struct {
	mu    sync.Mutex
	pages map[string]string // RawQuery -> body; missing means 404
	seen  []string
}

func (p *pageServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.seen = append(p.seen, r.URL.RawQuery)
	body, ok := p.pages[r.URL.RawQuery]
	p.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte(body))
}

func TestTrustpilot_PaginatesAndParses(t *testing.T) {
	ps := &pageServer{pages: map[string]string{"": trustpilotPage1, "page=2": trustpilotPage2}}
	ts := httptest.NewServer(ps)
	defer ts.Close()

	a := sources.NewTrustpilot(sources.NewClient(100, ""), 5)
	got, err := a.Fetch(context.Background(), domain.Target{Source: domain.SourceTrustpilot, Kind: domain.KindWeb, Locator: ts.URL + "/review/acme.com?languages=all"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("candidates = %d, want 3 (id-less skipped, repeat dropped)", len(got))
	}

	first := got[0]
	if first.ExternalID != "tp-1" || *first.Author != "Dana K." || *first.Rating != 5 || *first.Text != "Excellent, fast delivery." {
		t.Fatalf("first = %+v", first)
	}
	if first.Date == nil || !first.Date.Equal(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date = %v", first.Date)
	}
	if got[1].Author != nil || *got[1].Text != "Never again." {
		t.Fatalf("second = %+v", got[1])
	}

	// page 3 is a 404 and ends pagination
	if want := []string{"", "page=2", "page=3"}; len(ps.seen) != len(want) {
		t.Fatalf("requested pages = %v", ps.seen)
	}
}

func TestWebAdapter_FirstPageFailureFailsFetch(t *testing.T) {
	ts := httptest.NewServer(&pageServer{pages: map[string]string{}})
	defer ts.Close()

	a := sources.NewBBB(sources.NewClient(100, ""), 3, false)
	if _, err := a.Fetch(context.Background(), domain.Target{Source: domain.SourceBBB, Locator: ts.URL}); err == nil {
		t.Fatal("expected error when the first page is missing")
	}
}

func TestBBB_Parse(t *testing.T) {
	page := `<div class="review-item" data-review-id="bbb-9">
	  <span class="reviewer-name">Lee</span>
	  <div class="star-rating" data-rating="2"></div>
	  <div class="review-text"><p>Slow to respond.</p></div>
	  <span class="review-date">07/15/2024</span>
	</div>`
	ps := &pageServer{pages: map[string]string{"": page}}
	ts := httptest.NewServer(ps)
	defer ts.Close()

	got, err := sources.NewBBB(sources.NewClient(100, ""), 1, false).Fetch(context.Background(), domain.Target{Locator: ts.URL})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 || got[0].ExternalID != "bbb-9" || *got[0].Rating != 2 || *got[0].Author != "Lee" {
		t.Fatalf("got %+v", got)
	}
	if got[0].Date == nil || got[0].Date.Month() != time.July || got[0].Date.Day() != 15 {
		t.Fatalf("date = %v", got[0].Date)
	}
	if len(ps.seen) != 1 {
		t.Fatalf("max pages 1 but fetched %v", ps.seen)
	}
}

func TestBBB_ComplaintsOnlyWhenEnabled(t *testing.T) {
	page := `<div class="review-item" data-review-id="77">
	  <div class="star-rating" data-rating="5"></div>
	  <div class="review-text">Great.</div>
	</div>
	<div class="complaint-item" data-complaint-id="77">
	  <span class="complaint-type">Billing Issues</span>
	  <div class="complaint-text"><p>Charged twice.</p></div>
	  <span class="complaint-date">02/03/2024</span>
	</div>`
	ts := httptest.NewServer(&pageServer{pages: map[string]string{"": page}})
	defer ts.Close()

	plain, err := sources.NewBBB(sources.NewClient(100, ""), 1, false).Fetch(context.Background(), domain.Target{Locator: ts.URL})
	if err != nil || len(plain) != 1 {
		t.Fatalf("without complaints: %d %v", len(plain), err)
	}

	got, err := sources.NewBBB(sources.NewClient(100, ""), 1, true).Fetch(context.Background(), domain.Target{Locator: ts.URL})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %+v", got)
	}
	c := got[1]
	if c.ExternalID != "complaint:77" || c.Rating == nil || *c.Rating != 1 {
		t.Fatalf("complaint = %+v", c)
	}
	if c.Author == nil || *c.Author != "Billing Issues" || c.Text == nil || *c.Text != "Charged twice." {
		t.Fatalf("complaint fields = %+v", c)
	}
	if c.Date == nil || c.Date.Month() != time.February || c.Date.Day() != 3 {
		t.Fatalf("date = %v", c.Date)
	}
}

func TestYelpWeb_ParseAndStartOffsets(t *testing.T) {
	page := func(id string) string {
		return `<ul><li data-review-id="` + id + `">
		  <div class="user-passport-info"><span class="fs-block">Sam</span></div>
		  <div aria-label="Photo of Sam"></div>
		  <div aria-label="4 star rating"></div>
		  <span class="raw__09f24__T4Ezm">Good tacos</span>
		  <span class="css-chan6m">Nov 15, 2024</span>
		</li></ul>`
	}
	ps := &pageServer{pages: map[string]string{"": page("y-1"), "start=10": page("y-2")}}
	ts := httptest.NewServer(ps)
	defer ts.Close()

	got, err := sources.NewYelpWeb(sources.NewClient(100, ""), 2).Fetch(context.Background(), domain.Target{Locator: ts.URL + "/biz/tacos"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 || got[1].ExternalID != "y-2" {
		t.Fatalf("got %+v", got)
	}
	if *got[0].Rating != 4 || *got[0].Text != "Good tacos" || got[0].Date.Year() != 2024 {
		t.Fatalf("first = %+v", got[0])
	}
}
