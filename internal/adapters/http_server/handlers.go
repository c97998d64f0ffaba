package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"reviewhound/internal/app"
	"reviewhound/internal/domain"
)

// DefaultAlertThreshold applies when an alert is created without one.
const DefaultAlertThreshold = 3.0

type Queries interface {
	Business(ctx context.Context, id int64) (domain.Business, error)
	ListReviews(ctx context.Context, q domain.ReviewQuery) ([]domain.Review, error)
	Stats(ctx context.Context, businessID int64) (domain.ReviewStats, error)
	ScrapeRuns(ctx context.Context, businessID int64, limit int) ([]domain.ScrapeRun, error)
}

type Manager interface {
	ListBusinesses(ctx context.Context) ([]domain.Business, error)
	AddBusiness(ctx context.Context, b domain.Business) (domain.Business, error)
	ConfigureAlert(ctx context.Context, businessID int64, email string, threshold float64, disable bool) (domain.NotificationRule, string, error)
	ListAlerts(ctx context.Context, businessID *int64) ([]domain.NotificationRule, error)
}

type SweepRunner interface {
	RunSweep(ctx context.Context, opts app.SweepOptions) (app.Summary, error)
}

type Handlers struct {
	Q Queries
	M Manager
	S SweepRunner

	sweeping atomic.Bool
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/v1/businesses", func(r chi.Router) {
		r.Get("/", h.listBusinesses)
		r.Post("/", h.createBusiness)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getBusiness)
			r.Get("/reviews", h.listReviews)
			r.Get("/reviews.csv", h.exportReviews)
			r.Get("/stats", h.stats)
			r.Get("/runs", h.listRuns)
			r.Get("/alerts", h.listAlerts)
			r.Put("/alerts", h.putAlert)
		})
	})
	s.mux.Post("/v1/sweeps", h.startSweep)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain errors onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeProblem(w, http.StatusBadRequest, "Invalid Input", err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

// writeJSON honors If-None-Match for cacheable reads.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	etag, body := calcETagAndBody(v)
	if status == http.StatusOK && etag != "" {
		if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
			w.Header().Set("ETag", etag)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return 0, false
	}
	return id, true
}

// queryLimit reads ?limit= within [1, max], defaulting to def.
func queryLimit(w http.ResponseWriter, r *http.Request, def, max int) (int, bool) {
	ls := r.URL.Query().Get("limit")
	if ls == "" {
		return def, true
	}
	l, err := strconv.Atoi(ls)
	if err != nil || l <= 0 || l > max {
		writeProblem(w, http.StatusBadRequest, "Invalid limit", fmt.Sprintf("limit must be an integer between 1 and %d", max))
		return 0, false
	}
	return l, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return false
	}
	return true
}

func (h *Handlers) listBusinesses(w http.ResponseWriter, r *http.Request) {
	bs, err := h.M.ListBusinesses(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]businessView, 0, len(bs))
	for _, b := range bs {
		out = append(out, toBusinessView(b))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *Handlers) createBusiness(w http.ResponseWriter, r *http.Request) {
	var in businessInput
	if !decodeBody(w, r, &in) {
		return
	}
	b, err := h.M.AddBusiness(r.Context(), in.toDomain())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/v1/businesses/%d", b.ID))
	writeJSON(w, r, http.StatusCreated, toBusinessView(b))
}

func (h *Handlers) getBusiness(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := h.Q.Business(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toBusinessView(b))
}

// reviewQuery parses the shared filters of the review listing and export.
func reviewQuery(w http.ResponseWriter, r *http.Request, id int64, def, max int) (domain.ReviewQuery, bool) {
	q := domain.ReviewQuery{BusinessID: id}
	if s := r.URL.Query().Get("source"); s != "" {
		src, ok := domain.ParseSource(s)
		if !ok {
			writeProblem(w, http.StatusBadRequest, "Invalid source", "unknown source "+strconv.Quote(s))
			return q, false
		}
		q.Source = &src
	}
	if s := r.URL.Query().Get("sentiment"); s != "" {
		l, ok := domain.ParseLabel(s)
		if !ok {
			writeProblem(w, http.StatusBadRequest, "Invalid sentiment", "sentiment must be positive, neutral or negative")
			return q, false
		}
		q.Label = &l
	}
	limit, ok := queryLimit(w, r, def, max)
	if !ok {
		return q, false
	}
	q.Limit = limit
	return q, true
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	q, ok := reviewQuery(w, r, id, 50, 200)
	if !ok {
		return
	}
	if _, err := h.Q.Business(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	rs, err := h.Q.ListReviews(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toReviewViews(rs))
}

func (h *Handlers) exportReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	q, ok := reviewQuery(w, r, id, 10000, 100000)
	if !ok {
		return
	}
	b, err := h.Q.Business(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	rs, err := h.Q.ListReviews(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="reviews-%d.csv"`, b.ID))
	if err := app.WriteCSV(w, rs); err != nil {
		log.Error().Err(err).Int64("business_id", id).Msg("csv export failed")
	}
}

func (h *Handlers) stats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.Q.Business(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	st, err := h.Q.Stats(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (h *Handlers) listRuns(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	limit, ok := queryLimit(w, r, 20, 200)
	if !ok {
		return
	}
	runs, err := h.Q.ScrapeRuns(r.Context(), id, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRunViews(runs))
}

func (h *Handlers) listAlerts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rules, err := h.M.ListAlerts(r.Context(), &id)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]alertView, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toAlertView(rule))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *Handlers) putAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in alertInput
	if !decodeBody(w, r, &in) {
		return
	}
	threshold := DefaultAlertThreshold
	if in.Threshold != nil {
		threshold = *in.Threshold
	}
	rule, action, err := h.M.ConfigureAlert(r.Context(), id, in.Email, threshold, in.Disabled)
	if err != nil {
		writeError(w, err)
		return
	}
	v := toAlertView(rule)
	v.Action = action
	status := http.StatusOK
	if action == "Created" {
		status = http.StatusCreated
	}
	writeJSON(w, r, status, v)
}

// startSweep runs a sweep in the background; only one may run at a time.
func (h *Handlers) startSweep(w http.ResponseWriter, r *http.Request) {
	var in sweepInput
	if !decodeBody(w, r, &in) {
		return
	}
	if !h.sweeping.CompareAndSwap(false, true) {
		writeProblem(w, http.StatusConflict, "Sweep Running", "a sweep is already in progress")
		return
	}

	ctx := context.WithoutCancel(r.Context())
	go func() {
		defer h.sweeping.Store(false)
		if _, err := h.S.RunSweep(ctx, app.SweepOptions{BusinessIDs: in.BusinessIDs, DisableAlerts: in.NoAlerts}); err != nil {
			log.Error().Err(err).Msg("api-triggered sweep failed")
		}
	}()
	writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "accepted"})
}
