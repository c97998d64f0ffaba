package observability

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "reviewhound"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "external_requests_total", Help: "Outbound requests to review sites and provider APIs."},
		[]string{"service", "host", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "host"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)

	Sweeps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "sweeps_total", Help: "Completed sweeps by outcome."},
		[]string{"outcome"}, // outcome: clean|partial
	)
	SweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "sweep_duration_seconds",
			Help:    "Wall time of a full sweep.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)
	ScrapeRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "scrape_runs_total", Help: "Finished scrape runs."},
		[]string{"source", "status"},
	)
	ReviewsAdmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "reviews_admitted_total", Help: "Reviews stored for the first time."},
		[]string{"source"},
	)
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "notifications_total", Help: "Alert deliveries."},
		[]string{"status"}, // status: sent|failed
	)
)

// Serve exposes reg on addr/metrics in the background. An empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		HTTPRequests, HTTPLatency, ExternalRequests, ExternalLatency, CacheEvents,
		Sweeps, SweepDuration, ScrapeRuns, ReviewsAdmitted, Notifications,
	)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

// ObserveExternal records one outbound attempt; status 0 means no response.
func ObserveExternal(service, host string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, host, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, host).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) {
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func LabelErr(err error) string {
	if err == nil {
		return "none"
	}
	return fmt.Sprintf("%T", err)
}

// PipelineMetrics feeds sweep and ingestion events into the collectors above.
type PipelineMetrics struct{}

func (PipelineMetrics) RunFinished(src, status string) {
	ScrapeRuns.WithLabelValues(src, status).Inc()
}

func (PipelineMetrics) ReviewsAdmitted(src string, n int) {
	if n > 0 {
		ReviewsAdmitted.WithLabelValues(src).Add(float64(n))
	}
}

func (PipelineMetrics) NotificationSent(ok bool) {
	status := "sent"
	if !ok {
		status = "failed"
	}
	Notifications.WithLabelValues(status).Inc()
}

func (PipelineMetrics) SweepFinished(d time.Duration, failed int) {
	outcome := "clean"
	if failed > 0 {
		outcome = "partial"
	}
	Sweeps.WithLabelValues(outcome).Inc()
	SweepDuration.Observe(d.Seconds())
}
