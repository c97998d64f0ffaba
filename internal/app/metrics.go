package app

import "time"

// Metrics receives pipeline events. observability.PipelineMetrics is the
// Prometheus-backed implementation.
type Metrics interface {
	RunFinished(src string, status string)
	ReviewsAdmitted(src string, n int)
	NotificationSent(ok bool)
	SweepFinished(d time.Duration, failed int)
}

type NopMetrics struct{}

func (NopMetrics) RunFinished(string, string)       {}
func (NopMetrics) ReviewsAdmitted(string, int)      {}
func (NopMetrics) NotificationSent(bool)            {}
func (NopMetrics) SweepFinished(time.Duration, int) {}
