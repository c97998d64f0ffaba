package domain

import "time"

type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// ScrapeRun records one business×source ingestion attempt.
// It moves from running to success or failed exactly once.
type ScrapeRun struct {
	ID           int64
	BusinessID   int64
	Source       Source
	Status       RunStatus
	StartedAt    time.Time
	CompletedAt  *time.Time
	ReviewsFound int
	Error        *string
}

func NewScrapeRun(businessID int64, src Source, now time.Time) ScrapeRun {
	return ScrapeRun{BusinessID: businessID, Source: src, Status: RunRunning, StartedAt: now}
}

func (r *ScrapeRun) Succeed(found int, at time.Time) error {
	if r.Status != RunRunning {
		return ErrRunFinalized
	}
	r.Status = RunSuccess
	r.ReviewsFound = found
	r.CompletedAt = &at
	return nil
}

func (r *ScrapeRun) Fail(cause error, at time.Time) error {
	if r.Status != RunRunning {
		return ErrRunFinalized
	}
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	r.Status = RunFailed
	r.Error = &msg
	r.CompletedAt = &at
	return nil
}
