package domain

import "time"

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether no further transition may leave this status.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// Job is a single video generation request and its reserved credits.
type Job struct {
	ID              string
	UserID          string
	Prompt          string
	DurationSeconds int
	// CreditCost is fixed at creation; refunds always return this amount.
	CreditCost    int
	Status        JobStatus
	ProviderJobID string
	VideoURL      string
	Error         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasProviderHandle reports whether the provider accepted the job.
func (j Job) HasProviderHandle() bool {
	return j.ProviderJobID != ""
}

// Rate limit applied to job submissions per user.
const (
	SubmissionWindow     = 60 * time.Second
	SubmissionsPerWindow = 3
)
