package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"vydio/internal/domain"
	"vydio/internal/infra"
	"vydio/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	db infra.SQLExecutor
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(db infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{db: db}
}

// Create inserts a new job record.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	err := r.db.QueryRow(ctx, sqlinline.QInsertJob,
		job.ID,
		job.UserID,
		job.Prompt,
		job.DurationSeconds,
		job.CreditCost,
		job.Status,
		job.ProviderJobID,
		job.VideoURL,
		job.Error,
		job.CreatedAt,
	).Scan(&job.UpdatedAt)
	return mapDBError("insert job", err)
}

// GetForUser fetches a job owned by userID.
func (r *JobRepositoryPG) GetForUser(ctx context.Context, jobID, userID string) (*domain.Job, error) {
	job, err := scanJob(r.db.QueryRow(ctx, sqlinline.QSelectJobForUser, jobID, userID))
	if err != nil {
		return nil, mapDBError("select job", err)
	}
	return job, nil
}

func (r *JobRepositoryPG) CountCreatedSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, sqlinline.QCountJobsCreatedSince, userID, since).Scan(&n); err != nil {
		return 0, mapDBError("count jobs", err)
	}
	return n, nil
}

func (r *JobRepositoryPG) ListRecentForUser(ctx context.Context, userID string, limit int) ([]domain.Job, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListRecentJobs, userID, limit)
	if err != nil {
		return nil, mapDBError("list jobs", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, mapDBError("scan job", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, mapDBError("list jobs", rows.Err())
}

func (r *JobRepositoryPG) MarkRunning(ctx context.Context, jobID, providerJobID string) (bool, error) {
	return r.transition(ctx, "mark running", sqlinline.QMarkJobRunning, jobID, providerJobID)
}

func (r *JobRepositoryPG) MarkSucceeded(ctx context.Context, jobID, videoURL string) (bool, error) {
	return r.transition(ctx, "mark succeeded", sqlinline.QMarkJobSucceeded, jobID, videoURL)
}

func (r *JobRepositoryPG) MarkFailed(ctx context.Context, jobID, reason string) (bool, error) {
	return r.transition(ctx, "mark failed", sqlinline.QMarkJobFailed, jobID, reason)
}

// transition runs a status-guarded update. Zero affected rows means either
// the job is gone or its status no longer allows the move.
func (r *JobRepositoryPG) transition(ctx context.Context, op, query, jobID, value string) (bool, error) {
	tag, err := r.db.Exec(ctx, query, jobID, value)
	if err != nil {
		return false, mapDBError(op, err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}
	var exists bool
	if err := r.db.QueryRow(ctx, sqlinline.QJobExists, jobID).Scan(&exists); err != nil {
		return false, mapDBError(op, err)
	}
	if !exists {
		return false, fmt.Errorf("%s %s: %w", op, jobID, domain.ErrNotFound)
	}
	return false, nil
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.Prompt,
		&job.DurationSeconds,
		&job.CreditCost,
		&job.Status,
		&job.ProviderJobID,
		&job.VideoURL,
		&job.Error,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &job, nil
}
