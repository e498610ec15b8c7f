package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const jobColumns = `id, tenant_id, job_type, payload, status, attempt, max_attempts, error, run_at, completed_at, created_at, updated_at`

func scanJob(row interface{ Scan(...any) error }) (Job, error) {
	var i Job
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.JobType,
		&i.Payload,
		&i.Status,
		&i.Attempt,
		&i.MaxAttempts,
		&i.Error,
		&i.RunAt,
		&i.CompletedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const claimNextJob = `-- name: ClaimNextJob :one
UPDATE jobs
SET status = 'running', attempt = attempt + 1, updated_at = now()
WHERE id = (
    SELECT id FROM jobs
    WHERE status = 'pending' AND run_at <= now()
    ORDER BY run_at
    FOR UPDATE SKIP LOCKED
    LIMIT 1
)
RETURNING ` + jobColumns

// ClaimNextJob marks the oldest runnable job as running and returns it.
// Concurrent workers never claim the same row.
func (q *Queries) ClaimNextJob(ctx context.Context) (Job, error) {
	return scanJob(q.db.QueryRow(ctx, claimNextJob))
}

const createJob = `-- name: CreateJob :one
INSERT INTO jobs (tenant_id, job_type, payload)
VALUES ($1, $2, $3)
RETURNING ` + jobColumns

type CreateJobParams struct {
	TenantID uuid.UUID `json:"tenant_id"`
	JobType  string    `json:"job_type"`
	Payload  []byte    `json:"payload"`
}

func (q *Queries) CreateJob(ctx context.Context, arg CreateJobParams) (Job, error) {
	return scanJob(q.db.QueryRow(ctx, createJob, arg.TenantID, arg.JobType, arg.Payload))
}

const getJob = `-- name: GetJob :one
SELECT ` + jobColumns + ` FROM jobs
WHERE id = $1 AND tenant_id = $2
`

type GetJobParams struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
}

func (q *Queries) GetJob(ctx context.Context, arg GetJobParams) (Job, error) {
	return scanJob(q.db.QueryRow(ctx, getJob, arg.ID, arg.TenantID))
}

const updateJobStatus = `-- name: UpdateJobStatus :one
UPDATE jobs
SET status = $2, error = $3, completed_at = $4, run_at = $5, updated_at = now()
WHERE id = $1
RETURNING ` + jobColumns

type UpdateJobStatusParams struct {
	ID          uuid.UUID   `json:"id"`
	Status      string      `json:"status"`
	Error       pgtype.Text `json:"error"`
	CompletedAt *time.Time  `json:"completed_at"`
	RunAt       time.Time   `json:"run_at"`
}

func (q *Queries) UpdateJobStatus(ctx context.Context, arg UpdateJobStatusParams) (Job, error) {
	return scanJob(q.db.QueryRow(ctx, updateJobStatus,
		arg.ID,
		arg.Status,
		arg.Error,
		arg.CompletedAt,
		arg.RunAt,
	))
}
