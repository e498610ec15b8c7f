package store

import (
	"context"

	"github.com/google/uuid"
)

const insertCodeExecution = `-- name: InsertCodeExecution :one
INSERT INTO code_executions (job_id, tenant_id, language, success, result)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (job_id) DO UPDATE
SET language = EXCLUDED.language, success = EXCLUDED.success, result = EXCLUDED.result
RETURNING id, job_id, tenant_id, language, success, result, created_at
`

type InsertCodeExecutionParams struct {
	JobID    uuid.UUID `json:"job_id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Language string    `json:"language"`
	Success  bool      `json:"success"`
	Result   []byte    `json:"result"`
}

// InsertCodeExecution is an upsert so a retried job overwrites its earlier row.
func (q *Queries) InsertCodeExecution(ctx context.Context, arg InsertCodeExecutionParams) (CodeExecution, error) {
	row := q.db.QueryRow(ctx, insertCodeExecution,
		arg.JobID,
		arg.TenantID,
		arg.Language,
		arg.Success,
		arg.Result,
	)
	var i CodeExecution
	err := row.Scan(
		&i.ID,
		&i.JobID,
		&i.TenantID,
		&i.Language,
		&i.Success,
		&i.Result,
		&i.CreatedAt,
	)
	return i, err
}

const getCodeExecution = `-- name: GetCodeExecution :one
SELECT id, job_id, tenant_id, language, success, result, created_at FROM code_executions
WHERE job_id = $1 AND tenant_id = $2
`

type GetCodeExecutionParams struct {
	JobID    uuid.UUID `json:"job_id"`
	TenantID uuid.UUID `json:"tenant_id"`
}

func (q *Queries) GetCodeExecution(ctx context.Context, arg GetCodeExecutionParams) (CodeExecution, error) {
	row := q.db.QueryRow(ctx, getCodeExecution, arg.JobID, arg.TenantID)
	var i CodeExecution
	err := row.Scan(
		&i.ID,
		&i.JobID,
		&i.TenantID,
		&i.Language,
		&i.Success,
		&i.Result,
		&i.CreatedAt,
	)
	return i, err
}
