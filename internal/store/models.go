package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Tenant struct {
	ID               uuid.UUID `json:"id"`
	ApiKeyHash       string    `json:"-"`
	EncryptedDataKey []byte    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

type Job struct {
	ID          uuid.UUID   `json:"id"`
	TenantID    uuid.UUID   `json:"tenant_id"`
	JobType     string      `json:"job_type"`
	Payload     []byte      `json:"-"`
	Status      string      `json:"status"`
	Attempt     int32       `json:"attempt"`
	MaxAttempts int32       `json:"max_attempts"`
	Error       pgtype.Text `json:"error"`
	RunAt       time.Time   `json:"run_at"`
	CompletedAt *time.Time  `json:"completed_at"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type CodeExecution struct {
	ID        uuid.UUID `json:"id"`
	JobID     uuid.UUID `json:"job_id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Language  string    `json:"language"`
	Success   bool      `json:"success"`
	Result    []byte    `json:"result"`
	CreatedAt time.Time `json:"created_at"`
}
