package store

import (
	"context"

	"github.com/google/uuid"
)

type Querier interface {
	ClaimNextJob(ctx context.Context) (Job, error)
	CreateJob(ctx context.Context, arg CreateJobParams) (Job, error)
	CreateTenant(ctx context.Context, arg CreateTenantParams) (Tenant, error)
	GetCodeExecution(ctx context.Context, arg GetCodeExecutionParams) (CodeExecution, error)
	GetJob(ctx context.Context, arg GetJobParams) (Job, error)
	GetTenantByAPIKeyHash(ctx context.Context, apiKeyHash string) (Tenant, error)
	GetTenantByID(ctx context.Context, id uuid.UUID) (Tenant, error)
	InsertCodeExecution(ctx context.Context, arg InsertCodeExecutionParams) (CodeExecution, error)
	UpdateJobStatus(ctx context.Context, arg UpdateJobStatusParams) (Job, error)
}

var _ Querier = (*Queries)(nil)
