package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/gsarma/judgekit/internal/code"
	"github.com/gsarma/judgekit/internal/store"
)

// ExecuteJob dispatches a job to the appropriate handler by type.
// It implements worker.JobExecutor.
func (h *Handler) ExecuteJob(ctx context.Context, jobID uuid.UUID, tenantID uuid.UUID, jobType string, payload json.RawMessage) error {
	t, err := h.queries.GetTenantByID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("tenant not found: %w", err)
	}
	switch jobType {
	case code.JobTypeExecute:
		return h.executeCodeJob(ctx, jobID, &t, payload)
	default:
		return fmt.Errorf("unknown job type: %s", jobType)
	}
}

// executeCodeJob runs the submission once and stores its result. Only
// payload and store failures are returned; a failed execution is a result.
func (h *Handler) executeCodeJob(ctx context.Context, jobID uuid.UUID, t *store.Tenant, sealed []byte) error {
	raw, err := h.tenantSvc.OpenPayload(t, code.JobTypeExecute, sealed)
	if err != nil {
		return err
	}
	var req code.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("invalid code job payload: %w", err)
	}

	res := h.engine.ExecuteWithTestCases(ctx, req)

	out, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if _, err := h.queries.InsertCodeExecution(ctx, store.InsertCodeExecutionParams{
		JobID:    jobID,
		TenantID: t.ID,
		Language: req.Language,
		Success:  res.Success,
		Result:   out,
	}); err != nil {
		return fmt.Errorf("store result: %w", err)
	}

	h.log.Debug().
		Stringer("job_id", jobID).
		Str("language", req.Language).
		Bool("success", res.Success).
		Msg("code job finished")
	return nil
}
