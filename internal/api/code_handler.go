package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gsarma/judgekit/internal/code"
	"github.com/gsarma/judgekit/internal/store"
	"github.com/gsarma/judgekit/internal/tenant"
)

// maxSyncTestCases keeps a graded ?sync=true request inside the server's
// write timeout even when every case takes a full Judge0 poll cycle.
const maxSyncTestCases = 10

type executeRequest struct {
	Language  string          `json:"language" binding:"required"`
	Code      string          `json:"code"`
	Stdin     string          `json:"stdin"`
	TestCases []code.TestCase `json:"test_cases"`
}

// Execute runs a submission, grading it when test cases are given.
//
// Request body:
//
//	{
//	  "language":   "python",
//	  "code":       "print(input())",
//	  "stdin":      "optional",
//	  "test_cases": [{"input": "1", "expected_output": "1"}]
//	}
//
// Async (default): seals the submission into a code.execute job and returns
// 202 {"job_id": "...", "status": "queued"}.
// Sync (?sync=true): returns 200 with the result. Execution failures are
// reported in the result body, never as HTTP errors. Sync requests take at
// most maxSyncTestCases test cases; larger suites must be queued.
func (h *Handler) Execute(c *gin.Context) {
	t := tenant.FromContext(c)

	var body executeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req := code.Request{
		Language:  body.Language,
		Code:      body.Code,
		Stdin:     body.Stdin,
		TestCases: body.TestCases,
	}

	if c.Query("sync") == "true" {
		if len(req.TestCases) > maxSyncTestCases {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("sync execution accepts at most %d test cases, got %d; submit without ?sync=true to queue it", maxSyncTestCases, len(req.TestCases)),
			})
			return
		}
		c.JSON(http.StatusOK, h.engine.ExecuteWithTestCases(c.Request.Context(), req))
		return
	}

	payload, err := json.Marshal(req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode job"})
		return
	}
	sealed, err := h.tenantSvc.SealPayload(t, code.JobTypeExecute, payload)
	if err != nil {
		h.log.Error().Err(err).Stringer("tenant_id", t.ID).Msg("seal job payload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encryption error"})
		return
	}

	job, err := h.queries.CreateJob(c.Request.Context(), store.CreateJobParams{
		TenantID: t.ID,
		JobType:  code.JobTypeExecute,
		Payload:  sealed,
	})
	if err != nil {
		h.log.Error().Err(err).Stringer("tenant_id", t.ID).Msg("queue job failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue job"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID, "status": "queued"})
}

// GetCodeExecution returns the stored result of a completed code.execute job.
// Call this after GET /jobs/:id reports status "completed".
func (h *Handler) GetCodeExecution(c *gin.Context) {
	t := tenant.FromContext(c)
	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	exec, err := h.queries.GetCodeExecution(c.Request.Context(), store.GetCodeExecutionParams{
		JobID:    jobID,
		TenantID: t.ID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "execution result not found"})
			return
		}
		h.log.Error().Err(err).Stringer("job_id", jobID).Msg("get execution failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load execution"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id":     exec.JobID,
		"language":   exec.Language,
		"created_at": exec.CreatedAt,
		"result":     json.RawMessage(exec.Result),
	})
}
