package judgekit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ExecutionsService runs and grades submissions.
type ExecutionsService struct {
	c *Client
}

// Run executes req synchronously and returns the result. Compile errors,
// failing test cases and backend outages are reported in the Result, not
// as errors; err is set only for transport or API failures. The server
// rejects synchronous runs with more than 10 test cases; use Queue for those.
func (s *ExecutionsService) Run(ctx context.Context, req ExecuteRequest) (*Result, error) {
	return doRequest[Result](ctx, s.c, http.MethodPost, "/executions", map[string]string{"sync": "true"}, req, http.StatusOK)
}

// Queue submits req as a background job. Poll Jobs.Get until the job is
// completed, then fetch the result with Get.
func (s *ExecutionsService) Queue(ctx context.Context, req ExecuteRequest) (*QueuedExecution, error) {
	return doRequest[QueuedExecution](ctx, s.c, http.MethodPost, "/executions", nil, req, http.StatusAccepted)
}

// Get returns the stored result of a completed job.
func (s *ExecutionsService) Get(ctx context.Context, jobID string) (*Execution, error) {
	path := fmt.Sprintf("/executions/%s", url.PathEscape(jobID))
	return doRequest[Execution](ctx, s.c, http.MethodGet, path, nil, nil, http.StatusOK)
}
