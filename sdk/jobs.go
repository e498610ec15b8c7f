package judgekit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// JobsService provides job status lookup operations.
type JobsService struct {
	c *Client
}

// Get retrieves the current status and metadata for a background job.
// jobID is the UUID returned when an execution is queued.
func (s *JobsService) Get(ctx context.Context, jobID string) (*Job, error) {
	path := fmt.Sprintf("/jobs/%s", url.PathEscape(jobID))
	return doRequest[Job](ctx, s.c, http.MethodGet, path, nil, nil, http.StatusOK)
}
