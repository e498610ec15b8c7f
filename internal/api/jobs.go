package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gsarma/judgekit/internal/store"
	"github.com/gsarma/judgekit/internal/tenant"
)

// GetJob returns the status of a queued job owned by the caller's tenant.
func (h *Handler) GetJob(c *gin.Context) {
	t := tenant.FromContext(c)
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	job, err := h.queries.GetJob(c.Request.Context(), store.GetJobParams{
		ID:       jobID,
		TenantID: t.ID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		h.log.Error().Err(err).Stringer("job_id", jobID).Msg("get job failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load job"})
		return
	}

	c.JSON(http.StatusOK, job)
}
