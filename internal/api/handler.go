package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gsarma/judgekit/internal/code"
	"github.com/gsarma/judgekit/internal/language"
	"github.com/gsarma/judgekit/internal/store"
	"github.com/gsarma/judgekit/internal/tenant"
)

const backendProbeTimeout = 30 * time.Second

// Engine is the execution surface the handlers depend on. *engine.Engine
// satisfies it.
type Engine interface {
	Backend() string
	Languages() []language.Entry
	IsLanguageSupported(lang string) bool
	ExecuteWithTestCases(ctx context.Context, req code.Request) code.Result
	TestConnection(ctx context.Context) bool
}

type Handler struct {
	queries   store.Querier
	tenantSvc *tenant.Service
	engine    Engine
	log       zerolog.Logger
}

// CreateTenant provisions a new tenant and returns the API key (shown once).
func (h *Handler) CreateTenant(c *gin.Context) {
	apiKey, tenantID, err := h.tenantSvc.Create(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("create tenant failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create tenant"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"tenant_id": tenantID,
		"api_key":   apiKey,
		"note":      "Store this API key. It will not be shown again.",
	})
}

// Health reports process liveness only.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// BackendHealth runs the canned probe program through the active backend.
func (h *Handler) BackendHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), backendProbeTimeout)
	defer cancel()

	if !h.engine.TestConnection(ctx) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "backend": h.engine.Backend()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": h.engine.Backend()})
}
