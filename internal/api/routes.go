package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gsarma/judgekit/internal/limiter"
	"github.com/gsarma/judgekit/internal/store"
	"github.com/gsarma/judgekit/internal/tenant"
)

type Deps struct {
	Queries store.Querier
	Tenants *tenant.Service
	Engine  Engine
	Limiter *limiter.RateLimiter
	Logger  zerolog.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) *Handler {
	h := &Handler{
		queries:   d.Queries,
		tenantSvc: d.Tenants,
		engine:    d.Engine,
		log:       d.Logger.With().Str("component", "api").Logger(),
	}

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Tenant provisioning (would be admin-gated in production)
	r.POST("/tenants", h.CreateTenant)

	// Authenticated routes
	authed := r.Group("/", d.Tenants.AuthMiddleware(), d.Limiter.Middleware(tenant.Key))
	{
		authed.GET("/health/backend", h.BackendHealth)

		authed.GET("/languages", h.ListLanguages)
		authed.GET("/languages/:language", h.GetLanguage)

		authed.POST("/executions", h.Execute)
		authed.GET("/executions/:job_id", h.GetCodeExecution)
		authed.GET("/jobs/:id", h.GetJob)
	}

	return h
}
