package tenant

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gsarma/judgekit/internal/store"
)

const ctxKey = "tenant"

// AuthMiddleware validates the Bearer API key and sets the tenant in context.
func (s *Service) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawKey, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			return
		}

		t, err := s.Authenticate(c.Request.Context(), strings.TrimSpace(rawKey))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(ctxKey, t)
		c.Next()
	}
}

// FromContext retrieves the authenticated tenant from the Gin context.
func FromContext(c *gin.Context) *store.Tenant {
	t, _ := c.Get(ctxKey)
	tenant, _ := t.(*store.Tenant)
	return tenant
}

// Key identifies the authenticated tenant for per-tenant limits. Requests
// that reach it unauthenticated fall back to the client IP.
func Key(c *gin.Context) string {
	if t := FromContext(c); t != nil {
		return t.ID.String()
	}
	return c.ClientIP()
}
