package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListLanguages returns the registry in table order.
func (h *Handler) ListLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"backend":   h.engine.Backend(),
		"languages": h.engine.Languages(),
	})
}

func (h *Handler) GetLanguage(c *gin.Context) {
	lang := c.Param("language")
	c.JSON(http.StatusOK, gin.H{
		"language":  lang,
		"supported": h.engine.IsLanguageSupported(lang),
	})
}
