package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler answers liveness probes.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// RegisterRoutes registers the health route under the version prefix.
func (h *HealthHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/v1/health", h.GetHealth)
}

func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.Status(http.StatusOK)
}
