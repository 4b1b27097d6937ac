package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zots0127/vidstore/internal/observability"
	"github.com/zots0127/vidstore/internal/usecase"
)

// NewRouter assembles the gin engine: request logging, panic recovery, the
// landing page, metrics, and the versioned file API.
func NewRouter(ingestor *usecase.Ingestor, metrics *observability.Metrics, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(logger), gin.Recovery())

	router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexPage))
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	NewHealthHandler().RegisterRoutes(router)
	NewFileHandler(ingestor, metrics, logger).RegisterRoutes(router)

	return router
}

// RequestLogger logs one line per request. Health and metrics probes are
// skipped to keep the log readable.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/v1/health" || path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
