package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"papertrader/internal/logger"
)

// PipelineActor is the operator recorded for requests authenticated by the
// pipeline API key.
const PipelineActor = "pipeline"

// PipelineAuthMiddleware guards the scheduler endpoints with the X-API-Key
// header. An empty apiKey disables them entirely.
func PipelineAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			abortWithError(c, http.StatusServiceUnavailable, "PIPELINE_NOT_CONFIGURED", "Pipeline endpoints are not configured")
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			logger.Named("pipeline").Warnw("Rejected pipeline request",
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP(),
				"key_present", key != "",
			)
			abortWithError(c, http.StatusUnauthorized, "INVALID_API_KEY", "Invalid or missing API key")
			return
		}
		c.Set(OperatorKey, PipelineActor)
		c.Next()
	}
}
