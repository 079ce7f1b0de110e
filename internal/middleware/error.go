package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "papertrader/internal/errors"
	"papertrader/internal/logger"
)

// ErrorHandler renders the last error attached with c.Error. Bind errors
// become INVALID_INPUT; anything that is not an *AppError is reported as
// INTERNAL_ERROR without its details. Handlers that already wrote a
// response are left alone.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		last := c.Errors.Last()
		err := last.Err
		if last.IsType(gin.ErrorTypeBind) {
			err = apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}

		log := logger.Named("http")
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			log.Errorw("Unhandled error",
				"error", err.Error(),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)
			appErr = apperrors.ErrInternalServer
		} else if appErr.Internal != nil {
			log.Errorw("Request failed",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		abortWithError(c, appErr.StatusCode, appErr.Code, appErr.Message)
	}
}

// abortWithError writes the {"error": {"code", "message"}} envelope shared
// with the handlers package and stops the chain.
func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{
		"code":    code,
		"message": message,
	}})
}
