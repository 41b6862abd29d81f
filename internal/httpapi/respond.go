// Package httpapi holds the gin plumbing shared by every feature handler.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bluechain-mrv/backend/pkg/apperrors"
)

// RespondError writes err as {"error": message} with the status mapped from
// its kind. Server-side failures are logged at error level, client mistakes
// at debug.
func RespondError(c *gin.Context, logger *zap.Logger, err error) {
	status := apperrors.HTTPStatus(err)
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", fields...)
	} else {
		logger.Debug("Request rejected", fields...)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// BindJSON decodes the request body into dst, reporting a malformed body as
// a validation error.
func BindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperrors.Validation("body", "Invalid request body: "+err.Error())
	}
	return nil
}
