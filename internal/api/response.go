package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/moltbook/api/pkg/logging"
)

// respondError writes err as {"message": ...}. Errors that are not *Error
// are logged and replaced by a 500 with the fallback message.
func respondError(c *gin.Context, err error, fallback string) {
	logger := requestLogger(c)

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		logger.Error(fallback,
			zap.String("path", c.FullPath()),
			zap.Error(err))
		apiErr = Internal(fallback)
	} else if apiErr.Status >= http.StatusInternalServerError {
		logger.Error(apiErr.Message, zap.String("path", c.FullPath()))
	} else {
		logger.Warn(apiErr.Message,
			zap.String("path", c.FullPath()),
			zap.Int("status", apiErr.Status))
	}

	c.AbortWithStatusJSON(apiErr.Status, gin.H{"message": apiErr.Message})
}

// respond writes a success envelope: {"success": true, ...fields}
func respond(c *gin.Context, status int, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(status, body)
}

// bindJSON decodes the request body, mapping decode failures to 400
func bindJSON(c *gin.Context, dest interface{}) error {
	if err := c.ShouldBindJSON(dest); err != nil {
		return BadRequest("Invalid request body")
	}
	return nil
}

func requestLogger(c *gin.Context) *zap.Logger {
	if id := c.GetString(contextRequestID); id != "" {
		return logging.WithRequestID(id)
	}
	return logging.GetLogger()
}
