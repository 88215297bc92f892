package api

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/moltbook/api/internal/auth"
	"github.com/moltbook/api/internal/cache"
	"github.com/moltbook/api/pkg/logging"
)

const (
	headerRequestID  = "X-Request-ID"
	contextRequestID = "request_id"
)

// RequestID reuses the caller's X-Request-ID or generates one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(contextRequestID, requestID)
		c.Header(headerRequestID, requestID)
		c.Next()
	}
}

// Logger logs each request with zap, at a level chosen by status code
func Logger() gin.HandlerFunc {
	logger := logging.WithComponent("http")

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("status", status),
			zap.Int("response_size", c.Writer.Size()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		if id := c.GetString(contextRequestID); id != "" {
			fields = append(fields, zap.String("request_id", id))
		}
		if userID := auth.UserID(c); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("HTTP request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("HTTP request", fields...)
		default:
			logger.Info("HTTP request", fields...)
		}
	}
}

// Recovery turns panics into an opaque 500 and logs the stack
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				requestLogger(c).Error("Panic recovered",
					zap.String("panic", fmt.Sprint(rec)),
					zap.String("path", c.Request.URL.Path),
					zap.ByteString("stack", debug.Stack()))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong!"})
			}
		}()
		c.Next()
	}
}

// Tracing wraps otelgin and tags spans with the authenticated user
func Tracing(serviceName string) gin.HandlerFunc {
	base := otelgin.Middleware(serviceName)

	return func(c *gin.Context) {
		base(c)

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		if userID := auth.UserID(c); userID != "" {
			span.SetAttributes(attribute.String("user.id", userID))
		}
		if sort := c.Query("sort"); sort != "" {
			span.SetAttributes(attribute.String("feed.sort", sort))
		}
	}
}

// RateLimit allows limit requests per client IP per window, counted in the
// cache under scope. A zero limit disables it.
func RateLimit(store *cache.Cache, scope string, limit int, window time.Duration) gin.HandlerFunc {
	logger := logging.WithComponent("ratelimit")

	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%s", scope, c.ClientIP())
		n, err := store.Incr(key, window)
		if err != nil {
			// Fail open when the counter store is unavailable
			logger.Warn("Rate limit check failed", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}

		if n > int64(limit) {
			logger.Warn("Rate limit exceeded",
				zap.String("scope", scope),
				zap.String("client_ip", c.ClientIP()),
				zap.Int64("count", n))
			c.Header("Retry-After", fmt.Sprintf("%.0f", window.Seconds()))
			respondError(c, TooManyRequests("Too many requests, please try again later"), "")
			return
		}

		c.Next()
	}
}
