package middleware

import (
	"bytes"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoggingConfig configures the request logging middleware.
type LoggingConfig struct {
	Logger          *zap.Logger
	SkipPaths       []string
	SkipHealthCheck bool
	LogRequestBody  bool
	MaxBodySize     int
}

// DefaultLoggingConfig returns sane logging defaults.
func DefaultLoggingConfig(logger *zap.Logger) *LoggingConfig {
	return &LoggingConfig{
		Logger:          logger,
		SkipPaths:       []string{},
		SkipHealthCheck: true,
		LogRequestBody:  false,
		MaxBodySize:     1024,
	}
}

// Logging logs every HTTP request.
func Logging(config *LoggingConfig) gin.HandlerFunc {
	skipPaths := make(map[string]struct{})
	for _, path := range config.SkipPaths {
		skipPaths[path] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if _, ok := skipPaths[path]; ok {
			c.Next()
			return
		}

		if config.SkipHealthCheck && (path == "/health" || path == "/ping" || path == "/ready") {
			c.Next()
			return
		}

		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = c.GetString(ContextKeyRequestID)
		}

		var requestBody string
		if config.LogRequestBody && c.Request.Body != nil {
			bodyBytes, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			if len(bodyBytes) > 0 {
				if len(bodyBytes) > config.MaxBodySize {
					requestBody = string(bodyBytes[:config.MaxBodySize]) + "...(truncated)"
				} else {
					requestBody = string(bodyBytes)
				}
			}
		}

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", statusCode),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		}

		if userID := GetUserID(c); userID > 0 {
			fields = append(fields, zap.Int64("user_id", userID))
		}
		if establishmentID := GetEstablishmentID(c); establishmentID > 0 {
			fields = append(fields, zap.Int64("establishment_id", establishmentID))
		}

		if requestBody != "" {
			fields = append(fields, zap.String("request_body", requestBody))
		}

		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case statusCode >= 500:
			config.Logger.Error("HTTP Request", fields...)
		case statusCode >= 400:
			config.Logger.Warn("HTTP Request", fields...)
		default:
			config.Logger.Info("HTTP Request", fields...)
		}
	}
}

// AccessLog is the default request logging middleware.
func AccessLog(logger *zap.Logger) gin.HandlerFunc {
	return Logging(DefaultLoggingConfig(logger))
}
