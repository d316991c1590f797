package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fidelizapp/fideliza-backend/internal/common/response"
)

// ContextKeyRequestID is the context key for the request id.
const ContextKeyRequestID = "request_id"

// RequestID assigns a request id to every request.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(ContextKeyRequestID, requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

// GetRequestID returns the request id.
func GetRequestID(c *gin.Context) string {
	if requestID, exists := c.Get(ContextKeyRequestID); exists {
		return requestID.(string)
	}
	return ""
}

// Recovery recovers from panics and logs the stack.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				stack := string(debug.Stack())

				logger.Error("Panic recovered",
					zap.String("request_id", GetRequestID(c)),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.String("ip", c.ClientIP()),
					zap.Any("error", err),
					zap.String("stack", stack),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
					Code:    500,
					Message: "Erro interno do servidor",
				})
			}
		}()

		c.Next()
	}
}

// SecureHeaders sets common security headers.
func SecureHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		c.Next()
	}
}

// RealIP resolves the client address behind proxies.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		realIP := c.GetHeader("X-Real-IP")
		if realIP != "" {
			c.Request.RemoteAddr = realIP
		} else {
			xff := c.GetHeader("X-Forwarded-For")
			if xff != "" {
				// X-Forwarded-For format: client, proxy1, proxy2
				client := xff
				for i := 0; i < len(xff); i++ {
					if xff[i] == ',' {
						client = xff[:i]
						break
					}
				}
				c.Request.RemoteAddr = client
			}
		}

		c.Next()
	}
}

// RequestSizeLimiter rejects requests over maxSize bytes.
func RequestSizeLimiter(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			response.BadRequest(c, fmt.Sprintf("Corpo da requisição excede %d bytes", maxSize))
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// Timeout aborts requests slower than the given duration.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		done := make(chan struct{})

		go func() {
			c.Next()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(timeout):
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, response.Response{
				Code:    504,
				Message: "Tempo de requisição esgotado",
			})
		}
	}
}
