package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/fidelizapp/fideliza-backend/internal/common/response"
)

// RateLimitConfig configures the throttling middleware.
type RateLimitConfig struct {
	RedisClient *redis.Client
	KeyPrefix   string
	Limit       int
	Window      time.Duration
	KeyFunc     func(*gin.Context) string
}

// DefaultRateLimitConfig returns the default throttling settings.
func DefaultRateLimitConfig(redisClient *redis.Client) *RateLimitConfig {
	return &RateLimitConfig{
		RedisClient: redisClient,
		KeyPrefix:   "ratelimit:",
		Limit:       100,
		Window:      time.Minute,
	}
}

// RateLimit throttles requests with a Redis counter window.
func RateLimit(config *RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var key string
		if config.KeyFunc != nil {
			key = config.KeyFunc(c)
		} else {
			key = fmt.Sprintf("%s%s:%s", config.KeyPrefix, c.ClientIP(), c.Request.URL.Path)
		}

		ctx := context.Background()

		count, err := config.RedisClient.Incr(ctx, key).Result()
		if err != nil {
			// Redis failure must not block traffic.
			c.Next()
			return
		}

		if count == 1 {
			config.RedisClient.Expire(ctx, key, config.Window)
		}

		if int(count) > config.Limit {
			ttl, _ := config.RedisClient.TTL(ctx, key).Result()
			c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", config.Limit))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(ttl).Unix()))
			c.Header("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))

			response.TooManyRequests(c, "Muitas requisições. Tente novamente em instantes")
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", config.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", config.Limit-int(count)))

		c.Next()
	}
}

// IPRateLimit throttles by client address.
func IPRateLimit(redisClient *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	config := &RateLimitConfig{
		RedisClient: redisClient,
		KeyPrefix:   "ratelimit:ip:",
		Limit:       limit,
		Window:      window,
		KeyFunc: func(c *gin.Context) string {
			return fmt.Sprintf("ratelimit:ip:%s", c.ClientIP())
		},
	}
	return RateLimit(config)
}

// UserRateLimit throttles by authenticated user, falling back to the client address.
func UserRateLimit(redisClient *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	config := &RateLimitConfig{
		RedisClient: redisClient,
		KeyPrefix:   "ratelimit:user:",
		Limit:       limit,
		Window:      window,
		KeyFunc: func(c *gin.Context) string {
			userID := GetUserID(c)
			if userID > 0 {
				return fmt.Sprintf("ratelimit:user:%d", userID)
			}
			return fmt.Sprintf("ratelimit:ip:%s", c.ClientIP())
		},
	}
	return RateLimit(config)
}

// StatusLookupRateLimit throttles the public loyalty card lookup per token.
func StatusLookupRateLimit(redisClient *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	config := &RateLimitConfig{
		RedisClient: redisClient,
		KeyPrefix:   "ratelimit:status:",
		Limit:       limit,
		Window:      window,
		KeyFunc: func(c *gin.Context) string {
			token := c.Param("token")
			if token != "" {
				return fmt.Sprintf("ratelimit:status:%s", token)
			}
			return fmt.Sprintf("ratelimit:status:ip:%s", c.ClientIP())
		},
	}
	return RateLimit(config)
}
