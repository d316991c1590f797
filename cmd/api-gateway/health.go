package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// healthHandler reports liveness.
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

// pingHandler answers pong.
func pingHandler(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

// readyHandler reports readiness by probing the backing services.
func readyHandler(db *gorm.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := make(map[string]interface{})
		allHealthy := true

		dbStatus := "ok"
		sqlDB, err := db.DB()
		if err != nil {
			dbStatus = "error: " + err.Error()
			allHealthy = false
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := sqlDB.PingContext(ctx); err != nil {
				dbStatus = "error: " + err.Error()
				allHealthy = false
			}
		}
		checks["database"] = dbStatus

		redisStatus := "ok"
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if _, err := redisClient.Ping(ctx).Result(); err != nil {
			redisStatus = "error: " + err.Error()
			allHealthy = false
		}
		checks["redis"] = redisStatus

		status := http.StatusOK
		statusText := "ready"
		if !allHealthy {
			status = http.StatusServiceUnavailable
			statusText = "not ready"
		}

		c.JSON(status, gin.H{
			"status":    statusText,
			"timestamp": time.Now().Unix(),
			"checks":    checks,
		})
	}
}
