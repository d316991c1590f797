// Package main is the application entrypoint.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fidelizapp/fideliza-backend/internal/common/cache"
	"github.com/fidelizapp/fideliza-backend/internal/common/config"
	"github.com/fidelizapp/fideliza-backend/internal/common/database"
	"github.com/fidelizapp/fideliza-backend/internal/common/logger"
	"github.com/fidelizapp/fideliza-backend/internal/common/tracing"
	"github.com/fidelizapp/fideliza-backend/internal/models"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.GetLogger()

	log.Info("Starting Fideliza Backend",
		zap.String("version", "1.0.0"),
		zap.String("env", cfg.Server.Mode),
	)

	db, err := database.Init(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	if err := migrate(db); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	redisClient, err := cache.Init(&cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Redis connected successfully")

	var tracer *tracing.Tracer
	if cfg.Tracing.Enabled {
		tracer, err = tracing.Init(&tracing.Config{
			Enabled:     cfg.Tracing.Enabled,
			ServiceName: cfg.Tracing.ServiceName,
			Endpoint:    cfg.Tracing.Endpoint,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			log.Fatal("Failed to init tracing", zap.Error(err))
		}
	}

	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.Server.Mode == "test" {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()

	scheduler := setupRouter(engine, cfg, log, db, redisClient)
	if scheduler != nil {
		scheduler.Start()
		log.Info("Scheduler started")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info("HTTP server starting",
			zap.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if scheduler != nil {
		scheduler.Stop()
	}

	if tracer != nil {
		if err := tracer.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown tracer", zap.Error(err))
		}
	}

	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}

	log.Info("Server exited")
}

// migrate keeps the schema in sync with the models.
func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Establishment{},
		&models.EstablishmentConfig{},
		&models.EstablishmentLog{},
		&models.Feature{},
		&models.EstablishmentFeature{},
		&models.User{},
		&models.Invitation{},
		&models.Customer{},
		&models.CustomerLoyalty{},
		&models.RewardRedemption{},
		&models.Transaction{},
		&models.TransactionItem{},
		&models.Service{},
		&models.Professional{},
	)
}
