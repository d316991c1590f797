package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fidelizapp/fideliza-backend/internal/common/config"
	"github.com/fidelizapp/fideliza-backend/internal/common/crypto"
	"github.com/fidelizapp/fideliza-backend/internal/common/jwt"
	"github.com/fidelizapp/fideliza-backend/internal/common/metrics"
	"github.com/fidelizapp/fideliza-backend/internal/common/qrcode"
	adminHandler "github.com/fidelizapp/fideliza-backend/internal/handler/admin"
	authHandler "github.com/fidelizapp/fideliza-backend/internal/handler/auth"
	catalogHandler "github.com/fidelizapp/fideliza-backend/internal/handler/catalog"
	cronHandler "github.com/fidelizapp/fideliza-backend/internal/handler/cron"
	customerHandler "github.com/fidelizapp/fideliza-backend/internal/handler/customer"
	establishmentHandler "github.com/fidelizapp/fideliza-backend/internal/handler/establishment"
	featureHandler "github.com/fidelizapp/fideliza-backend/internal/handler/feature"
	loyaltyHandler "github.com/fidelizapp/fideliza-backend/internal/handler/loyalty"
	scheduleHandler "github.com/fidelizapp/fideliza-backend/internal/handler/schedule"
	transactionHandler "github.com/fidelizapp/fideliza-backend/internal/handler/transaction"
	"github.com/fidelizapp/fideliza-backend/internal/jobs"
	"github.com/fidelizapp/fideliza-backend/internal/middleware"
	adminService "github.com/fidelizapp/fideliza-backend/internal/service/admin"
	authService "github.com/fidelizapp/fideliza-backend/internal/service/auth"
	catalogService "github.com/fidelizapp/fideliza-backend/internal/service/catalog"
	customerService "github.com/fidelizapp/fideliza-backend/internal/service/customer"
	establishmentService "github.com/fidelizapp/fideliza-backend/internal/service/establishment"
	featureService "github.com/fidelizapp/fideliza-backend/internal/service/feature"
	loyaltyService "github.com/fidelizapp/fideliza-backend/internal/service/loyalty"
	notificationService "github.com/fidelizapp/fideliza-backend/internal/service/notification"
	scheduleService "github.com/fidelizapp/fideliza-backend/internal/service/schedule"
	transactionService "github.com/fidelizapp/fideliza-backend/internal/service/transaction"
	"github.com/fidelizapp/fideliza-backend/pkg/oss"
	"github.com/fidelizapp/fideliza-backend/pkg/whatsapp"
)

// setupRouter wires the services, handlers and middleware onto the engine and
// returns the job scheduler (nil when cron is disabled).
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	log *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
) *jobs.Scheduler {
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            cfg.JWT.Secret,
		AccessExpireTime:  cfg.JWT.AccessTokenDuration(),
		RefreshExpireTime: cfg.JWT.RefreshTokenDuration(),
		Issuer:            cfg.JWT.Issuer,
	})

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.Init("")
	}

	aes, err := crypto.NewAES(cfg.Crypto.AESKey)
	if err != nil {
		log.Fatal("Failed to init AES cipher", zap.Error(err))
	}

	// External clients. Both are optional: a nil uploader keeps cards inline
	// as data URLs and a nil sender disables outbound notifications.
	var uploader oss.Uploader
	if cfg.OSS.Enabled {
		uploader, err = oss.NewAliyunUploader(&oss.AliyunConfig{
			Endpoint:        cfg.OSS.Endpoint,
			AccessKeyID:     cfg.OSS.AccessKeyID,
			AccessKeySecret: cfg.OSS.AccessKeySecret,
			BucketName:      cfg.OSS.Bucket,
			Domain:          cfg.OSS.CustomDomain,
			BasePath:        cfg.OSS.UploadDir,
		})
		if err != nil {
			log.Fatal("Failed to init OSS uploader", zap.Error(err))
		}
	}

	var sender whatsapp.Sender
	switch cfg.WhatsApp.Provider {
	case "twilio":
		sender = whatsapp.NewTwilioSender(&whatsapp.TwilioConfig{
			AccountSID: cfg.WhatsApp.AccountSID,
			AuthToken:  cfg.WhatsApp.AuthToken,
			FromNumber: cfg.WhatsApp.FromNumber,
		})
	case "mock":
		sender = whatsapp.NewMockSender()
	}

	qr := qrcode.NewGenerator(qrcode.WithSize(cfg.Loyalty.CardImageSize))

	// Services.
	featureSvc := featureService.NewFeatureService(db, cfg.Loyalty.FeatureCacheTTLDuration(), m)
	loyaltySvc := loyaltyService.NewLoyaltyService(db, m, cfg.Loyalty.DefaultRewardValidityDays)
	cardSvc := loyaltyService.NewCardService(db, qr, uploader, cfg.Loyalty.StatusBaseURL)
	notificationSvc := notificationService.NewNotificationService(db, sender, featureSvc, m)
	authSvc := authService.NewAuthService(db, jwtManager, aes)
	establishmentSvc := establishmentService.NewEstablishmentService(db, uploader)
	customerSvc := customerService.NewCustomerService(db)
	catalogSvc := catalogService.NewCatalogService(db)
	transactionSvc := transactionService.NewTransactionService(db, loyaltySvc, cardSvc, m)
	exportSvc := transactionService.NewExportService(db, cfg.Loyalty.ExportRowsMax)
	scheduleSvc := scheduleService.NewScheduleService(db, loyaltySvc)
	adminSvc := adminService.NewAdminService(db)

	if err := featureSvc.Seed(context.Background()); err != nil {
		log.Fatal("Failed to seed feature flags", zap.Error(err))
	}

	runner := jobs.NewRunner(loyaltySvc, notificationSvc, adminSvc,
		time.Duration(cfg.Cron.ReminderHorizonHours)*time.Hour)

	// Handlers.
	authH := authHandler.NewHandler(authSvc)
	establishmentH := establishmentHandler.NewHandler(establishmentSvc, adminSvc)
	customerH := customerHandler.NewHandler(customerSvc)
	catalogH := catalogHandler.NewHandler(catalogSvc)
	loyaltyH := loyaltyHandler.NewHandler(loyaltySvc, cardSvc, adminSvc)
	transactionH := transactionHandler.NewHandler(transactionSvc, exportSvc, featureSvc, notificationSvc, adminSvc)
	scheduleH := scheduleHandler.NewHandler(scheduleSvc, featureSvc, notificationSvc)
	featureH := featureHandler.NewHandler(featureSvc)
	adminH := adminHandler.NewHandler(adminSvc)
	cronH := cronHandler.NewHandler(runner, cfg.Cron.Secret)

	// Global middleware.
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP())
	r.Use(middleware.SecureHeaders())
	r.Use(middleware.CORSWithOrigins(cfg.CORS.AllowedOrigins...))
	r.Use(middleware.Logging(middleware.DefaultLoggingConfig(log)))
	if m != nil {
		r.Use(m.Middleware())
	}

	// Health checks and operational endpoints.
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, redisClient))
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metrics.Handler())
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		limit := middleware.DefaultRateLimitConfig(redisClient)
		limit.Limit = cfg.RateLimit.RequestsPerMinute
		v1.Use(middleware.RateLimit(limit))
	}
	{
		// Public endpoints.
		public := v1.Group("")
		{
			authH.RegisterRoutes(public)

			// The card lookup is throttled per token so a printed QR code
			// cannot be used to hammer the API.
			card := public.Group("")
			card.Use(middleware.StatusLookupRateLimit(redisClient, 30, time.Minute))
			loyaltyH.RegisterPublicRoutes(card)
		}

		// Cron triggers guarded by the shared secret.
		cronH.RegisterRoutes(v1)

		// Tenant endpoints.
		tenant := v1.Group("")
		tenant.Use(middleware.UserAuth(jwtManager))
		{
			authH.RegisterProtectedRoutes(tenant)
			establishmentH.RegisterRoutes(tenant)
			customerH.RegisterRoutes(tenant)
			catalogH.RegisterRoutes(tenant)
			loyaltyH.RegisterRoutes(tenant)
			transactionH.RegisterRoutes(tenant)
			scheduleH.RegisterRoutes(tenant)
			featureH.RegisterRoutes(tenant)
		}
	}

	// Platform back-office.
	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminAuth(jwtManager))
	{
		adminH.RegisterRoutes(admin)
		featureH.RegisterAdminRoutes(admin)
	}

	if !cfg.Cron.Enabled {
		return nil
	}
	scheduler, err := jobs.NewScheduler(&cfg.Cron, runner)
	if err != nil {
		log.Fatal("Failed to init scheduler", zap.Error(err))
	}
	return scheduler
}
