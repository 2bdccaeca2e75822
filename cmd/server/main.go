// Package main runs the camp card platform HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/SwipeSavdev/camp-card-sub005/config"
	"github.com/SwipeSavdev/camp-card-sub005/internal/abuse"
	"github.com/SwipeSavdev/camp-card-sub005/internal/auth"
	"github.com/SwipeSavdev/camp-card-sub005/internal/campaigns"
	"github.com/SwipeSavdev/camp-card-sub005/internal/consents"
	"github.com/SwipeSavdev/camp-card-sub005/internal/councils"
	"github.com/SwipeSavdev/camp-card-sub005/internal/leaderboard"
	"github.com/SwipeSavdev/camp-card-sub005/internal/merchants"
	"github.com/SwipeSavdev/camp-card-sub005/internal/middleware"
	"github.com/SwipeSavdev/camp-card-sub005/internal/notifications"
	"github.com/SwipeSavdev/camp-card-sub005/internal/offers"
	"github.com/SwipeSavdev/camp-card-sub005/internal/payments"
	"github.com/SwipeSavdev/camp-card-sub005/internal/realtime"
	"github.com/SwipeSavdev/camp-card-sub005/internal/redemptions"
	"github.com/SwipeSavdev/camp-card-sub005/internal/scans"
	"github.com/SwipeSavdev/camp-card-sub005/internal/scouts"
	"github.com/SwipeSavdev/camp-card-sub005/internal/subscriptions"
	"github.com/SwipeSavdev/camp-card-sub005/internal/troops"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/database"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/queue"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/redis"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/response"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			MediaBucket:          cfg.AWS.MediaBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Notifications (row + queue; worker binary delivers)
	notificationRepo := notifications.NewRepository(pool)
	notificationSvc := notifications.NewService(notificationRepo, jobQueue, logger)
	notificationHandler := notifications.NewHandler(notificationRepo)

	// Selling hierarchy
	councilRepo := councils.NewRepository(pool)
	councilHandler := councils.NewHandler(councilRepo)
	troopRepo := troops.NewRepository(pool)
	troopHandler := troops.NewHandler(troopRepo, councilRepo)
	scoutRepo := scouts.NewRepository(pool)

	// Parental consent
	consentRepo := consents.NewRepository(pool)
	consentSvc := consents.NewService(consentRepo, scoutRepo, notificationSvc, cfg.Consent, logger)
	consentHandler := consents.NewHandler(consentRepo, consentSvc)
	scoutHandler := scouts.NewHandler(scoutRepo, troopRepo, consentSvc)

	// Merchants and offers
	merchantRepo := merchants.NewRepository(pool)
	merchantHandler := merchants.NewHandler(merchantRepo, logger)
	offerRepo := offers.NewRepository(pool)
	redemptionRepo := redemptions.NewRepository(pool)
	checker := offers.NewChecker(offerRepo, redemptionRepo)
	offerHandler := offers.NewHandler(offerRepo, merchantRepo, checker, s3Client, logger)

	// Subscriptions and payments
	subscriptionRepo := subscriptions.NewRepository(pool)
	stripeClient := payments.NewClient(cfg.Stripe)
	paymentRepo := payments.NewRepository(pool)
	subscriptionHandler := subscriptions.NewHandler(subscriptionRepo, scoutRepo, stripeClient, paymentRepo, logger)
	stripeWebhook := payments.NewWebhookHandler(stripeClient, paymentRepo, subscriptionRepo, scoutRepo, notificationSvc, logger)

	// Redemptions and scanning
	redemptionHandler := redemptions.NewHandler(redemptionRepo, offerRepo, checker, merchantRepo,
		subscriptionRepo, notificationSvc, logger)
	scanRepo := scans.NewRepository(pool)
	evaluator := abuse.NewEvaluator(scanRepo, cfg.Abuse, logger)
	scanSvc := scans.NewService(scanRepo, redemptionRepo, offerRepo, evaluator, cfg.Abuse, logger)
	scanHandler := scans.NewHandler(scanSvc, scanRepo, merchantRepo)

	// Campaigns
	campaignRepo := campaigns.NewRepository(pool)
	campaignHandler := campaigns.NewHandler(campaignRepo, councilRepo, notificationSvc, s3Client, logger)

	// Leaderboard (REST + live broadcast)
	leaderboardRepo := leaderboard.NewRepository(pool)
	leaderboardHandler := leaderboard.NewHandler(leaderboardRepo)
	broadcaster := leaderboard.NewBroadcaster(leaderboardRepo, hub, 10*time.Second, logger)

	jwtValidate := func(token string) (string, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", err
		}
		return claims.UserID.String(), nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Public: plans, parental consent (token in URL is the credential)
	router.GET("/plans", subscriptionHandler.ListPlans)
	publicConsents := router.Group("/public/consents")
	{
		publicConsents.GET("/:token", consentHandler.Status)
		publicConsents.POST("/:token/approve", consentHandler.Approve)
		publicConsents.POST("/:token/decline", consentHandler.Decline)
	}

	// Webhooks (no JWT; signature validated in handler)
	router.POST("/webhooks/stripe", stripeWebhook.HandleStripeWebhook)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users (admin only)
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)

		// Councils
		api.GET("/councils", councilHandler.List)
		api.POST("/councils", middleware.RequireRole("admin"), councilHandler.Create)
		api.GET("/councils/:id", councilHandler.GetByID)
		api.PUT("/councils/:id", middleware.RequireRole("admin", "council"), councilHandler.Update)
		api.POST("/councils/:id/members", middleware.RequireRole("admin", "council"), councilHandler.AddMember)
		api.GET("/councils/:id/troops", troopHandler.ListByCouncil)
		api.GET("/councils/:id/campaigns", middleware.RequireRole("admin", "council"), campaignHandler.ListByCouncil)
		api.GET("/councils/:id/leaderboard", leaderboardHandler.Council)

		// Troops and scouts
		api.POST("/troops", middleware.RequireRole("admin", "council"), troopHandler.Create)
		api.GET("/troops/:id", troopHandler.GetByID)
		api.PUT("/troops/:id", middleware.RequireRole("admin", "council"), troopHandler.Update)
		api.GET("/troops/:id/scouts", middleware.RequireRole("admin", "council", "leader"), scoutHandler.ListByTroop)
		api.POST("/troops/:id/scouts", middleware.RequireRole("admin", "council", "leader"), scoutHandler.Enroll)
		api.GET("/troops/:id/leaderboard", leaderboardHandler.Troop)
		api.GET("/scouts/me", middleware.RequireRole("scout"), scoutHandler.GetMine)
		api.PUT("/scouts/:id/status", middleware.RequireRole("admin", "council", "leader"), scoutHandler.SetStatus)
		api.GET("/scouts/:id/consents", middleware.RequireRole("admin", "council", "leader"), consentHandler.ListByScout)

		// Merchants
		api.GET("/merchants", merchantHandler.List)
		api.POST("/merchants", middleware.RequireRole("merchant"), merchantHandler.Create)
		api.GET("/merchants/:id", merchantHandler.GetByID)
		api.PATCH("/merchants/:id", merchantHandler.Update)
		api.POST("/merchants/:id/locations", merchantHandler.AddLocation)
		api.GET("/merchants/:id/locations", merchantHandler.ListLocations)
		api.POST("/merchants/:id/offers", middleware.RequireRole("merchant", "admin"), offerHandler.Create)
		api.GET("/merchants/:id/offers", offerHandler.ListByMerchant)

		// Offers
		api.GET("/offers", offerHandler.ListActive)
		api.GET("/offers/:id", offerHandler.GetByID)
		api.PATCH("/offers/:id", middleware.RequireRole("merchant", "admin"), offerHandler.Update)
		api.PATCH("/offers/:id/status", middleware.RequireRole("merchant", "admin"), offerHandler.UpdateStatus)
		api.GET("/offers/:id/validity", offerHandler.CheckValidity)
		api.POST("/offers/:id/image", middleware.RequireRole("merchant", "admin"), offerHandler.UploadImage)
		api.GET("/offers/:id/image-url", offerHandler.ImageURL)

		// Subscriptions
		api.POST("/subscriptions", subscriptionHandler.Purchase)
		api.GET("/subscriptions", subscriptionHandler.ListMine)
		api.POST("/subscriptions/:id/cancel", subscriptionHandler.Cancel)
		api.GET("/subscriptions/:id/payments", stripeWebhook.ListBySubscription)

		// Redemptions (card holder side)
		api.POST("/redemptions", redemptionHandler.Initiate)
		api.GET("/redemptions", redemptionHandler.ListMine)
		api.GET("/redemptions/:id", redemptionHandler.GetByID)
		api.GET("/redemptions/:id/qr", redemptionHandler.QRCode)
		api.POST("/redemptions/:id/cancel", redemptionHandler.Cancel)

		// Merchant-side scanning and verification
		merchant := api.Group("/merchant", middleware.RequireRole("merchant"))
		{
			merchant.POST("/scans", scanHandler.Scan)
			merchant.GET("/redemptions", redemptionHandler.ListForMerchant)
			merchant.POST("/redemptions/verify", redemptionHandler.VerifyByCode)
			merchant.POST("/redemptions/:id/complete", redemptionHandler.Complete)
		}

		// Abuse review (admin)
		api.GET("/admin/scans/token/:token", middleware.RequireRole("admin"), scanHandler.History)

		// Campaigns
		api.POST("/campaigns", middleware.RequireRole("admin", "council"), campaignHandler.Create)
		api.GET("/campaigns/:id", middleware.RequireRole("admin", "council"), campaignHandler.GetByID)
		api.POST("/campaigns/:id/send", middleware.RequireRole("admin", "council"), campaignHandler.Send)
		api.POST("/campaigns/:id/media", middleware.RequireRole("admin", "council"), campaignHandler.UploadMedia)

		// Notifications
		api.GET("/notifications", notificationHandler.ListMine)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtValidate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Live leaderboard broadcast
	broadcastCtx, broadcastCancel := context.WithCancel(context.Background())
	defer broadcastCancel()
	go broadcaster.Run(broadcastCtx)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	broadcastCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
