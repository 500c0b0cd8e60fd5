// Package main runs the ticketing HTTP server with graceful shutdown.
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

	"github.com/gatecrest/backend/config"
	"github.com/gatecrest/backend/internal/auth"
	"github.com/gatecrest/backend/internal/checkers"
	"github.com/gatecrest/backend/internal/clock"
	"github.com/gatecrest/backend/internal/emaillogs"
	"github.com/gatecrest/backend/internal/events"
	"github.com/gatecrest/backend/internal/middleware"
	"github.com/gatecrest/backend/internal/payments"
	"github.com/gatecrest/backend/internal/tickets"
	"github.com/gatecrest/backend/internal/users"
	"github.com/gatecrest/backend/pkg/database"
	"github.com/gatecrest/backend/pkg/queue"
	"github.com/gatecrest/backend/pkg/redis"
	"github.com/gatecrest/backend/pkg/response"
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

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	systemClock := clock.NewSystem()

	// Users (read-only; accounts are provisioned by the identity service)
	userRepo := users.NewRepository(pool)

	// Events
	eventRepo := events.NewRepository(pool)

	// Checkers
	checkerRepo := checkers.NewRepository(pool)
	checkerSvc := checkers.NewService(checkerRepo, eventRepo, userRepo)
	checkerHandler := checkers.NewHandler(checkerSvc)

	// Tickets (issuance, reconciliation, check-in)
	ticketRepo := tickets.NewRepository(pool)
	ticketSvc := tickets.NewService(ticketRepo, eventRepo, userRepo, checkerRepo, systemClock, jobQueue, logger)
	ticketHandler := tickets.NewHandler(ticketSvc, logger)

	eventHandler := events.NewHandler(eventRepo, ticketSvc)

	// Payments webhook
	paymentWebhook := payments.NewWebhookHandler(ticketSvc, logger)

	// Email logs
	emailLogRepo := emaillogs.NewRepository(pool)
	emailLogHandler := emaillogs.NewHandler(emailLogRepo, eventRepo)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public reads
	router.GET("/events/:id", eventHandler.GetByID)
	router.GET("/events/:id/availability", eventHandler.Availability)

	// Webhooks (no JWT; the gateway is authenticated upstream)
	router.POST("/webhooks/payments", paymentWebhook.HandleEvent)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Events
		api.GET("/events", eventHandler.List)
		api.POST("/events", middleware.RequireRole("organizer", "admin"), eventHandler.Create)
		api.PATCH("/events/:id/status", eventHandler.UpdateStatus)

		// Tickets
		api.POST("/events/:id/tickets", ticketHandler.Register)
		api.GET("/events/:id/tickets/me", ticketHandler.My)
		api.GET("/tickets/mine", ticketHandler.Mine)
		api.POST("/events/:id/tickets/email", ticketHandler.ResendEmail)

		// Check-in
		api.POST("/tickets/verify/validate", ticketHandler.Validate)
		api.POST("/tickets/verify/consume", ticketHandler.Consume)
		api.POST("/events/:id/tickets/verify", ticketHandler.VerifyAndUse)

		// Checkers
		api.GET("/events/:id/checkers", checkerHandler.ListByEvent)
		api.POST("/events/:id/checkers", checkerHandler.Assign)
		api.DELETE("/events/:id/checkers", checkerHandler.RevokeByEmail)
		api.DELETE("/events/:id/checkers/:userId", checkerHandler.Revoke)
		api.GET("/events/:id/checkers/me", checkerHandler.AmIChecker)
		api.GET("/checkers/mine", checkerHandler.Mine)

		// Email logs
		api.GET("/events/:id/emails", emailLogHandler.ListByEvent)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

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
