package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	_ "github.com/youthlaunch/microintern-api/api/swagger"
	"github.com/youthlaunch/microintern-api/internal/handler"
	"github.com/youthlaunch/microintern-api/internal/middleware"
	"github.com/youthlaunch/microintern-api/internal/repository"
	"github.com/youthlaunch/microintern-api/internal/service"
	"github.com/youthlaunch/microintern-api/pkg/cache"
	"github.com/youthlaunch/microintern-api/pkg/config"
	"github.com/youthlaunch/microintern-api/pkg/database"
	"github.com/youthlaunch/microintern-api/pkg/jobs"
	"github.com/youthlaunch/microintern-api/pkg/logger"
	corsmiddleware "github.com/youthlaunch/microintern-api/pkg/middleware/cors"
	reqidmiddleware "github.com/youthlaunch/microintern-api/pkg/middleware/requestid"
)

// @title MicroIntern API
// @version 1.0.0
// @description Youth micro-internship matching portal
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Catalog.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, catalog cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Catalog.CacheTTL, logr, cfg.Catalog.CacheEnabled && cacheRepo != nil)

	userRepo := repository.NewUserRepository(db)
	internshipRepo := repository.NewInternshipRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	deliveryQueue := jobs.NewQueue("notifications", service.NewDeliveryHandler(logr), jobs.QueueConfig{
		Workers:    cfg.Notifications.WorkerConcurrency,
		MaxRetries: cfg.Notifications.WorkerRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})
	deliveryQueue.Start(ctx)
	defer deliveryQueue.Stop()

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	notificationSvc := service.NewNotificationService(notificationRepo, deliveryQueue, metrics, logr)
	internshipSvc := service.NewInternshipService(internshipRepo, userRepo, cacheSvc, nil, logr)
	applicationSvc := service.NewApplicationService(applicationRepo, internshipRepo, userRepo, notificationSvc, metrics, nil, logr)
	progressSvc := service.NewProgressService(progressRepo, internshipRepo, applicationRepo, notificationSvc, metrics, nil, logr)
	exportSvc := service.NewExportService(applicationRepo, service.ExportConfig{
		Enabled: cfg.Exports.Enabled,
		MaxRows: cfg.Exports.MaxRows,
	}, logr, nil, nil)

	router := handler.NewRouter(
		handler.RouterConfig{APIPrefix: cfg.APIPrefix, EnableDocs: cfg.Env != config.EnvProduction},
		authSvc,
		handler.NewAuthHandler(authSvc),
		handler.NewInternshipHandler(internshipSvc),
		handler.NewApplicationHandler(applicationSvc, exportSvc),
		handler.NewTaskHandler(progressSvc),
		handler.NewNotificationHandler(notificationSvc),
		handler.NewMetricsHandler(metrics, db),
	)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(reqidmiddleware.Middleware())
	engine.Use(logger.GinMiddleware(logr))
	engine.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	engine.Use(middleware.Metrics(metrics))
	router.Register(engine)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "instance", uuid.NewString())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
