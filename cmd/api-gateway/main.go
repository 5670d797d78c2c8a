package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/tutorhub/tutorhub-api/api/swagger"
	"github.com/tutorhub/tutorhub-api/internal/handler"
	"github.com/tutorhub/tutorhub-api/internal/middleware"
	"github.com/tutorhub/tutorhub-api/internal/repository"
	"github.com/tutorhub/tutorhub-api/internal/service"
	"github.com/tutorhub/tutorhub-api/pkg/cache"
	"github.com/tutorhub/tutorhub-api/pkg/config"
	"github.com/tutorhub/tutorhub-api/pkg/database"
	"github.com/tutorhub/tutorhub-api/pkg/logger"
	corsmiddleware "github.com/tutorhub/tutorhub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tutorhub/tutorhub-api/pkg/middleware/requestid"
	"github.com/tutorhub/tutorhub-api/pkg/storage"
)

// @title TutorHub API
// @version 1.0.0
// @description Admin moderation backend for the TutorHub tutoring marketplace
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	users := repository.NewUserRepository(db)
	courses := repository.NewCourseRepository(db)
	payments := repository.NewPaymentRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	payouts := repository.NewPayoutRepository(db)
	sessions := repository.NewSessionRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(users, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(users, cacheRepo, nil, logr)
	courseSvc := service.NewCourseService(courses, users, cacheRepo, nil, logr)
	paymentSvc := service.NewPaymentService(payments, users, cacheRepo, nil, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollments, users, cacheRepo, logr)
	payoutSvc := service.NewPayoutService(payouts, users, cacheRepo, nil, logr)
	sessionSvc := service.NewSessionService(sessions, users, cacheRepo, nil, logr)

	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	uploadSigner := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)
	uploadSvc := service.NewUploadService(payments, uploadStore, uploadSigner, service.UploadConfig{
		MaxFileSizeBytes: cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs:     cfg.Uploads.AllowedMIMEs,
	}, logr)

	var reportSvc *service.ReportService
	if cfg.Reports.Enabled {
		reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		reportSigner := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportSvc = service.NewReportService(payments, reportStore, reportSigner, service.ReportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, nil, logr)
		reportSvc.Start(context.Background())
		defer reportSvc.Stop()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	handler.RegisterRoutes(r, handler.RouterDeps{
		Config:         cfg,
		Auth:           handler.NewAuthHandler(authSvc),
		Admin:          handler.NewAdminHandler(userSvc, metricsSvc),
		Courses:        handler.NewCourseHandler(courseSvc, metricsSvc),
		Payments:       handler.NewPaymentHandler(paymentSvc, uploadSvc, metricsSvc),
		Enrollments:    handler.NewEnrollmentHandler(enrollmentSvc, metricsSvc),
		Payouts:        handler.NewPayoutHandler(payoutSvc, metricsSvc),
		Sessions:       handler.NewSessionHandler(sessionSvc, metricsSvc),
		Reports:        handler.NewReportHandler(reportSvc),
		Metrics:        handler.NewMetricsHandler(metricsSvc),
		AuthService:    authSvc,
		MetricsService: metricsSvc,
		Cache:          cacheRepo,
		Audits:         users,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
