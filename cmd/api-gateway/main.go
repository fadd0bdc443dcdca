package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/learn-coach-api/api/swagger"
	"github.com/noah-isme/learn-coach-api/internal/ai"
	"github.com/noah-isme/learn-coach-api/internal/handler"
	"github.com/noah-isme/learn-coach-api/internal/middleware"
	"github.com/noah-isme/learn-coach-api/internal/repository"
	"github.com/noah-isme/learn-coach-api/internal/service"
	"github.com/noah-isme/learn-coach-api/pkg/cache"
	"github.com/noah-isme/learn-coach-api/pkg/config"
	"github.com/noah-isme/learn-coach-api/pkg/database"
	"github.com/noah-isme/learn-coach-api/pkg/jobs"
	"github.com/noah-isme/learn-coach-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/learn-coach-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/learn-coach-api/pkg/middleware/requestid"
	"github.com/noah-isme/learn-coach-api/pkg/storage"
)

// @title Learn Coach API
// @version 0.1.0
// @description AI-assisted learning coach decision core
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Views.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, view cache disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Views.CacheTTL, logr, true)
			defer cacheRepo.Close()
		}
	}

	aiClient := ai.NewHTTPClient(cfg.AI, logr)

	topicRepo := repository.NewTopicRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)

	authSvc := service.NewAuthService(studentRepo, nil, logr, cfg.JWT)
	pathSvc := service.NewPathService(topicRepo, aiClient, nil, logr)
	matcher := service.NewTopicMatcher(cfg.Coach.FuzzyMatchThreshold)
	scorer := service.NewEffectivenessScorer(aiClient, logr)
	ledger := service.NewProgressService(progressRepo, sessionRepo, assessmentRepo, cfg.Coach.CompletionThreshold, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, nil, cfg.Coach.SlotMinutes, logr)
	recommender := service.NewRecommendationService(aiClient, cfg.Coach.StruggleThreshold, cfg.Coach.StruggleRepeats, cfg.Coach.AccelerateThreshold, logr)
	coachSvc := service.NewCoachService(pathSvc, matcher, scorer, ledger, scheduleSvc, recommender,
		sessionRepo, assessmentRepo, cacheSvc, metricsSvc, nil, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	pathHandler := handler.NewPathHandler(coachSvc)
	sessionHandler := handler.NewSessionHandler(coachSvc)
	progressHandler := handler.NewProgressHandler(coachSvc)
	scheduleHandler := handler.NewScheduleHandler(coachSvc)
	recommendationHandler := handler.NewRecommendationHandler(coachSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	var reportHandler *handler.ReportHandler
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportRepo := repository.NewReportRepository(db)
		exportSvc := service.NewExportService(pathSvc, ledger, sessionRepo, store, signer,
			service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Reports.SignedURLTTL}, logr, nil, nil)
		worker := service.NewReportWorker(reportRepo, exportSvc, metricsSvc, cfg.Reports.WorkerRetries, logr)
		queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()

		reportSvc := service.NewReportService(reportRepo, queue, exportSvc, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)
		reportHandler = handler.NewReportHandler(reportSvc, logr)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	if reportHandler != nil {
		api.GET("/export/:token", reportHandler.DownloadReport)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	protected.GET("/auth/me", authHandler.Me)
	protected.POST("/paths", pathHandler.Create)
	protected.GET("/paths", pathHandler.Active)
	protected.POST("/paths/regenerate", pathHandler.Regenerate)
	protected.POST("/sessions", sessionHandler.Log)
	protected.GET("/sessions", sessionHandler.List)
	protected.POST("/assessments", sessionHandler.LogAssessment)
	protected.GET("/progress", progressHandler.View)
	protected.POST("/progress/:topicId/complete", progressHandler.Complete)
	protected.POST("/progress/:topicId/reset", progressHandler.Reset)
	protected.GET("/schedule", scheduleHandler.Current)
	protected.PUT("/schedule/preferences", scheduleHandler.UpdatePreferences)
	protected.GET("/recommendations", recommendationHandler.Get)
	if reportHandler != nil {
		protected.POST("/reports", reportHandler.GenerateReport)
		protected.GET("/reports/:id", reportHandler.ReportStatus)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		logr.Sugar().Warnw("shutdown error", "error", err)
	}
}
