package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tms-allocation-api/internal/handler"
	"github.com/noah-isme/tms-allocation-api/internal/middleware"
	"github.com/noah-isme/tms-allocation-api/internal/models"
	"github.com/noah-isme/tms-allocation-api/internal/repository"
	"github.com/noah-isme/tms-allocation-api/internal/service"
	"github.com/noah-isme/tms-allocation-api/pkg/cache"
	"github.com/noah-isme/tms-allocation-api/pkg/config"
	"github.com/noah-isme/tms-allocation-api/pkg/database"
	"github.com/noah-isme/tms-allocation-api/pkg/jobs"
	"github.com/noah-isme/tms-allocation-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/tms-allocation-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tms-allocation-api/pkg/middleware/requestid"
)

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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, continuing without feed cache", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	trainerRepo := repository.NewTrainerRepository(db)
	feedRepo := repository.NewFeedRepository(db)
	feedCache := repository.NewFeedCacheRepository(redisClient, cfg.Feed.CacheTTL, logr)
	institutionRepo := repository.NewInstitutionRepository(db)
	userRepo := repository.NewUserRepository(db)

	metricsSvc := service.NewMetricsService()
	feedSvc := service.NewFeedService(feedRepo, feedCache, logr)
	trainerSvc := service.NewTrainerService(trainerRepo, validate, logr)
	institutionSvc := service.NewInstitutionService(institutionRepo, validate, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "tms-allocation-api",
	})

	events := service.EventSinkFunc(func(event models.AllocationEvent) {
		logr.Debug("allocation event",
			zap.String("kind", string(event.Kind)),
			zap.String("session_id", event.SessionID),
			zap.String("command", event.Command),
			zap.String("reason", event.Reason))
	})

	allocationSvc := service.NewAllocationService(trainerSvc, feedSvc, institutionRepo, events, metricsSvc, validate, logr,
		service.AllocationServiceConfig{
			SessionTTL:       cfg.Allocation.SessionTTL,
			DefaultExclusion: service.ExclusionRule(cfg.Allocation.DefaultExclusion),
			DefaultProfile: models.InstitutionProfile{
				StartTime:  cfg.Workday.StartTime,
				EndTime:    cfg.Workday.EndTime,
				LunchStart: cfg.Workday.LunchStart,
				LunchEnd:   cfg.Workday.LunchEnd,
			},
		})
	submissionSvc := service.NewSubmissionService(allocationSvc, feedSvc, feedRepo, validate, logr)
	exportSvc := service.NewExportService(allocationSvc, nil, nil, logr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := feedSvc.Refresh(ctx); err != nil {
		logr.Sugar().Warnw("initial feed load failed, starting with empty feed", "error", err)
	}
	metricsSvc.SetFeedSize(len(feedSvc.Snapshot().Records))

	refreshQueue := jobs.NewQueue("feed-refresh", func(ctx context.Context, job jobs.Job) error {
		if err := feedSvc.Refresh(ctx); err != nil {
			return err
		}
		metricsSvc.SetFeedSize(len(feedSvc.Snapshot().Records))
		return nil
	}, jobs.QueueConfig{Workers: 1, Logger: logr})
	refreshQueue.Start(ctx)
	defer refreshQueue.Stop()
	refreshQueue.EnqueueEvery(cfg.Feed.RefreshInterval, jobs.Job{Type: "feed.refresh"})

	authHandler := handler.NewAuthHandler(authSvc)
	trainerHandler := handler.NewTrainerHandler(trainerSvc)
	institutionHandler := handler.NewInstitutionHandler(institutionSvc)
	allocationHandler := handler.NewAllocationHandler(allocationSvc, submissionSvc)
	feedHandler := handler.NewFeedHandler(feedSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	authed.GET("/auth/me", authHandler.Me)
	authed.GET("/stats", metricsHandler.Stats)

	authed.GET("/trainers", trainerHandler.List)
	authed.GET("/trainers/:id", trainerHandler.Get)
	authed.GET("/institutions", institutionHandler.List)
	authed.GET("/institutions/:id", institutionHandler.Get)

	admin := authed.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.POST("/trainers", trainerHandler.Create)
	admin.PUT("/trainers/:id", trainerHandler.Update)
	admin.DELETE("/trainers/:id", trainerHandler.Delete)
	admin.PUT("/feed", feedHandler.Replace)
	admin.PUT("/institutions", institutionHandler.Save)

	authed.GET("/feed", feedHandler.Snapshot)
	authed.POST("/feed/refresh", feedHandler.Refresh)

	editors := authed.Group("")
	editors.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator))
	editors.POST("/allocations", allocationHandler.Open)
	editors.GET("/allocations/:id", allocationHandler.Get)
	editors.POST("/allocations/:id/domains/select", allocationHandler.SelectDomain)
	editors.POST("/allocations/:id/domains/deselect", allocationHandler.DeselectDomain)
	editors.POST("/allocations/:id/batches", allocationHandler.AddBatch)
	editors.POST("/allocations/:id/batches/remove", allocationHandler.RemoveBatch)
	editors.PATCH("/allocations/:id/batches/students", allocationHandler.SetStudents)
	editors.PATCH("/allocations/:id/batches/hours", allocationHandler.SetHoursBudget)
	editors.POST("/allocations/:id/trainers", allocationHandler.AddTrainer)
	editors.POST("/allocations/:id/trainers/remove", allocationHandler.RemoveTrainer)
	editors.PATCH("/allocations/:id/trainers/field", allocationHandler.SetTrainerField)
	editors.PATCH("/allocations/:id/trainers/total-hours", allocationHandler.SetTrainerTotalHours)
	editors.PATCH("/allocations/:id/trainers/daily-hours", allocationHandler.SetTrainerDailyHours)
	editors.POST("/allocations/:id/merge", allocationHandler.Merge)
	editors.POST("/allocations/:id/merge/undo", allocationHandler.UndoMerge)
	editors.POST("/allocations/:id/swap", allocationHandler.Swap)
	editors.POST("/allocations/:id/validate", allocationHandler.Validate)
	editors.GET("/allocations/:id/report", allocationHandler.Report)
	editors.POST("/allocations/:id/submit", allocationHandler.Submit)
	editors.GET("/allocations/:id/export", exportHandler.Download)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
