package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/opsline/training-assign-api/api/swagger"
	"github.com/opsline/training-assign-api/internal/handler"
	"github.com/opsline/training-assign-api/internal/middleware"
	"github.com/opsline/training-assign-api/internal/repository"
	"github.com/opsline/training-assign-api/internal/service"
	"github.com/opsline/training-assign-api/pkg/cache"
	"github.com/opsline/training-assign-api/pkg/config"
	"github.com/opsline/training-assign-api/pkg/database"
	"github.com/opsline/training-assign-api/pkg/jobs"
	"github.com/opsline/training-assign-api/pkg/logger"
	corsmiddleware "github.com/opsline/training-assign-api/pkg/middleware/cors"
	reqidmiddleware "github.com/opsline/training-assign-api/pkg/middleware/requestid"
)

// @title Training Assignment API
// @version 1.0.0
// @description Training assignment engine: categorization, manual and automatic session placement
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The engine works without a cache, snapshots are just recomputed.
		logr.Sugar().Warnw("redis unavailable, category caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	assignmentRepo := repository.NewAssignmentRepository(db)
	traineeRepo := repository.NewTraineeRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	requirementRepo := repository.NewRequirementRepository(db)
	trainerRepo := repository.NewTrainerRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	categorySvc := service.NewCategoryService(
		traineeRepo, catalogRepo, requirementRepo, assignmentRepo,
		cacheRepo, cfg.Categories.CacheTTL, cfg.Assign.DefaultGroupCapacity, logr)
	assignmentSvc := service.NewAssignmentService(
		assignmentRepo, traineeRepo, catalogRepo, requirementRepo,
		categorySvc, metricsSvc, validate, logr, cfg.Assign.DefaultGroupCapacity)
	autoAssignSvc := service.NewAutoAssignService(
		assignmentRepo, traineeRepo, catalogRepo, requirementRepo,
		categorySvc, metricsSvc, logr,
		cfg.Assign.DefaultGroupCapacity, cfg.Assign.MaxGroupNumber, cfg.AutoAssign.RunTTL)
	trainerSvc := service.NewTrainerService(trainerRepo, catalogRepo, validate, logr, cfg.Assign.DefaultGroupCapacity)

	queue := jobs.NewQueue("auto_assign", autoAssignSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.AutoAssign.Workers,
		MaxRetries: cfg.AutoAssign.MaxRetries,
		Logger:     logr,
	})
	autoAssignSvc.AttachQueue(queue)
	queue.Start(context.Background())
	defer queue.Stop()

	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	categoryHandler := handler.NewCategoryHandler(categorySvc)
	autoAssignHandler := handler.NewAutoAssignHandler(autoAssignSvc)
	trainerHandler := handler.NewTrainerHandler(trainerSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		schedules := api.Group("/schedules/:scheduleID")
		schedules.GET("/categories", categoryHandler.Snapshot)
		schedules.POST("/assignments", assignmentHandler.Assign)
		schedules.POST("/assignments/bulk", assignmentHandler.AssignBulk)
		schedules.DELETE("/assignments/group", assignmentHandler.RemoveGroup)
		schedules.DELETE("/assignments/course", assignmentHandler.RemoveCourse)
		schedules.GET("/assignments/count", assignmentHandler.Count)
		schedules.GET("/trainees/:traineeID/assignments", assignmentHandler.ListForTrainee)
		schedules.DELETE("/assignments", assignmentHandler.Reset)
		schedules.POST("/auto-assign", autoAssignHandler.Start)

		api.GET("/auto-assign/runs/:runID", autoAssignHandler.Status)

		if cfg.Trainers.Enabled {
			trainers := api.Group("/trainers/:id")
			trainers.POST("/sessions", trainerHandler.AssignSessions)
			trainers.GET("/sessions", trainerHandler.ListSessions)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
