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
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/danang-adp/timetable-api/api/swagger"
	"github.com/danang-adp/timetable-api/internal/handler"
	"github.com/danang-adp/timetable-api/internal/middleware"
	"github.com/danang-adp/timetable-api/internal/repository"
	"github.com/danang-adp/timetable-api/internal/service"
	"github.com/danang-adp/timetable-api/pkg/cache"
	"github.com/danang-adp/timetable-api/pkg/config"
	"github.com/danang-adp/timetable-api/pkg/database"
	"github.com/danang-adp/timetable-api/pkg/jobs"
	"github.com/danang-adp/timetable-api/pkg/logger"
	corsmiddleware "github.com/danang-adp/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/danang-adp/timetable-api/pkg/middleware/requestid"
	"github.com/danang-adp/timetable-api/pkg/storage"
)

// @title Timetable API
// @version 1.0.0
// @description Automatic school timetable generation, validation, and export service
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, timetable cache disabled", "error", err)
		redisClient = nil
	}

	schoolRepo := repository.NewSchoolRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	classSubjectRepo := repository.NewClassSubjectRepository(db)
	structureRepo := repository.NewStructureRepository(db)
	versionRepo := repository.NewTimetableVersionRepository(db)
	entryRepo := repository.NewTimetableEntryRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	validate := validator.New()
	metrics := service.NewMetricsService()
	solver := service.NewSolver(cfg.Scheduler.Seed, cfg.Scheduler.DailyCap, logr)

	generator := service.NewTimetableGeneratorService(
		schoolRepo,
		classRepo,
		subjectRepo,
		teacherRepo,
		classSubjectRepo,
		structureRepo,
		versionRepo,
		entryRepo,
		cacheRepo,
		solver,
		metrics,
		validate,
		logr,
		service.GeneratorConfig{VersionPrefix: cfg.Scheduler.VersionPrefix},
	)
	timetableValidator := service.NewTimetableValidatorService(entryRepo, classRepo, teacherRepo, classSubjectRepo, metrics, logr)
	optimizer := service.NewOptimizerService(entryRepo, classRepo, teacherRepo, subjectRepo, logr)
	timetable := service.NewTimetableService(entryRepo, versionRepo, cacheRepo, metrics, logr, service.TimetableServiceConfig{
		CacheTTL: cfg.Scheduler.TimetableTTL,
	})

	timetableHandler := handler.NewTimetableHandler(generator, timetableValidator, optimizer, timetable)
	metricsHandler := handler.NewMetricsHandler(metrics)

	var exportHandler *handler.ExportHandler
	if cfg.Exports.Enabled {
		localStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportJobRepo := repository.NewExportJobRepository(db)

		var exports *service.ExportService
		queue := jobs.NewQueue("timetable_exports", func(ctx context.Context, job jobs.Job) error {
			return exports.Process(ctx, job)
		}, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		exports = service.NewExportService(
			exportJobRepo,
			entryRepo,
			classRepo,
			subjectRepo,
			teacherRepo,
			queue,
			localStorage,
			signer,
			service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Exports.SignedURLTTL},
			logr,
			nil,
			nil,
		)
		queue.Start(ctx)
		defer queue.Stop()
		exports.StartCleanup(ctx, cfg.Exports.CleanupInterval)
		exportHandler = handler.NewExportHandler(exports)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))
	{
		api.POST("/timetable/generate", timetableHandler.Generate)
		api.GET("/timetable/validate", timetableHandler.Validate)
		api.GET("/timetable/suggestions", timetableHandler.Suggestions)
		api.GET("/timetable/active", timetableHandler.Active)
		api.GET("/timetable/versions", timetableHandler.Versions)

		if exportHandler != nil {
			api.POST("/timetable/export", exportHandler.Create)
			api.GET("/timetable/export/jobs/:id", exportHandler.Status)
			api.GET("/timetable/export/download/:token", exportHandler.Download)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
