package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/edukita/timetable-api/api/swagger"
	"github.com/edukita/timetable-api/internal/handler"
	"github.com/edukita/timetable-api/internal/middleware"
	"github.com/edukita/timetable-api/internal/repository"
	"github.com/edukita/timetable-api/internal/service"
	"github.com/edukita/timetable-api/pkg/cache"
	"github.com/edukita/timetable-api/pkg/config"
	"github.com/edukita/timetable-api/pkg/database"
	"github.com/edukita/timetable-api/pkg/logger"
	corsmiddleware "github.com/edukita/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edukita/timetable-api/pkg/middleware/requestid"
)

// @title Timetable API
// @version 1.0.0
// @description Automatic timetable generation service for school sections.
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

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close()
	}

	sessions := repository.NewSessionRepository(db)
	sections := repository.NewSectionRepository(db)
	subjects := repository.NewSubjectRepository(db)
	teachers := repository.NewTeacherRepository(db)
	curriculum := repository.NewCurriculumRepository(db)
	templates := repository.NewTemplateRepository(db)
	slots := repository.NewSlotAssignmentRepository(db)
	runs := repository.NewGenerationRunRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	timetableSvc := service.NewTimetableService(
		sessions, sections, templates, teachers, curriculum,
		slots, runs, cacheRepo, db, metricsSvc, nil, logr,
		service.TimetableConfig{
			BacktrackBudget: cfg.Generator.BacktrackBudget,
			LockTTL:         cfg.Generator.LockTTL,
			ViewCacheTTL:    cfg.Generator.ViewCacheTTL,
		},
	)
	exportSvc := service.NewExportService(
		sections, sessions, templates, teachers, subjects,
		slots, runs, nil, nil, logr,
	)

	timetableHandler := handler.NewTimetableHandler(timetableSvc, exportSvc)
	templateHandler := handler.NewTemplateHandler(templates)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))
	{
		api.GET("/templates", templateHandler.List)
		api.GET("/templates/:id", templateHandler.Get)

		api.GET("/sections/:id/timetable", timetableHandler.Get)
		api.GET("/sections/:id/timetable/runs", timetableHandler.Runs)
		api.GET("/sections/:id/timetable/export", timetableHandler.Export)
		api.PUT("/timetable/slots/:slotId/lock", timetableHandler.Lock)
		if cfg.Generator.Enabled {
			api.POST("/sections/:id/timetable/generate", timetableHandler.Generate)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting",
		zap.String("addr", addr),
		zap.String("env", cfg.Env),
		zap.Bool("generator_enabled", cfg.Generator.Enabled),
		zap.Int("backtrack_budget", cfg.Generator.BacktrackBudget),
	)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
