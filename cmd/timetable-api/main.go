package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/veerhooda/campus-timetable-api/api/swagger"
	"github.com/veerhooda/campus-timetable-api/internal/handler"
	"github.com/veerhooda/campus-timetable-api/internal/middleware"
	"github.com/veerhooda/campus-timetable-api/internal/models"
	"github.com/veerhooda/campus-timetable-api/internal/repository"
	"github.com/veerhooda/campus-timetable-api/internal/service"
	"github.com/veerhooda/campus-timetable-api/pkg/cache"
	"github.com/veerhooda/campus-timetable-api/pkg/config"
	"github.com/veerhooda/campus-timetable-api/pkg/database"
	"github.com/veerhooda/campus-timetable-api/pkg/logger"
	corsmiddleware "github.com/veerhooda/campus-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/veerhooda/campus-timetable-api/pkg/middleware/requestid"
)

// @title Campus Timetable API
// @version 1.0.0
// @description Timetable slot allocation and conflict detection service
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

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, running without timetable cache", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	slotRepo := repository.NewSlotRepository(db)
	refRepo := repository.NewReferenceRepository(db)

	timetableSvc := newTimetableService(slotRepo, refRepo, cacheRepo, cfg, validate, logr, metricsSvc)
	referenceSvc := service.NewReferenceService(refRepo, logr)
	exportSvc := service.NewExportService(timetableSvc, logr)

	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	referenceHandler := handler.NewReferenceHandler(referenceSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
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

	api.GET("/classes", referenceHandler.ListClasses)
	api.GET("/subjects", referenceHandler.ListSubjects)
	api.GET("/teachers", referenceHandler.ListTeachers)
	api.GET("/rooms", referenceHandler.ListRooms)

	timetable := api.Group("/timetable")
	timetable.GET("", timetableHandler.List)
	timetable.GET("/class/:classId", timetableHandler.GetByClass)
	timetable.GET("/teacher/:teacherId", timetableHandler.GetByTeacher)
	if cfg.Exports.Enabled {
		timetable.GET("/class/:classId/export", exportHandler.ExportByClass)
	}

	admin := timetable.Group("")
	admin.Use(middleware.JWT(cfg.JWT.Secret), middleware.RequireRoles(models.RoleAdmin))
	admin.POST("", timetableHandler.Create)
	admin.PATCH("/:id", timetableHandler.Update)
	admin.DELETE("/:id", timetableHandler.Delete)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func newTimetableService(slotRepo *repository.SlotRepository, refRepo *repository.ReferenceRepository, cacheRepo *repository.CacheRepository, cfg *config.Config, validate *validator.Validate, logr *zap.Logger, metrics *service.MetricsService) *service.TimetableService {
	if cacheRepo == nil {
		return service.NewTimetableService(slotRepo, refRepo, nil, cfg.Cache.TimetableTTL, validate, logr, metrics)
	}
	return service.NewTimetableService(slotRepo, refRepo, cacheRepo, cfg.Cache.TimetableTTL, validate, logr, metrics)
}
