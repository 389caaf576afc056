package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/markaz-dev/markaz-api/api/swagger"
	"github.com/markaz-dev/markaz-api/internal/handler"
	"github.com/markaz-dev/markaz-api/internal/middleware"
	"github.com/markaz-dev/markaz-api/internal/repository"
	"github.com/markaz-dev/markaz-api/internal/service"
	"github.com/markaz-dev/markaz-api/pkg/cache"
	"github.com/markaz-dev/markaz-api/pkg/clock"
	"github.com/markaz-dev/markaz-api/pkg/config"
	"github.com/markaz-dev/markaz-api/pkg/database"
	"github.com/markaz-dev/markaz-api/pkg/logger"
	corsmiddleware "github.com/markaz-dev/markaz-api/pkg/middleware/cors"
	reqidmiddleware "github.com/markaz-dev/markaz-api/pkg/middleware/requestid"
)

// @title Markaz API
// @version 1.0.0
// @description Education-center back office: enrollment, attendance, assessments, reports
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

	validate := validator.New()
	clk := clock.New(cfg.Reports.CivilDayOffset)
	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Reports.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Reports.CacheTTL, logr, true)
		}
	}

	learnerRepo := repository.NewLearnerRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	testRepo := repository.NewTestRepository(db)
	writtenRepo := repository.NewWrittenAssessmentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	pointsRepo := repository.NewPointsRepository(db)
	userRepo := repository.NewUserRepository(db)

	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	learnerSvc := service.NewLearnerService(learnerRepo, validate, logr)
	groupSvc := service.NewGroupService(groupRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, learnerRepo, groupRepo, validate, logr)
	sessionSvc := service.NewSessionService(sessionRepo, groupRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, sessionRepo, clk, cfg.Attendance, validate, logr)
	assessmentSvc := service.NewAssessmentService(testRepo, writtenRepo, assignmentRepo, validate, logr)
	pointsSvc := service.NewPointsService(pointsRepo, validate, logr)
	importSvc := service.NewImportService(learnerRepo, enrollmentSvc, assessmentSvc, metrics, cfg.Imports, logr)

	reportSvc := service.NewReportService(
		enrollmentRepo, attendanceRepo, testRepo, writtenRepo, assignmentRepo,
		sessionRepo, groupRepo, cacheSvc, clk, cfg.Reports, logr,
	)
	exportSvc := service.NewExportService(reportSvc, nil, nil, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Learners:    handler.NewLearnerHandler(learnerSvc, pointsSvc),
		Groups:      handler.NewGroupHandler(groupSvc),
		Enrollments: handler.NewEnrollmentHandler(enrollmentSvc),
		Sessions:    handler.NewSessionHandler(sessionSvc),
		Attendance:  handler.NewAttendanceHandler(attendanceSvc),
		Assessments: handler.NewAssessmentHandler(assessmentSvc),
		Reports:     handler.NewReportHandler(reportSvc, exportSvc),
		Imports:     handler.NewImportHandler(importSvc),
	}, authSvc)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
