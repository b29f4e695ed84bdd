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

	_ "github.com/noah-isme/uni-portal-api/api/swagger"
	"github.com/noah-isme/uni-portal-api/internal/handler"
	"github.com/noah-isme/uni-portal-api/internal/middleware"
	"github.com/noah-isme/uni-portal-api/internal/models"
	"github.com/noah-isme/uni-portal-api/internal/repository"
	"github.com/noah-isme/uni-portal-api/internal/service"
	"github.com/noah-isme/uni-portal-api/pkg/cache"
	"github.com/noah-isme/uni-portal-api/pkg/config"
	"github.com/noah-isme/uni-portal-api/pkg/database"
	"github.com/noah-isme/uni-portal-api/pkg/export"
	"github.com/noah-isme/uni-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/uni-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/uni-portal-api/pkg/middleware/requestid"
)

// @title University Portal API
// @version 1.0.0
// @description Academic record engine: summaries, course grades and transcript requests
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
		// Summaries degrade to uncached reads without Redis.
		logr.Sugar().Warnw("redis unavailable, summary caching disabled", "error", err)
		redisClient = nil
	}

	scale, err := service.NewGradeScale(cfg.GradeScale)
	if err != nil {
		logr.Sugar().Fatalw("invalid grade scale", "error", err)
	}

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	transcriptRepo := repository.NewTranscriptRequestRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	validate := validator.New()
	metrics := service.NewMetricsService()

	auditor := service.NewAsyncAuditor(userRepo, logr)
	auditor.Start(context.Background())
	defer auditor.Stop()

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "uni-portal-api",
		Audience:           []string{"uni-portal"},
	})
	gradeService := service.NewCourseGradeService(scoreRepo, scale, logr)
	summaryService := service.NewSummaryService(enrollmentRepo, courseRepo, gradeService, cacheRepo, cfg.Summaries.CacheTTL, metrics, logr)
	snapshotService := service.NewSnapshotService(studentRepo, summaryService, scoreRepo, metrics, logr)
	transcriptService := service.NewTranscriptService(transcriptRepo, snapshotService, auditor, cfg.Transcripts.AllowDuplicatePending, logr)
	studentService := service.NewStudentService(studentRepo, enrollmentRepo, summaryService, logr)
	exportService := service.NewExportService(transcriptService, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	authHandler := handler.NewAuthHandler(authService)
	studentHandler := handler.NewStudentHandler(studentService)
	transcriptHandler := handler.NewTranscriptHandler(transcriptService, exportService)
	metricsHandler := handler.NewMetricsHandler(metrics)

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
		if err := db.Ping(); err != nil {
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

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.GET("/me", middleware.JWT(authService), authHandler.Me)

	students := api.Group("/students", middleware.JWT(authService))
	students.GET("/:id/academic-summary",
		middleware.RBAC(string(models.RoleStaff), string(models.RoleProfessor), "SELF"),
		studentHandler.AcademicSummary)
	students.GET("/:id/enrollments",
		middleware.RBAC(string(models.RoleStaff), string(models.RoleProfessor), "SELF"),
		studentHandler.Enrollments)

	transcripts := api.Group("/transcript-requests", middleware.JWT(authService))
	transcripts.POST("",
		middleware.RequireRoles(models.RoleStudent),
		transcriptHandler.Create)
	transcripts.GET("", transcriptHandler.List)
	transcripts.GET("/:id", transcriptHandler.Get)
	transcripts.PUT("/:id/approve",
		middleware.RequireRoles(models.RoleStaff),
		transcriptHandler.Approve)
	transcripts.PUT("/:id/reject",
		middleware.RequireRoles(models.RoleStaff),
		transcriptHandler.Reject)
	exportAudit := middleware.Audit(userRepo, models.AuditActionTranscriptExport, "transcript_request")
	transcripts.GET("/:id/pdf", exportAudit, transcriptHandler.ExportPDF)
	transcripts.GET("/:id/csv", exportAudit, transcriptHandler.ExportCSV)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
