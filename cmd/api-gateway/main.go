package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/campuskit/college-admin-api/internal/handler"
	"github.com/campuskit/college-admin-api/internal/middleware"
	"github.com/campuskit/college-admin-api/internal/models"
	"github.com/campuskit/college-admin-api/internal/repository"
	"github.com/campuskit/college-admin-api/internal/service"
	"github.com/campuskit/college-admin-api/pkg/cache"
	"github.com/campuskit/college-admin-api/pkg/config"
	"github.com/campuskit/college-admin-api/pkg/database"
	"github.com/campuskit/college-admin-api/pkg/export"
	"github.com/campuskit/college-admin-api/pkg/jobs"
	"github.com/campuskit/college-admin-api/pkg/logger"
	corsmiddleware "github.com/campuskit/college-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campuskit/college-admin-api/pkg/middleware/requestid"
	"github.com/campuskit/college-admin-api/pkg/storage"
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
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	courseRepo := repository.NewProgramCourseRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	verificationRepo := repository.NewVerificationRepository(redisClient, cfg.Verification.CodeTTL)

	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, verificationRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "college-admin-api",
	})
	approvalSvc := service.NewApprovalService(gradeRepo, assignmentRepo, courseRepo, validate, logr)
	paymentSvc := service.NewPaymentService(enrollmentRepo, paymentRepo, documentRepo, validate, logr, cfg.Payments.ReferencePrefix)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, courseRepo, userRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, validate, logr, cfg.Enrollment.TuitionPerUnit)
	gradeSvc := service.NewGradeService(gradeRepo, assignmentRepo, studentRepo, validate, logr)
	dashboardSvc := service.NewDashboardService(dashboardRepo, redisClient, metricsSvc, logr, cfg.Dashboard.CacheTTL)

	var documentSvc *service.DocumentService
	renderQueue := jobs.NewQueue("documents", func(ctx context.Context, job jobs.Job) error {
		return documentSvc.HandleRenderJob(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Documents.WorkerConcurrency,
		MaxRetries: cfg.Documents.WorkerRetries,
		Logger:     logr,
	})
	renderer := export.NewPDFRenderer("CampusKit College")
	documentStore, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init document storage", "error", err)
	}
	downloadSigner := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)
	documentSvc = service.NewDocumentService(documentRepo, studentRepo, enrollmentRepo, gradeRepo, renderer, renderQueue, metricsSvc, validate, logr, documentStore, downloadSigner, cfg.APIPrefix)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	renderQueue.Start(ctx)
	defer renderQueue.Stop()
	documentSvc.StartCleanup(ctx, cfg.Documents.CleanupInterval, cfg.Documents.RetentionTTL)

	authHandler := handler.NewAuthHandler(authSvc)
	approvalHandler := handler.NewApprovalHandler(approvalSvc, metricsSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, documentSvc, metricsSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, metricsSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	documentHandler := handler.NewDocumentHandler(documentSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	auditHandler := handler.NewAuditHandler(auditRepo)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(corsmiddleware.Config{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedHeaders: cfg.CORS.AllowedHeaders,
	}))
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

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/request-code", authHandler.RequestVerificationCode)
	auth.POST("/verify-code", authHandler.VerifyCode)

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))

	secured.POST("/auth/logout", authHandler.Logout)
	secured.POST("/auth/change-password", authHandler.ChangePassword)

	secured.POST("/enrollments",
		middleware.RequireRoles(models.RoleStudent, models.RoleRegistrar, models.RoleAdmin),
		enrollmentHandler.Register)
	secured.GET("/enrollments",
		middleware.RequireRoles(models.RoleRegistrar, models.RoleFinance, models.RoleAdmin),
		enrollmentHandler.List)
	secured.GET("/enrollments/me",
		middleware.RequireRoles(models.RoleStudent),
		enrollmentHandler.ListMine)
	secured.PATCH("/enrollments/:id/status",
		middleware.RequireRoles(models.RoleRegistrar, models.RoleAdmin),
		middleware.Audit(auditRepo, logr, "update_status", "enrollment"),
		enrollmentHandler.UpdateStatus)

	secured.POST("/counter-payment",
		middleware.RequireRoles(models.RoleFinance, models.RoleAdmin),
		middleware.Audit(auditRepo, logr, "record_payment", "enrollment"),
		paymentHandler.RecordCounterPayment)
	secured.GET("/payments",
		middleware.RequireRoles(models.RoleFinance, models.RoleRegistrar, models.RoleAdmin),
		paymentHandler.ListLedger)

	secured.PUT("/assign-instructor",
		middleware.RequireRoles(models.RoleProgramHead, models.RoleAdmin),
		middleware.Audit(auditRepo, logr, "assign_instructor", "assignment"),
		assignmentHandler.AssignInstructor)
	secured.GET("/assignments/me",
		middleware.RequireRoles(models.RoleInstructor),
		assignmentHandler.ListMine)
	secured.DELETE("/assignments/:id",
		middleware.RequireRoles(models.RoleProgramHead, models.RoleAdmin),
		middleware.Audit(auditRepo, logr, "delete", "assignment"),
		assignmentHandler.Remove)

	secured.POST("/grades",
		middleware.RequireRoles(models.RoleInstructor),
		gradeHandler.Submit)
	secured.GET("/courses/:id/grades",
		middleware.RequireRoles(models.RoleProgramHead, models.RoleDean, models.RoleRegistrar, models.RoleAdmin),
		gradeHandler.ListByCourse)
	secured.GET("/grades/me",
		middleware.RequireRoles(models.RoleStudent),
		gradeHandler.ListMine)

	secured.POST("/approve-class-grades",
		middleware.RequireRoles(models.RoleProgramHead, models.RoleDean, models.RoleRegistrar, models.RoleAdmin),
		middleware.Audit(auditRepo, logr, "approve_grades", "grade"),
		approvalHandler.ApproveClassGrades)

	secured.POST("/documents",
		middleware.RequireRoles(models.RoleStudent),
		documentHandler.Request)
	secured.GET("/documents/me",
		middleware.RequireRoles(models.RoleStudent),
		documentHandler.ListMine)
	secured.GET("/documents",
		middleware.RequireRoles(models.RoleRegistrar, models.RoleAdmin),
		documentHandler.ListByStatus)
	secured.PATCH("/documents/:id/status",
		middleware.RequireRoles(models.RoleRegistrar, models.RoleAdmin),
		middleware.Audit(auditRepo, logr, "update_status", "document_request"),
		documentHandler.UpdateStatus)
	secured.GET("/documents/:id/download-link",
		middleware.RequireRoles(models.RoleStudent, models.RoleRegistrar, models.RoleAdmin),
		documentHandler.DownloadLink)
	secured.GET("/documents/:id/download",
		middleware.RequireRoles(models.RoleStudent, models.RoleRegistrar, models.RoleAdmin),
		documentHandler.Download)

	if cfg.Dashboard.Enabled {
		secured.GET("/dashboard/summary",
			middleware.RequireRoles(models.RoleRegistrar, models.RoleFinance, models.RoleDean, models.RoleAdmin),
			dashboardHandler.Summary)
	}

	secured.GET("/audit-logs",
		middleware.RequireRoles(models.RoleAdmin),
		auditHandler.ListRecent)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("server shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
