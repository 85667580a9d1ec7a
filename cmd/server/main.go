package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ghumahchegu/tuition-api/internal/handler"
	"github.com/ghumahchegu/tuition-api/internal/middleware"
	"github.com/ghumahchegu/tuition-api/internal/models"
	"github.com/ghumahchegu/tuition-api/internal/repository"
	"github.com/ghumahchegu/tuition-api/internal/service"
	"github.com/ghumahchegu/tuition-api/pkg/cache"
	"github.com/ghumahchegu/tuition-api/pkg/config"
	"github.com/ghumahchegu/tuition-api/pkg/database"
	"github.com/ghumahchegu/tuition-api/pkg/logger"
	corsmiddleware "github.com/ghumahchegu/tuition-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ghumahchegu/tuition-api/pkg/middleware/requestid"
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
		logr.Sugar().Warnw("redis unavailable, agenda caching disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	subjectRepo := repository.NewSubjectRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	userRepo := repository.NewUserRepository(db)

	metricsSvc := service.NewMetricsService()

	var agendaCache *repository.CacheRepository
	if redisClient != nil {
		agendaCache = repository.NewCacheRepository(redisClient, logr)
	}
	agendaCfg := service.AgendaConfig{
		CacheEnabled: cfg.Agenda.CacheEnabled && agendaCache != nil,
		CacheTTL:     cfg.Agenda.CacheTTL,
	}
	agendaSvc := service.NewAgendaService(subjectRepo, assignmentRepo, studentRepo, agendaCache, metricsSvc, agendaCfg, logr)

	defaultRate, err := decimal.NewFromString(cfg.Billing.DefaultHourlyRate)
	if err != nil {
		logr.Sugar().Fatalw("invalid default hourly rate", "value", cfg.Billing.DefaultHourlyRate)
	}

	subjectSvc := service.NewSubjectService(subjectRepo, assignmentRepo, agendaSvc, nil, logr)
	studentSvc := service.NewStudentService(studentRepo, assignmentRepo, defaultRate, nil, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, agendaSvc, nil, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, nil, logr)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, attendanceRepo, subjectRepo, studentRepo, userRepo, metricsSvc, nil, logr)
	exportSvc := service.NewExportService(invoiceRepo, nil, cfg.Billing.Currency, logr)
	migrationSvc := service.NewMigrationService(studentRepo, logr)

	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	agendaHandler := handler.NewAgendaHandler(agendaSvc)
	invoiceHandler := handler.NewInvoiceHandler(invoiceSvc, exportSvc)
	adminHandler := handler.NewAdminHandler(migrationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

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

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))
	{
		api.GET("/subjects", subjectHandler.List)
		api.POST("/subjects", subjectHandler.Create)
		api.GET("/subjects/:id", subjectHandler.Get)
		api.PUT("/subjects/:id", subjectHandler.Update)
		api.DELETE("/subjects/:id", subjectHandler.Delete)

		api.GET("/students", studentHandler.List)
		api.POST("/students", studentHandler.Create)
		api.GET("/students/:id", studentHandler.Get)
		api.PUT("/students/:id", studentHandler.Update)
		api.DELETE("/students/:id", studentHandler.Delete)

		api.GET("/assignments", assignmentHandler.List)
		api.POST("/assignments", assignmentHandler.Assign)
		api.DELETE("/assignments/:id", assignmentHandler.Unassign)

		api.GET("/agenda", agendaHandler.ForDate)

		api.GET("/attendance", attendanceHandler.ForDate)
		api.POST("/attendance", attendanceHandler.Mark)

		api.GET("/invoices", invoiceHandler.List)
		api.POST("/invoices/generate", invoiceHandler.Generate)
		api.GET("/invoices/:id", invoiceHandler.Get)
		api.GET("/invoices/:id/export", invoiceHandler.ExportCSV)
		api.DELETE("/invoices/:id", invoiceHandler.Delete)

		admin := api.Group("/admin")
		admin.Use(middleware.RequireRoles(models.RoleSuperAdmin))
		{
			admin.POST("/invoices/consolidated", invoiceHandler.GenerateConsolidated)
			admin.POST("/migrations/teacher-assignments", adminHandler.MigrateTeacherAssignments)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
