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

	_ "github.com/HiteshShonak/hostel-ops-api/api/swagger"
	"github.com/HiteshShonak/hostel-ops-api/internal/handler"
	"github.com/HiteshShonak/hostel-ops-api/internal/middleware"
	"github.com/HiteshShonak/hostel-ops-api/internal/models"
	"github.com/HiteshShonak/hostel-ops-api/internal/repository"
	"github.com/HiteshShonak/hostel-ops-api/internal/service"
	"github.com/HiteshShonak/hostel-ops-api/pkg/cache"
	"github.com/HiteshShonak/hostel-ops-api/pkg/config"
	"github.com/HiteshShonak/hostel-ops-api/pkg/database"
	"github.com/HiteshShonak/hostel-ops-api/pkg/jobs"
	"github.com/HiteshShonak/hostel-ops-api/pkg/logger"
	corsmiddleware "github.com/HiteshShonak/hostel-ops-api/pkg/middleware/cors"
	reqidmiddleware "github.com/HiteshShonak/hostel-ops-api/pkg/middleware/requestid"
	"github.com/HiteshShonak/hostel-ops-api/pkg/storage"
)

// @title Hostel Ops API
// @version 1.0.0
// @description Hostel attendance, gate pass and notice board backend
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	gatePassRepo := repository.NewGatePassRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	noticeRepo := repository.NewNoticeRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	settingsSvc := service.NewSettingsService(settingsRepo, userRepo, validate, logr, cfg.Hostel)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "hostel-ops-api",
	})
	attendanceSvc := service.NewAttendanceService(attendanceRepo, settingsSvc, metricsSvc, validate, logr)
	gatePassSvc := service.NewGatePassService(gatePassRepo, userRepo, settingsSvc, userRepo, metricsSvc, validate, logr)
	noticeSvc := service.NewNoticeService(noticeRepo, cacheRepo, validate, logr, cfg.Notices.CacheTTL)
	alertSvc := service.NewAlertService(alertRepo, validate, logr)
	reportSvc := service.NewReportService(attendanceRepo, gatePassRepo, nil, nil, logr)

	exportStore, err := storage.NewExportStore(cfg.Reports.ExportDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	exportSigner := storage.NewDownloadSigner(cfg.Reports.SignSecret, cfg.Reports.ExportTTL)
	exportSvc := service.NewExportService(reportSvc, exportStore, exportSigner, validate, logr,
		cfg.Reports.ExportTTL, jobs.Options{Workers: cfg.Reports.Workers})

	authHandler := handler.NewAuthHandler(authSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	gatePassHandler := handler.NewGatePassHandler(gatePassSvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	noticeHandler := handler.NewNoticeHandler(noticeSvc)
	alertHandler := handler.NewAlertHandler(alertSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "cache unavailable"})
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
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	attendance := authed.Group("/attendance")
	attendance.POST("/mark",
		middleware.RequireRoles(models.RoleStudent),
		middleware.Audit(userRepo, models.AuditActionAttendanceMark, "attendance"),
		attendanceHandler.Mark)
	attendance.GET("/today", middleware.RequireRoles(models.RoleStudent), attendanceHandler.Today)
	attendance.GET("/report", middleware.RequireRoles(models.RoleWarden, models.RoleAdmin), attendanceHandler.DailyReport)
	historyRBAC := middleware.RBAC(string(models.RoleWarden), string(models.RoleAdmin), middleware.SelfRole)
	attendance.GET("/students/:studentId", historyRBAC, attendanceHandler.History)
	attendance.GET("/students/:studentId/summary", historyRBAC, attendanceHandler.Summary)

	gatepasses := authed.Group("/gatepasses")
	gatepasses.POST("", middleware.RequireRoles(models.RoleStudent), gatePassHandler.Create)
	gatepasses.GET("", gatePassHandler.List)
	gatepasses.GET("/currently-out", middleware.RequireRoles(models.RoleWarden, models.RoleGuard, models.RoleAdmin), gatePassHandler.CurrentlyOut)
	gatepasses.GET("/late-returns", middleware.RequireRoles(models.RoleWarden, models.RoleAdmin), gatePassHandler.LateReturns)
	gatepasses.GET("/:id", gatePassHandler.Get)
	gatepasses.POST("/:id/parent-decision", middleware.RequireRoles(models.RoleParent), gatePassHandler.ParentDecide)
	gatepasses.POST("/:id/warden-decision", middleware.RequireRoles(models.RoleWarden), gatePassHandler.WardenDecide)
	gatepasses.POST("/:id/exit", middleware.RequireRoles(models.RoleGuard), gatePassHandler.RecordExit)
	gatepasses.POST("/:id/entry", middleware.RequireRoles(models.RoleGuard), gatePassHandler.RecordEntry)

	settings := authed.Group("/settings")
	settings.Use(middleware.RequireRoles(models.RoleAdmin))
	settings.GET("", settingsHandler.List)
	settings.PUT("", settingsHandler.BulkUpdate)
	settings.GET("/:key", settingsHandler.Get)
	settings.PUT("/:key", settingsHandler.Update)

	notices := authed.Group("/notices")
	notices.GET("", noticeHandler.List)
	notices.GET("/:id", noticeHandler.Get)
	notices.POST("", middleware.RequireRoles(models.RoleWarden, models.RoleAdmin), noticeHandler.Create)
	notices.PUT("/:id", middleware.RequireRoles(models.RoleWarden, models.RoleAdmin), noticeHandler.Update)
	notices.DELETE("/:id", middleware.RequireRoles(models.RoleWarden, models.RoleAdmin), noticeHandler.Delete)

	alerts := authed.Group("/alerts")
	alerts.POST("",
		middleware.RequireRoles(models.RoleStudent),
		middleware.Audit(userRepo, models.AuditActionAlertRaise, "alert"),
		alertHandler.Raise)
	alerts.GET("/open", middleware.RequireRoles(models.RoleWarden, models.RoleGuard, models.RoleAdmin), alertHandler.ListOpen)
	alerts.POST("/:id/acknowledge", middleware.RequireRoles(models.RoleWarden, models.RoleGuard, models.RoleAdmin), alertHandler.Acknowledge)

	if cfg.Reports.Enabled {
		reports := authed.Group("/reports")
		reports.Use(middleware.RequireRoles(models.RoleWarden, models.RoleAdmin))
		reports.GET("/attendance/daily", reportHandler.DailyAttendance)
		reports.GET("/gatepasses/late-returns", reportHandler.LateReturns)
		reports.POST("/exports", exportHandler.Create)
		reports.GET("/exports/:id", exportHandler.Status)

		// download is authenticated by the signed token itself
		api.GET("/reports/download", middleware.OptionalJWT(authSvc), exportHandler.Download)
	}

	authed.GET("/metrics/snapshot", middleware.RequireRoles(models.RoleAdmin), metricsHandler.Snapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exportSvc.Start(ctx)
	defer exportSvc.Stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
