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

	_ "github.com/studyhub-dev/study-portal-api/api/swagger"
	"github.com/studyhub-dev/study-portal-api/internal/handler"
	"github.com/studyhub-dev/study-portal-api/internal/middleware"
	"github.com/studyhub-dev/study-portal-api/internal/repository"
	"github.com/studyhub-dev/study-portal-api/internal/service"
	"github.com/studyhub-dev/study-portal-api/internal/store"
	"github.com/studyhub-dev/study-portal-api/pkg/cache"
	"github.com/studyhub-dev/study-portal-api/pkg/config"
	"github.com/studyhub-dev/study-portal-api/pkg/database"
	"github.com/studyhub-dev/study-portal-api/pkg/export"
	"github.com/studyhub-dev/study-portal-api/pkg/logger"
	corsmiddleware "github.com/studyhub-dev/study-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/studyhub-dev/study-portal-api/pkg/middleware/requestid"
	"github.com/studyhub-dev/study-portal-api/pkg/storage"
)

// @title Study Portal API
// @version 1.0.0
// @description Student study material portal with moderation workflow
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
		// The portal degrades without Redis: no change feed, no stats
		// cache, no recent-activity lists.
		logr.Sugar().Warnw("redis unavailable, running degraded", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close() //nolint:errcheck
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	materialRepo := repository.NewMaterialRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	userRepo := repository.NewUserRepository(db)
	reportRepo := repository.NewReportRepository(db)
	activityRepo := repository.NewActivityRepository(redisClient, logr, cfg.Portal.RecentActivityLimit)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	notifier := repository.NewRedisNotifier(redisClient, logr)

	metricsSvc := service.NewMetricsService()

	st := store.New(materialRepo, subjectRepo, userRepo, redisClient, logr)
	st.Instrument(metricsSvc)
	if err := st.Start(ctx); err != nil {
		logr.Sugar().Fatalw("failed to start state store", "error", err)
	}
	defer st.Stop()

	validate := validator.New()

	authSvc := service.NewAuthService(userRepo, cfg, notifier, validate, logr, service.AuthConfig{
		AssertionSecret:    cfg.Identity.AssertionSecret,
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	materialSvc := service.NewMaterialService(materialRepo, subjectRepo, userRepo, notifier, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, materialRepo, notifier, validate, logr)
	userSvc := service.NewUserService(userRepo, notifier, validate, logr)
	reportSvc := service.NewReportService(reportRepo, materialRepo, subjectRepo, notifier, validate, logr)
	activitySvc := service.NewActivityService(activityRepo, logr)
	dashboardSvc := service.NewDashboardService(st, cacheRepo, cfg.Portal.StatsCacheTTL, cfg.Portal.RecentMaterials, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		fileStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(st, fileStore, signer, service.ExportConfig{
			APIPrefix:  cfg.APIPrefix,
			ResultTTL:  cfg.Exports.SignedURLTTL,
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
		}, logr, export.NewCSVExporter(), export.NewPDFExporter())
		exportSvc.Start(ctx)
		defer exportSvc.Stop()

		go func() {
			ticker := time.NewTicker(cfg.Exports.CleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					exportSvc.Cleanup()
				}
			}
		}()
	}

	authHandler := handler.NewAuthHandler(authSvc)
	materialHandler := handler.NewMaterialHandler(st, materialSvc, activitySvc, metricsSvc)
	subjectHandler := handler.NewSubjectHandler(st, subjectSvc)
	semesterHandler := handler.NewSemesterHandler(st)
	userHandler := handler.NewUserHandler(userSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	activityHandler := handler.NewActivityHandler(activitySvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, st.Ready)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	api.GET("/materials", materialHandler.List)
	api.GET("/materials/:id", materialHandler.Get)
	api.POST("/materials/:id/view", middleware.OptionalJWT(authSvc), materialHandler.RecordView)
	api.POST("/materials/:id/download", middleware.OptionalJWT(authSvc), materialHandler.RecordDownload)
	api.GET("/subjects", subjectHandler.List)
	api.GET("/subjects/:id", subjectHandler.Get)
	api.GET("/semesters", semesterHandler.List)
	api.GET("/semesters/:id", semesterHandler.Get)
	api.GET("/stats", dashboardHandler.Stats)
	api.POST("/reports", middleware.OptionalJWT(authSvc), reportHandler.Create)

	authed := api.Group("", middleware.JWT(authSvc), middleware.NotBanned(st))
	authed.POST("/materials", materialHandler.Create)
	authed.GET("/activity/viewed", activityHandler.RecentlyViewed)
	authed.GET("/activity/downloaded", activityHandler.RecentlyDownloaded)

	admin := api.Group("", middleware.JWT(authSvc), middleware.RequireAdmin(st, cfg))
	admin.GET("/materials/pending", materialHandler.Pending)
	admin.POST("/materials/:id/approve", materialHandler.Approve)
	admin.POST("/materials/:id/reject", materialHandler.Reject)
	admin.PUT("/materials/:id", materialHandler.Update)
	admin.DELETE("/materials/:id", materialHandler.Delete)
	admin.POST("/subjects", subjectHandler.Create)
	admin.PUT("/subjects/:id", subjectHandler.Update)
	admin.DELETE("/subjects/:id", subjectHandler.Delete)
	admin.GET("/users", userHandler.List)
	admin.GET("/users/:id", userHandler.Get)
	admin.PUT("/users/:id/role", userHandler.SetRole)
	admin.PUT("/users/:id/ban", userHandler.SetBan)
	admin.GET("/reports", reportHandler.List)
	admin.POST("/reports/:id/resolve", reportHandler.Resolve)
	admin.POST("/reports/:id/reopen", reportHandler.Reopen)
	admin.DELETE("/reports/:id", reportHandler.Delete)
	admin.GET("/dashboard", dashboardHandler.Overview)

	if exportSvc != nil {
		exportHandler := handler.NewExportHandler(exportSvc)
		api.GET("/exports/download/:token", exportHandler.Download)
		admin.POST("/exports", exportHandler.Create)
		admin.GET("/exports/:id", exportHandler.Status)
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
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
