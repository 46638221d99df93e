package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/wedding-dispatch-api/internal/handler"
	"github.com/noah-isme/wedding-dispatch-api/internal/middleware"
	"github.com/noah-isme/wedding-dispatch-api/internal/models"
	"github.com/noah-isme/wedding-dispatch-api/internal/service"
	"github.com/noah-isme/wedding-dispatch-api/pkg/clock"
	"github.com/noah-isme/wedding-dispatch-api/pkg/config"
	"github.com/noah-isme/wedding-dispatch-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/wedding-dispatch-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/wedding-dispatch-api/pkg/middleware/requestid"
)

type routerDeps struct {
	auth          *service.AuthService
	alerts        *service.AlertService
	checkins      *service.CheckinService
	photos        *service.PhotoService
	schedules     *service.ScheduleService
	photographers *service.PhotographerService
	halls         *service.WeddingHallService
	exports       *service.ExportService
	metrics       *service.MetricsService
	clock         clock.Clock
	db            handler.Pinger
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = cfg.Uploads.MaxFileBytes
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))

	metricsHandler := handler.NewMetricsHandler(deps.metrics, deps.db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(deps.auth)
	alertHandler := handler.NewAlertHandler(deps.alerts, deps.exports)
	checkinHandler := handler.NewCheckinHandler(deps.checkins, deps.photos, cfg.Uploads.MaxFileBytes, logr)
	photoHandler := handler.NewPhotoHandler(deps.photos, deps.clock, cfg.Alerts.WindowDays)
	scheduleHandler := handler.NewScheduleHandler(deps.schedules)
	photographerHandler := handler.NewPhotographerHandler(deps.photographers)
	hallHandler := handler.NewWeddingHallHandler(deps.halls)

	root := r.Group(cfg.APIPrefix)
	root.POST("/login", authHandler.Login)
	root.GET("/api/keepalive_needed", alertHandler.Keepalive)
	root.GET("/photos/:token", photoHandler.Serve)

	authed := middleware.JWT(deps.auth)

	api := root.Group("/api", authed)
	api.GET("/me", authHandler.Me)
	api.POST("/me/password", authHandler.ChangePassword)
	api.GET("/my", middleware.RequireRoles(models.RolePhotographer, models.RoleAdmin), checkinHandler.MyWeek)
	api.POST("/checkins/:id/:kind", middleware.RequireRoles(models.RolePhotographer, models.RoleAdmin), checkinHandler.Confirm)

	admin := root.Group("/admin", authed, middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/alerts", alertHandler.Board)
	admin.GET("/alerts/feed", alertHandler.Feed)
	admin.GET("/alerts/export", alertHandler.Export)
	admin.GET("/photos", photoHandler.List)

	admin.GET("/schedules", scheduleHandler.List)
	admin.GET("/schedules/:id", scheduleHandler.Get)
	admin.POST("/schedules", middleware.Audit(logr, "schedule.create"), scheduleHandler.Create)
	admin.PUT("/schedules/:id", middleware.Audit(logr, "schedule.update"), scheduleHandler.Update)
	admin.DELETE("/schedules/:id", middleware.Audit(logr, "schedule.delete"), scheduleHandler.Delete)
	admin.POST("/schedules/bulk-delete", middleware.Audit(logr, "schedule.bulk_delete"), scheduleHandler.BulkDelete)
	admin.POST("/schedules/import", middleware.Audit(logr, "schedule.import"), scheduleHandler.Import)

	admin.GET("/photographers", photographerHandler.List)
	admin.GET("/photographers/:id", photographerHandler.Get)
	admin.POST("/photographers", middleware.Audit(logr, "photographer.create"), photographerHandler.Create)
	admin.PUT("/photographers/:id", middleware.Audit(logr, "photographer.update"), photographerHandler.Update)
	admin.DELETE("/photographers/:id", middleware.Audit(logr, "photographer.delete"), photographerHandler.Delete)
	admin.POST("/photographers/import", middleware.Audit(logr, "photographer.import"), photographerHandler.Import)

	admin.GET("/halls", hallHandler.List)
	admin.POST("/halls", middleware.Audit(logr, "hall.save"), hallHandler.Save)
	admin.PUT("/halls/:id", middleware.Audit(logr, "hall.update"), hallHandler.Update)
	admin.POST("/halls/:id/propagate", middleware.Audit(logr, "hall.propagate"), hallHandler.Propagate)
	admin.DELETE("/halls/:id", middleware.Audit(logr, "hall.delete"), hallHandler.Delete)

	return r
}
