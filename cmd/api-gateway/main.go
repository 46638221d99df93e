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
	"go.uber.org/zap"

	_ "github.com/noah-isme/wedding-dispatch-api/api/swagger"
	"github.com/noah-isme/wedding-dispatch-api/internal/repository"
	"github.com/noah-isme/wedding-dispatch-api/internal/service"
	"github.com/noah-isme/wedding-dispatch-api/pkg/cache"
	"github.com/noah-isme/wedding-dispatch-api/pkg/clock"
	"github.com/noah-isme/wedding-dispatch-api/pkg/config"
	"github.com/noah-isme/wedding-dispatch-api/pkg/database"
	"github.com/noah-isme/wedding-dispatch-api/pkg/export"
	"github.com/noah-isme/wedding-dispatch-api/pkg/jobs"
	"github.com/noah-isme/wedding-dispatch-api/pkg/logger"
	"github.com/noah-isme/wedding-dispatch-api/pkg/routing"
	"github.com/noah-isme/wedding-dispatch-api/pkg/storage"
)

// @title Wedding Dispatch API
// @version 1.0.0
// @description Photographer dispatch, check-in confirmations and overdue alerts
// @BasePath /
// @schemes http https
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk, err := clock.NewZoned(cfg.Clock.Timezone)
	if err != nil {
		logr.Warn("timezone unavailable, using fixed offset", zap.Error(err))
	}
	serviceHours, err := clock.ParseWindow(cfg.Clock.ServiceHoursStart, cfg.Clock.ServiceHoursEnd)
	if err != nil {
		logr.Fatal("invalid service hours", zap.Error(err))
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		logr.Fatal("failed to prepare schema", zap.Error(err))
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	switch {
	case errors.Is(err, cache.ErrDisabled):
		logr.Info("redis disabled, geocode cache and distributed locks are off")
	case err != nil:
		logr.Warn("redis unavailable, continuing without cache and distributed locks", zap.Error(err))
	default:
		defer redisClient.Close()
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	cacheRepo := repository.NewCacheRepository(redisClient, "dispatch", logr)
	geocodeCache := service.NewGeocodeCacheService(cacheRepo, metrics, cfg.Routing.GeocodeCacheTTL, logr, redisClient != nil)
	locker := cache.NewLocker(redisClient, "dispatch:lock")
	estimator := routing.NewKakaoClient(routing.Config{
		APIKey:       cfg.Routing.KakaoAPIKey,
		LocalBaseURL: cfg.Routing.LocalBaseURL,
		NaviBaseURL:  cfg.Routing.NaviBaseURL,
		Timeout:      cfg.Routing.Timeout,
		CacheTTL:     cfg.Routing.GeocodeCacheTTL,
	}, geocodeCache, logr)

	scheduleRepo := repository.NewScheduleRepository(db)
	photographerRepo := repository.NewPhotographerRepository(db)
	checkinRepo := repository.NewCheckinRepository(db)
	routeRepo := repository.NewRouteEstimateRepository(db)
	hallRepo := repository.NewWeddingHallRepository(db)

	photoStore, err := storage.NewPhotoStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Fatal("failed to prepare upload directory", zap.Error(err))
	}

	var photoSvc *service.PhotoService
	photoQueue := jobs.NewQueue("photos", func(ctx context.Context, task jobs.Task) error {
		return photoSvc.HandleTask(ctx, task)
	}, jobs.QueueConfig{Workers: 2, Logger: logr})
	photoSvc = service.NewPhotoService(
		checkinRepo,
		photoStore,
		storage.NewPhotoLinkSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL),
		photoQueue,
		metrics,
		logr,
		service.PhotoServiceConfig{TTL: cfg.Uploads.TTL, URLPrefix: cfg.APIPrefix + "/photos/"},
	)
	photoQueue.Start(ctx)
	defer photoQueue.Stop()

	travelSvc := service.NewTravelService(routeRepo, estimator, locker, clk, metrics, logr, service.TravelServiceConfig{LockTTL: cfg.Routing.EstimateLockTTL})
	alertSvc := service.NewAlertService(scheduleRepo, checkinRepo, photographerRepo, travelSvc, clk, metrics, logr, service.AlertServiceConfig{
		WindowDays:   cfg.Alerts.WindowDays,
		ServiceHours: serviceHours,
	})
	checkinSvc := service.NewCheckinService(scheduleRepo, checkinRepo, db, locker, clk, metrics, logr, service.CheckinServiceConfig{LockTTL: cfg.Checkins.LockTTL})
	authSvc := service.NewAuthService(photographerRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "wedding-dispatch-api",
	})
	photographerSvc := service.NewPhotographerService(photographerRepo, scheduleRepo, checkinRepo, routeRepo, db, validate, logr, service.PhotographerServiceConfig{
		DefaultPassword: cfg.Bootstrap.DefaultPhotographerPassword,
	})
	scheduleSvc := service.NewScheduleService(scheduleRepo, hallRepo, routeRepo, checkinRepo, photoSvc, photographerSvc, db, validate, logr)
	hallSvc := service.NewWeddingHallService(hallRepo, scheduleRepo, routeRepo, db, validate, logr)
	exportSvc := service.NewExportService(alertSvc, export.NewCSVExporter(), &export.PDFExporter{
		FontDir:  cfg.Export.FontDir,
		FontFile: cfg.Export.FontFile,
		Font:     cfg.Export.Font,
	}, logr)

	created, err := authSvc.EnsureAdmin(ctx, service.AdminBootstrap{
		Username: cfg.Bootstrap.AdminUsername,
		Password: cfg.Bootstrap.AdminPassword,
		Name:     cfg.Bootstrap.AdminName,
	})
	if err != nil {
		logr.Fatal("failed to bootstrap admin", zap.Error(err))
	}
	if created {
		logr.Info("bootstrap admin created", zap.String("username", cfg.Bootstrap.AdminUsername))
	}

	scheduler := jobs.NewScheduler(clk.Location(), logr)
	err = scheduler.Register("photo-cleanup", cfg.Uploads.CleanupSchedule, time.Minute, func(ctx context.Context) error {
		removed, err := photoSvc.Cleanup(ctx)
		if removed > 0 {
			logr.Info("expired arrival photos removed", zap.Int("count", removed))
		}
		return err
	})
	if err != nil {
		logr.Fatal("failed to schedule photo cleanup", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := newRouter(cfg, logr, routerDeps{
		auth:          authSvc,
		alerts:        alertSvc,
		checkins:      checkinSvc,
		photos:        photoSvc,
		schedules:     scheduleSvc,
		photographers: photographerSvc,
		halls:         hallSvc,
		exports:       exportSvc,
		metrics:       metrics,
		clock:         clk,
		db:            db,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
