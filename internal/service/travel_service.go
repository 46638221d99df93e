package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/wedding-dispatch-api/internal/models"
	"github.com/noah-isme/wedding-dispatch-api/pkg/cache"
	"github.com/noah-isme/wedding-dispatch-api/pkg/clock"
)

type routeEstimateStore interface {
	Find(ctx context.Context, scheduleID int64, name string) (*models.RouteEstimate, error)
	InsertIfAbsent(ctx context.Context, est *models.RouteEstimate) (bool, error)
}

// TravelEstimator resolves driving minutes between two addresses. ok is false
// whenever no estimate could be produced.
type TravelEstimator interface {
	EstimateMinutes(ctx context.Context, origin, dest string) (minutes int, ok bool)
	Provider() string
}

type keyLocker interface {
	Acquire(ctx context.Context, key string, ttl, wait time.Duration) (*cache.Lock, bool, error)
}

// TravelServiceConfig tunes the estimate lock.
type TravelServiceConfig struct {
	LockTTL time.Duration
}

// TravelService resolves travel minutes for a (schedule, photographer) pair:
// stored estimate, then the schedule's manual default, then the external
// estimator whose result is persisted.
type TravelService struct {
	estimates routeEstimateStore
	estimator TravelEstimator
	locker    keyLocker
	clock     clock.Clock
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       TravelServiceConfig
}

// NewTravelService wires travel resolution dependencies. estimator and locker
// may be nil.
func NewTravelService(estimates routeEstimateStore, estimator TravelEstimator, locker keyLocker, clk clock.Clock, metrics *MetricsService, logger *zap.Logger, cfg TravelServiceConfig) *TravelService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 15 * time.Second
	}
	return &TravelService{
		estimates: estimates,
		estimator: estimator,
		locker:    locker,
		clock:     clk,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// Minutes returns the travel time in minutes or nil when unknown. It never
// fails; collaborator errors are logged and degrade to nil.
func (s *TravelService) Minutes(ctx context.Context, sched models.Schedule, name, address string) *int {
	if minutes, ok := s.stored(ctx, sched.ID, name); ok {
		s.metrics.RecordTravelLookup(TravelSourceStored)
		return &minutes
	}

	if sched.TravelMinutesDefault != nil {
		minutes := *sched.TravelMinutesDefault
		s.metrics.RecordTravelLookup(TravelSourceManual)
		return &minutes
	}

	minutes, ok := s.estimate(ctx, sched, name, address)
	if !ok {
		s.metrics.RecordTravelLookup(TravelSourceUnknown)
		return nil
	}
	s.metrics.RecordTravelLookup(TravelSourceEstimate)
	return &minutes
}

func (s *TravelService) stored(ctx context.Context, scheduleID int64, name string) (int, bool) {
	est, err := s.estimates.Find(ctx, scheduleID, name)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("route estimate lookup failed", zap.Int64("schedule_id", scheduleID), zap.String("photographer", name), zap.Error(err))
		}
		return 0, false
	}
	return est.Minutes, true
}

func (s *TravelService) estimate(ctx context.Context, sched models.Schedule, name, address string) (int, bool) {
	venueAddress := sched.Address()
	if s.estimator == nil || address == "" || venueAddress == "" {
		return 0, false
	}

	if s.locker != nil {
		lock, ok, err := s.locker.Acquire(ctx, fmt.Sprintf("route:%d:%s", sched.ID, name), s.cfg.LockTTL, s.cfg.LockTTL)
		switch {
		case err != nil:
			s.logger.Warn("route estimate lock failed", zap.Int64("schedule_id", sched.ID), zap.Error(err))
		case ok:
			defer func() {
				if err := lock.Release(context.Background()); err != nil {
					s.logger.Warn("route estimate unlock failed", zap.Int64("schedule_id", sched.ID), zap.Error(err))
				}
			}()
		}
		// Another holder may have stored the estimate while we waited.
		if minutes, found := s.stored(ctx, sched.ID, name); found {
			return minutes, true
		}
	}

	minutes, ok := s.estimator.EstimateMinutes(ctx, address, venueAddress)
	if !ok {
		return 0, false
	}

	est := &models.RouteEstimate{
		ScheduleID:       sched.ID,
		PhotographerName: name,
		Minutes:          minutes,
		Provider:         s.estimator.Provider(),
		ComputedAt:       s.now(),
	}
	inserted, err := s.estimates.InsertIfAbsent(ctx, est)
	if err != nil {
		s.logger.Warn("route estimate persist failed", zap.Int64("schedule_id", sched.ID), zap.String("photographer", name), zap.Error(err))
		return minutes, true
	}
	if !inserted {
		if winner, found := s.stored(ctx, sched.ID, name); found {
			return winner, true
		}
	}
	return minutes, true
}

func (s *TravelService) now() time.Time {
	if s.clock != nil {
		return s.clock.Now()
	}
	return time.Now()
}
