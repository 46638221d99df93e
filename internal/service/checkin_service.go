package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/wedding-dispatch-api/internal/dto"
	"github.com/noah-isme/wedding-dispatch-api/internal/models"
	"github.com/noah-isme/wedding-dispatch-api/pkg/clock"
	"github.com/noah-isme/wedding-dispatch-api/pkg/database"
	appErrors "github.com/noah-isme/wedding-dispatch-api/pkg/errors"
)

type checkinScheduleReader interface {
	FindByID(ctx context.Context, id int64) (*models.Schedule, error)
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, error)
	ListSiblings(ctx context.Context, exec sqlx.ExtContext, date time.Time, venue *string, name string) ([]models.Schedule, error)
}

type checkinStore interface {
	LockPhotographerDay(ctx context.Context, exec sqlx.ExtContext, name string, date time.Time) error
	GetOrCreateForUpdate(ctx context.Context, exec sqlx.ExtContext, scheduleID int64, name string, now time.Time) (*models.Checkin, error)
	Save(ctx context.Context, exec sqlx.ExtContext, c *models.Checkin) error
	ListForPhotographer(ctx context.Context, name string, scheduleIDs []int64) ([]models.Checkin, error)
}

// CheckinServiceConfig tunes the cross-instance confirmation lock.
type CheckinServiceConfig struct {
	LockTTL time.Duration
}

// CheckinService records wake/depart/arrive confirmations across a trip.
type CheckinService struct {
	schedules checkinScheduleReader
	checkins  checkinStore
	tx        database.TxBeginner
	locker    keyLocker
	clock     clock.Clock
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       CheckinServiceConfig
}

// NewCheckinService wires dependencies. locker may be nil.
func NewCheckinService(schedules checkinScheduleReader, checkins checkinStore, tx database.TxBeginner, locker keyLocker, clk clock.Clock, metrics *MetricsService, logger *zap.Logger, cfg CheckinServiceConfig) *CheckinService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Second
	}
	return &CheckinService{
		schedules: schedules,
		checkins:  checkins,
		tx:        tx,
		locker:    locker,
		clock:     clk,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// Confirm applies a confirmation to every sibling schedule of the trip.
// Unknown schedules and schedules the photographer is not on are skipped
// without error and without touching state.
func (s *CheckinService) Confirm(ctx context.Context, req dto.ConfirmRequest) (dto.ConfirmResult, error) {
	if !req.Kind.Valid() {
		return dto.ConfirmResult{}, appErrors.Clone(appErrors.ErrValidation, "kind must be wake, depart or arrive")
	}
	if req.PhotographerName == "" {
		return dto.ConfirmResult{}, appErrors.Clone(appErrors.ErrValidation, "photographer name is required")
	}
	at := req.At
	if at.IsZero() {
		at = s.clock.Now()
	}
	photo := ""
	if req.Kind == models.CheckinArrive {
		photo = req.PhotoRef
	}

	sched, err := s.schedules.FindByID(ctx, req.ScheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.skip(req, dto.SkipScheduleNotFound), nil
		}
		return dto.ConfirmResult{}, appErrors.Internal(err, "failed to load schedule")
	}
	if !sched.HasPhotographer(req.PhotographerName) {
		return s.skip(req, dto.SkipNotAssigned), nil
	}

	if s.locker != nil {
		key := fmt.Sprintf("checkin:%s:%s", req.PhotographerName, sched.WeddingDate.Format("2006-01-02"))
		lock, ok, lockErr := s.locker.Acquire(ctx, key, s.cfg.LockTTL, s.cfg.LockTTL)
		if lockErr != nil {
			s.logger.Warn("checkin lock failed", zap.String("key", key), zap.Error(lockErr))
		}
		if ok {
			defer func() {
				if err := lock.Release(context.Background()); err != nil {
					s.logger.Warn("checkin unlock failed", zap.String("key", key), zap.Error(err))
				}
			}()
		}
	}

	result := dto.ConfirmResult{Applied: true}
	err = database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.checkins.LockPhotographerDay(ctx, tx, req.PhotographerName, sched.WeddingDate); err != nil {
			return err
		}
		siblings, err := s.schedules.ListSiblings(ctx, tx, sched.WeddingDate, SiblingScope(req.Kind).VenueFilter(*sched), req.PhotographerName)
		if err != nil {
			return err
		}
		for _, sibling := range siblings {
			c, err := s.checkins.GetOrCreateForUpdate(ctx, tx, sibling.ID, req.PhotographerName, at)
			if err != nil {
				return err
			}
			result.ScheduleIDs = append(result.ScheduleIDs, sibling.ID)
			if !c.Apply(req.Kind, at, photo) {
				continue
			}
			if err := s.checkins.Save(ctx, tx, c); err != nil {
				return err
			}
			result.Updated++
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordConfirmation(string(req.Kind), "error")
		return dto.ConfirmResult{}, appErrors.Internal(err, "failed to record confirmation")
	}

	s.metrics.RecordConfirmation(string(req.Kind), "applied")
	s.logger.Info("checkin confirmed",
		zap.Int64("schedule_id", req.ScheduleID),
		zap.String("photographer", req.PhotographerName),
		zap.String("kind", string(req.Kind)),
		zap.Int("siblings", len(result.ScheduleIDs)),
		zap.Int("updated", result.Updated),
	)
	return result, nil
}

func (s *CheckinService) skip(req dto.ConfirmRequest, reason string) dto.ConfirmResult {
	s.metrics.RecordConfirmation(string(req.Kind), reason)
	s.logger.Info("checkin skipped",
		zap.Int64("schedule_id", req.ScheduleID),
		zap.String("photographer", req.PhotographerName),
		zap.String("kind", string(req.Kind)),
		zap.String("reason", reason),
	)
	return dto.ConfirmResult{Applied: false, Reason: reason}
}

// Skip reports a confirmation rejected before reaching storage, such as an
// unsupported photo upload.
func (s *CheckinService) Skip(req dto.ConfirmRequest, reason string) dto.ConfirmResult {
	return s.skip(req, reason)
}

// MyWeek lists name's schedules for the Monday–Sunday week containing now
// together with their checkins and trip-level confirmation flags.
func (s *CheckinService) MyWeek(ctx context.Context, name string) (dto.MyWeek, error) {
	loc := s.clock.Location()
	today := clock.DateOf(s.clock.Now(), loc)
	offset := (int(today.Weekday()) + 6) % 7
	start := today.AddDate(0, 0, -offset)
	end := start.AddDate(0, 0, 6)

	schedules, err := s.schedules.List(ctx, models.ScheduleFilter{From: &start, To: &end, Photographer: name})
	if err != nil {
		return dto.MyWeek{}, appErrors.Internal(err, "failed to load schedules")
	}

	byID := make(map[int64]models.Schedule, len(schedules))
	ids := make([]int64, 0, len(schedules))
	for _, sched := range schedules {
		byID[sched.ID] = sched
		ids = append(ids, sched.ID)
	}
	checkins, err := s.checkins.ListForPhotographer(ctx, name, ids)
	if err != nil {
		return dto.MyWeek{}, appErrors.Internal(err, "failed to load checkins")
	}

	own := make(map[int64]*models.Checkin, len(checkins))
	wokeDays := make(map[string]bool)
	for i := range checkins {
		c := &checkins[i]
		own[c.ScheduleID] = c
		if sched, ok := byID[c.ScheduleID]; ok && c.Has(models.CheckinWake) {
			wokeDays[sched.WeddingDate.Format("2006-01-02")] = true
		}
	}
	trips := indexTrips(byID, checkins)

	week := dto.MyWeek{
		Start: start.Format("2006-01-02"),
		End:   end.Format("2006-01-02"),
		Items: make([]dto.MyScheduleItem, 0, len(schedules)),
	}
	for _, sched := range schedules {
		week.Items = append(week.Items, dto.MyScheduleItem{
			Schedule: sched,
			Checkin:  own[sched.ID],
			WokeDay:  wokeDays[sched.WeddingDate.Format("2006-01-02")],
			Departed: trips.confirmed(sched, name, models.CheckinDepart),
			Arrived:  trips.confirmed(sched, name, models.CheckinArrive),
		})
	}
	return week, nil
}
