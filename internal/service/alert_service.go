package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/wedding-dispatch-api/internal/dto"
	"github.com/noah-isme/wedding-dispatch-api/internal/models"
	"github.com/noah-isme/wedding-dispatch-api/pkg/clock"
	appErrors "github.com/noah-isme/wedding-dispatch-api/pkg/errors"
)

type alertScheduleReader interface {
	ListBetween(ctx context.Context, start, end time.Time) ([]models.Schedule, error)
	ExistsOnDate(ctx context.Context, date time.Time) (bool, error)
}

type alertCheckinReader interface {
	ListBetween(ctx context.Context, start, end time.Time) ([]models.Checkin, error)
}

type photographerDirectory interface {
	List(ctx context.Context) ([]models.Photographer, error)
}

type travelResolver interface {
	Minutes(ctx context.Context, sched models.Schedule, name, address string) *int
}

// AlertServiceConfig controls the default window and keepalive hours.
type AlertServiceConfig struct {
	WindowDays   int
	ServiceHours clock.Window
}

// AlertService evaluates deadlines against confirmations on demand. It keeps
// no alert state between calls.
type AlertService struct {
	schedules     alertScheduleReader
	checkins      alertCheckinReader
	photographers photographerDirectory
	travel        travelResolver
	clock         clock.Clock
	metrics       *MetricsService
	logger        *zap.Logger
	cfg           AlertServiceConfig
}

// NewAlertService constructs the evaluator.
func NewAlertService(schedules alertScheduleReader, checkins alertCheckinReader, photographers photographerDirectory, travel travelResolver, clk clock.Clock, metrics *MetricsService, logger *zap.Logger, cfg AlertServiceConfig) *AlertService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 7
	}
	if cfg.ServiceHours == (clock.Window{}) {
		cfg.ServiceHours = clock.Window{Start: 6 * 60, End: 17 * 60}
	}
	return &AlertService{
		schedules:     schedules,
		checkins:      checkins,
		photographers: photographers,
		travel:        travel,
		clock:         clk,
		metrics:       metrics,
		logger:        logger,
		cfg:           cfg,
	}
}

type checkinKey struct {
	scheduleID int64
	name       string
}

// Evaluate classifies every (schedule, role, photographer) dated within
// [start, end] at instant now. Only travel estimation may write state.
func (s *AlertService) Evaluate(ctx context.Context, now, start, end time.Time) ([]dto.AlertRow, error) {
	schedules, err := s.schedules.ListBetween(ctx, start, end)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load schedules")
	}
	checkins, err := s.checkins.ListBetween(ctx, start, end)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load checkins")
	}
	addresses, err := s.addressBook(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]models.Schedule, len(schedules))
	for _, sched := range schedules {
		byID[sched.ID] = sched
	}
	own := make(map[checkinKey]*models.Checkin, len(checkins))
	for i := range checkins {
		c := &checkins[i]
		own[checkinKey{scheduleID: c.ScheduleID, name: c.PhotographerName}] = c
	}
	trips := indexTrips(byID, checkins)
	loc := s.clock.Location()

	rows := make([]dto.AlertRow, 0, len(schedules)*2)
	for _, sched := range schedules {
		for _, slot := range sched.Assignments() {
			travel := s.travel.Minutes(ctx, sched, slot.Name, addresses[slot.Name])
			deadlines := ComputeDeadlines(sched, travel, loc)
			c := own[checkinKey{scheduleID: sched.ID, name: slot.Name}]

			confirmed := func(kind models.CheckinKind) bool {
				return c.Has(kind) || trips.confirmed(sched, slot.Name, kind)
			}
			row := dto.AlertRow{
				Schedule:       sched,
				Role:           slot.Role,
				Name:           slot.Name,
				VenueAddress:   sched.Address(),
				TravelMinutes:  travel,
				ArrivalTarget:  deadlines.ArrivalTarget,
				WakeDeadline:   deadlines.Wake,
				DepartDeadline: deadlines.Depart,
				WakeOK:         confirmed(models.CheckinWake),
				DepartOK:       confirmed(models.CheckinDepart),
				ArriveOK:       confirmed(models.CheckinArrive),
			}
			row.WakeOverdue = overdue(row.WakeDeadline, now, row.WakeOK)
			row.DepartOverdue = overdue(row.DepartDeadline, now, row.DepartOK)
			row.ArriveOverdue = overdue(row.ArrivalTarget, now, row.ArriveOK)
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (s *AlertService) addressBook(ctx context.Context) (map[string]string, error) {
	photographers, err := s.photographers.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load photographers")
	}
	out := make(map[string]string, len(photographers))
	for i := range photographers {
		out[photographers[i].Name] = photographers[i].AddressValue()
	}
	return out, nil
}

// Filter keeps only overdue rows when onlyOverdue is set.
func Filter(rows []dto.AlertRow, onlyOverdue bool) []dto.AlertRow {
	if !onlyOverdue {
		return rows
	}
	out := make([]dto.AlertRow, 0, len(rows))
	for _, row := range rows {
		if row.Overdue() {
			out = append(out, row)
		}
	}
	return out
}

// DefaultWindow returns today .. today+WindowDays in the fixed zone.
func (s *AlertService) DefaultWindow() (time.Time, time.Time) {
	today := clock.DateOf(s.clock.Now(), s.clock.Location())
	return today, today.AddDate(0, 0, s.cfg.WindowDays)
}

// Board evaluates the requested window for the admin alert page.
func (s *AlertService) Board(ctx context.Context, q dto.AlertQuery) (dto.AlertBoard, error) {
	start, end := s.DefaultWindow()
	if q.From != nil {
		start = *q.From
	}
	if q.To != nil {
		end = *q.To
	}
	if end.Before(start) {
		return dto.AlertBoard{}, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}

	now := s.clock.Now()
	rows, err := s.Evaluate(ctx, now, start, end)
	if err != nil {
		return dto.AlertBoard{}, err
	}
	s.metrics.ObserveAlertRows(rows)
	rows = Filter(rows, q.OnlyOverdue)

	return dto.AlertBoard{
		Now:   now,
		From:  start.Format("2006-01-02"),
		To:    end.Format("2006-01-02"),
		Only:  q.OnlyOverdue,
		Count: len(rows),
		Rows:  rows,
	}, nil
}

// Feed returns overdue rows of the default window in the polling shape.
func (s *AlertService) Feed(ctx context.Context) (dto.AlertFeed, error) {
	start, end := s.DefaultWindow()
	now := s.clock.Now()
	rows, err := s.Evaluate(ctx, now, start, end)
	if err != nil {
		return dto.AlertFeed{}, err
	}
	s.metrics.ObserveAlertRows(rows)

	items := make([]dto.AlertFeedItem, 0)
	for _, row := range Filter(rows, true) {
		items = append(items, feedItem(row))
	}
	return dto.AlertFeed{OK: true, Now: now, Count: len(items), Alerts: items}, nil
}

func feedItem(row dto.AlertRow) dto.AlertFeedItem {
	item := dto.AlertFeedItem{
		Key:           fmt.Sprintf("%d:%s:%s", row.Schedule.ID, row.Name, row.Role),
		ScheduleID:    row.Schedule.ID,
		Date:          row.Schedule.WeddingDate.Format("2006-01-02"),
		Venue:         row.Schedule.Venue,
		Name:          row.Name,
		Role:          row.Role,
		WakeOverdue:   row.WakeOverdue,
		DepartOverdue: row.DepartOverdue,
		ArriveOverdue: row.ArriveOverdue,
		TravelMinutes: row.TravelMinutes,
	}
	if row.Schedule.WeddingTime != nil {
		v := row.Schedule.WeddingTime.String()
		item.WeddingTime = &v
	}
	if row.ArrivalTarget != nil {
		v := row.ArrivalTarget.Format("15:04")
		item.ArrivalTarget = &v
	}
	return item
}

// Keepalive reports whether uptime pingers should keep the service warm:
// inside service hours on a day with at least one wedding.
func (s *AlertService) Keepalive(ctx context.Context) (dto.KeepaliveStatus, error) {
	now := s.clock.Now()
	today := clock.DateOf(now, s.clock.Location())
	status := dto.KeepaliveStatus{
		InWindow: s.cfg.ServiceHours.Contains(now),
		Today:    today.Format("2006-01-02"),
		Now:      now,
	}
	has, err := s.schedules.ExistsOnDate(ctx, today)
	if err != nil {
		return status, appErrors.Internal(err, "failed to check today's schedules")
	}
	status.HasWedding = has
	status.Keepalive = status.InWindow && status.HasWedding
	return status, nil
}
