package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wedding-dispatch-api/internal/models"
	"github.com/noah-isme/wedding-dispatch-api/pkg/clock"
)

var kst = time.FixedZone("KST", 9*60*60)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func todPtr(h, m int) *models.TimeOfDay {
	t := models.NewTimeOfDay(h, m)
	return &t
}

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }

func newTestClock(h, m int) *clock.Manual {
	return clock.NewManual(time.Date(2026, 5, 2, h, m, 0, 0, kst))
}

// newTxMock returns a sqlx handle whose transactions are recorded by sqlmock.
func newTxMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

type scheduleStoreStub struct {
	mu        sync.Mutex
	schedules map[int64]models.Schedule
	listErr   error
}

func newScheduleStore(schedules ...models.Schedule) *scheduleStoreStub {
	store := &scheduleStoreStub{schedules: make(map[int64]models.Schedule)}
	for _, s := range schedules {
		store.schedules[s.ID] = s
	}
	return store
}

func (s *scheduleStoreStub) sorted() []models.Schedule {
	out := make([]models.Schedule, 0, len(s.schedules))
	for _, sched := range s.schedules {
		out = append(out, sched)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *scheduleStoreStub) FindByID(ctx context.Context, id int64) (*models.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched, ok := s.schedules[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &sched, nil
}

func (s *scheduleStoreStub) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.Schedule
	for _, sched := range s.sorted() {
		key := sched.WeddingDate.Format("2006-01-02")
		if filter.From != nil && key < filter.From.Format("2006-01-02") {
			continue
		}
		if filter.To != nil && key > filter.To.Format("2006-01-02") {
			continue
		}
		if filter.Photographer != "" && !sched.HasPhotographer(filter.Photographer) {
			continue
		}
		if filter.Venue != "" && sched.Venue != filter.Venue {
			continue
		}
		out = append(out, sched)
	}
	return out, nil
}

func (s *scheduleStoreStub) ListBetween(ctx context.Context, start, end time.Time) ([]models.Schedule, error) {
	return s.List(ctx, models.ScheduleFilter{From: &start, To: &end})
}

func (s *scheduleStoreStub) ListSiblings(ctx context.Context, exec sqlx.ExtContext, date time.Time, venue *string, name string) ([]models.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Schedule
	for _, sched := range s.sorted() {
		if sched.WeddingDate.Format("2006-01-02") != date.Format("2006-01-02") || !sched.HasPhotographer(name) {
			continue
		}
		if venue != nil && sched.Venue != *venue {
			continue
		}
		out = append(out, sched)
	}
	return out, nil
}

func (s *scheduleStoreStub) ExistsOnDate(ctx context.Context, date time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sched := range s.schedules {
		if sched.WeddingDate.Format("2006-01-02") == date.Format("2006-01-02") {
			return true, nil
		}
	}
	return false, nil
}

type checkinStoreStub struct {
	mu       sync.Mutex
	nextID   int64
	rows     map[checkinKey]*models.Checkin
	saves    int
	locks    []string
	schedule *scheduleStoreStub
}

func newCheckinStore(schedules *scheduleStoreStub, seed ...models.Checkin) *checkinStoreStub {
	store := &checkinStoreStub{rows: make(map[checkinKey]*models.Checkin), schedule: schedules}
	for i := range seed {
		c := seed[i]
		store.nextID++
		c.ID = store.nextID
		store.rows[checkinKey{scheduleID: c.ScheduleID, name: c.PhotographerName}] = &c
	}
	return store
}

func (s *checkinStoreStub) LockPhotographerDay(ctx context.Context, exec sqlx.ExtContext, name string, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks = append(s.locks, name+":"+date.Format("2006-01-02"))
	return nil
}

func (s *checkinStoreStub) GetOrCreateForUpdate(ctx context.Context, exec sqlx.ExtContext, scheduleID int64, name string, now time.Time) (*models.Checkin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := checkinKey{scheduleID: scheduleID, name: name}
	if c, ok := s.rows[key]; ok {
		copied := *c
		return &copied, nil
	}
	s.nextID++
	c := &models.Checkin{ID: s.nextID, ScheduleID: scheduleID, PhotographerName: name, CreatedAt: now, UpdatedAt: now}
	s.rows[key] = c
	copied := *c
	return &copied, nil
}

func (s *checkinStoreStub) Save(ctx context.Context, exec sqlx.ExtContext, c *models.Checkin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *c
	s.rows[checkinKey{scheduleID: c.ScheduleID, name: c.PhotographerName}] = &copied
	s.saves++
	return nil
}

func (s *checkinStoreStub) get(scheduleID int64, name string) *models.Checkin {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[checkinKey{scheduleID: scheduleID, name: name}]
}

func (s *checkinStoreStub) all() []models.Checkin {
	out := make([]models.Checkin, 0, len(s.rows))
	for _, c := range s.rows {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *checkinStoreStub) ListForPhotographer(ctx context.Context, name string, scheduleIDs []int64) ([]models.Checkin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[int64]bool, len(scheduleIDs))
	for _, id := range scheduleIDs {
		wanted[id] = true
	}
	var out []models.Checkin
	for _, c := range s.all() {
		if c.PhotographerName == name && wanted[c.ScheduleID] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *checkinStoreStub) ListBetween(ctx context.Context, start, end time.Time) ([]models.Checkin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Checkin
	for _, c := range s.all() {
		sched, err := s.schedule.FindByID(ctx, c.ScheduleID)
		if err != nil {
			continue
		}
		key := sched.WeddingDate.Format("2006-01-02")
		if key >= start.Format("2006-01-02") && key <= end.Format("2006-01-02") {
			out = append(out, c)
		}
	}
	return out, nil
}

type routeStoreStub struct {
	mu        sync.Mutex
	rows      map[checkinKey]models.RouteEstimate
	findErr   error
	inserts   int
	conflicts int
}

func newRouteStore(seed ...models.RouteEstimate) *routeStoreStub {
	store := &routeStoreStub{rows: make(map[checkinKey]models.RouteEstimate)}
	for _, est := range seed {
		store.rows[checkinKey{scheduleID: est.ScheduleID, name: est.PhotographerName}] = est
	}
	return store
}

func (s *routeStoreStub) Find(ctx context.Context, scheduleID int64, name string) (*models.RouteEstimate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	est, ok := s.rows[checkinKey{scheduleID: scheduleID, name: name}]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &est, nil
}

func (s *routeStoreStub) InsertIfAbsent(ctx context.Context, est *models.RouteEstimate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := checkinKey{scheduleID: est.ScheduleID, name: est.PhotographerName}
	if _, ok := s.rows[key]; ok {
		s.conflicts++
		return false, nil
	}
	s.inserts++
	s.rows[key] = *est
	return true, nil
}

type estimatorStub struct {
	mu      sync.Mutex
	minutes int
	ok      bool
	calls   int
}

func (e *estimatorStub) EstimateMinutes(ctx context.Context, origin, dest string) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return e.minutes, e.ok
}

func (e *estimatorStub) Provider() string { return "stub" }

type photographerDirStub struct {
	photographers []models.Photographer
	err           error
}

func (s photographerDirStub) List(ctx context.Context) ([]models.Photographer, error) {
	return s.photographers, s.err
}
