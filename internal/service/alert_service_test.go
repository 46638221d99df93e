package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wedding-dispatch-api/internal/dto"
	"github.com/noah-isme/wedding-dispatch-api/internal/models"
	"github.com/noah-isme/wedding-dispatch-api/pkg/clock"
)

type alertFixture struct {
	alerts    *AlertService
	checkin   *CheckinService
	clock     *clock.Manual
	schedules *scheduleStoreStub
	checkins  *checkinStoreStub
	routes    *routeStoreStub
}

func newAlertFixture(t *testing.T, schedules []models.Schedule, routes ...models.RouteEstimate) alertFixture {
	db, mock := newTxMock(t)
	for i := 0; i < 4; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}

	clk := newTestClock(9, 30)
	scheduleStore := newScheduleStore(schedules...)
	checkinStore := newCheckinStore(scheduleStore)
	routeStore := newRouteStore(routes...)
	directory := photographerDirStub{photographers: []models.Photographer{
		{Name: "Kim", Address: strPtr("Seoul Mapo-gu")},
		{Name: "Lee"},
	}}
	travel := NewTravelService(routeStore, nil, nil, clk, nil, nil, TravelServiceConfig{})
	return alertFixture{
		alerts:    NewAlertService(scheduleStore, checkinStore, directory, travel, clk, nil, nil, AlertServiceConfig{}),
		checkin:   NewCheckinService(scheduleStore, checkinStore, db, nil, clk, nil, nil, CheckinServiceConfig{}),
		clock:     clk,
		schedules: scheduleStore,
		checkins:  checkinStore,
		routes:    routeStore,
	}
}

func rowFor(t *testing.T, rows []dto.AlertRow, scheduleID int64, name string) dto.AlertRow {
	t.Helper()
	for _, row := range rows {
		if row.Schedule.ID == scheduleID && row.Name == name {
			return row
		}
	}
	t.Fatalf("no alert row for schedule %d / %s", scheduleID, name)
	return dto.AlertRow{}
}

func TestEvaluateWakeOverdueClearsAfterConfirmation(t *testing.T) {
	f := newAlertFixture(t, []models.Schedule{
		{ID: 1, WeddingDate: day(2026, 5, 2), WeddingTime: todPtr(13, 0), Venue: "Grand Hall", MainName: strPtr("Kim")},
	})
	ctx := context.Background()
	start, end := day(2026, 5, 2), day(2026, 5, 9)

	rows, err := f.alerts.Evaluate(ctx, f.clock.Now(), start, end)
	require.NoError(t, err)
	row := rowFor(t, rows, 1, "Kim")
	assert.Equal(t, at(9, 0), *row.WakeDeadline)
	assert.True(t, row.WakeOverdue)
	assert.False(t, row.DepartOverdue)
	assert.False(t, row.ArriveOverdue)

	f.clock.Set(at(9, 31))
	_, err = f.checkin.Confirm(ctx, dto.ConfirmRequest{ScheduleID: 1, PhotographerName: "Kim", Kind: models.CheckinWake})
	require.NoError(t, err)

	rows, err = f.alerts.Evaluate(ctx, f.clock.Now(), start, end)
	require.NoError(t, err)
	row = rowFor(t, rows, 1, "Kim")
	assert.True(t, row.WakeOK)
	assert.False(t, row.WakeOverdue)
}

func TestEvaluateUsesStoredRouteEstimate(t *testing.T) {
	f := newAlertFixture(t, []models.Schedule{
		{ID: 1, WeddingDate: day(2026, 5, 2), WeddingTime: todPtr(13, 0), Venue: "Grand Hall", MainName: strPtr("Kim"), SubName: strPtr("Lee")},
	}, models.RouteEstimate{ScheduleID: 1, PhotographerName: "Kim", Minutes: 45})

	rows, err := f.alerts.Evaluate(context.Background(), at(10, 14), day(2026, 5, 2), day(2026, 5, 2))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	kim := rowFor(t, rows, 1, "Kim")
	assert.Equal(t, models.RoleMain, kim.Role)
	assert.Equal(t, 45, *kim.TravelMinutes)
	assert.Equal(t, at(10, 15), *kim.DepartDeadline)
	assert.False(t, kim.DepartOverdue)

	lee := rowFor(t, rows, 1, "Lee")
	assert.Equal(t, models.RoleSub, lee.Role)
	assert.Nil(t, lee.TravelMinutes)
	assert.Equal(t, at(10, 0), *lee.DepartDeadline)
	assert.True(t, lee.DepartOverdue)
}

func TestEvaluateGroupedDepartSatisfiesSibling(t *testing.T) {
	f := newAlertFixture(t, []models.Schedule{
		{ID: 1, WeddingDate: day(2026, 5, 2), WeddingTime: todPtr(12, 0), Venue: "Grand Hall", MainName: strPtr("Kim")},
		{ID: 2, WeddingDate: day(2026, 5, 2), WeddingTime: todPtr(14, 0), Venue: "Grand Hall", MainName: strPtr("Kim")},
		{ID: 3, WeddingDate: day(2026, 5, 2), WeddingTime: todPtr(14, 0), Venue: "Riverside", MainName: strPtr("Kim")},
	})
	// Legacy row written for schedule 1 only, without group propagation.
	depart := at(9, 0)
	f.checkins.rows[checkinKey{scheduleID: 1, name: "Kim"}] = &models.Checkin{ID: 50, ScheduleID: 1, PhotographerName: "Kim", DepartTime: &depart}

	rows, err := f.alerts.Evaluate(context.Background(), at(12, 30), day(2026, 5, 2), day(2026, 5, 2))
	require.NoError(t, err)

	assert.True(t, rowFor(t, rows, 2, "Kim").DepartOK)
	assert.False(t, rowFor(t, rows, 2, "Kim").DepartOverdue)
	assert.False(t, rowFor(t, rows, 3, "Kim").DepartOK)
	assert.True(t, rowFor(t, rows, 3, "Kim").DepartOverdue)
}

func TestEvaluateMissingWeddingTimeNeverOverdue(t *testing.T) {
	f := newAlertFixture(t, []models.Schedule{
		{ID: 1, WeddingDate: day(2026, 5, 2), Venue: "Grand Hall", MainName: strPtr("Kim")},
	})

	rows, err := f.alerts.Evaluate(context.Background(), at(23, 59), day(2026, 5, 2), day(2026, 5, 2))
	require.NoError(t, err)
	row := rowFor(t, rows, 1, "Kim")
	assert.Nil(t, row.ArrivalTarget)
	assert.False(t, row.Overdue())
}

func TestEvaluateSkipsEmptySlotsAndOutOfWindow(t *testing.T) {
	f := newAlertFixture(t, []models.Schedule{
		{ID: 1, WeddingDate: day(2026, 5, 2), WeddingTime: todPtr(13, 0), Venue: "A", MainName: strPtr("Kim"), SubName: strPtr(" ")},
		{ID: 2, WeddingDate: day(2026, 5, 20), WeddingTime: todPtr(13, 0), Venue: "A", MainName: strPtr("Kim")},
	})

	rows, err := f.alerts.Evaluate(context.Background(), at(8, 0), day(2026, 5, 2), day(2026, 5, 9))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].Schedule.ID)
}

func TestEvaluatePropagatesStoreErrors(t *testing.T) {
	f := newAlertFixture(t, nil)
	f.schedules.listErr = errors.New("db down")

	_, err := f.alerts.Evaluate(context.Background(), at(8, 0), day(2026, 5, 2), day(2026, 5, 9))
	assert.Error(t, err)
}

func TestFeedReturnsOverdueItemsWithKeys(t *testing.T) {
	f := newAlertFixture(t, []models.Schedule{
		{ID: 7, WeddingDate: day(2026, 5, 2), WeddingTime: todPtr(13, 0), Venue: "Grand Hall", MainName: strPtr("Kim")},
		{ID: 8, WeddingDate: day(2026, 5, 4), WeddingTime: todPtr(13, 0), Venue: "Grand Hall", MainName: strPtr("Kim")},
	})

	feed, err := f.alerts.Feed(context.Background())
	require.NoError(t, err)
	assert.True(t, feed.OK)
	require.Equal(t, 1, feed.Count)
	item := feed.Alerts[0]
	assert.Equal(t, "7:Kim:main", item.Key)
	assert.Equal(t, "2026-05-02", item.Date)
	assert.Equal(t, "13:00", *item.WeddingTime)
	assert.Equal(t, "11:00", *item.ArrivalTarget)
	assert.True(t, item.WakeOverdue)
}

func TestBoardDefaultsWindowAndFilters(t *testing.T) {
	f := newAlertFixture(t, []models.Schedule{
		{ID: 1, WeddingDate: day(2026, 5, 2), WeddingTime: todPtr(13, 0), Venue: "A", MainName: strPtr("Kim")},
		{ID: 2, WeddingDate: day(2026, 5, 9), WeddingTime: todPtr(13, 0), Venue: "A", MainName: strPtr("Kim")},
		{ID: 3, WeddingDate: day(2026, 5, 10), WeddingTime: todPtr(13, 0), Venue: "A", MainName: strPtr("Kim")},
	})

	board, err := f.alerts.Board(context.Background(), dto.AlertQuery{})
	require.NoError(t, err)
	assert.Equal(t, "2026-05-02", board.From)
	assert.Equal(t, "2026-05-09", board.To)
	assert.Equal(t, 2, board.Count)

	board, err = f.alerts.Board(context.Background(), dto.AlertQuery{OnlyOverdue: true})
	require.NoError(t, err)
	assert.Equal(t, 1, board.Count)

	from, to := day(2026, 5, 9), day(2026, 5, 1)
	_, err = f.alerts.Board(context.Background(), dto.AlertQuery{From: &from, To: &to})
	assert.Error(t, err)
}

func TestKeepalive(t *testing.T) {
	f := newAlertFixture(t, []models.Schedule{
		{ID: 1, WeddingDate: day(2026, 5, 2), WeddingTime: todPtr(13, 0), Venue: "A", MainName: strPtr("Kim")},
	})
	ctx := context.Background()

	status, err := f.alerts.Keepalive(ctx)
	require.NoError(t, err)
	assert.True(t, status.Keepalive)

	f.clock.Set(at(17, 0))
	status, err = f.alerts.Keepalive(ctx)
	require.NoError(t, err)
	assert.True(t, status.Keepalive)

	f.clock.Set(at(17, 1))
	status, err = f.alerts.Keepalive(ctx)
	require.NoError(t, err)
	assert.False(t, status.Keepalive)
	assert.True(t, status.HasWedding)

	f.clock.Set(at(9, 0).AddDate(0, 0, 1))
	status, err = f.alerts.Keepalive(ctx)
	require.NoError(t, err)
	assert.False(t, status.HasWedding)
	assert.False(t, status.Keepalive)
}
