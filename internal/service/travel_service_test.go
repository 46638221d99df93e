package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wedding-dispatch-api/internal/models"
	"github.com/noah-isme/wedding-dispatch-api/pkg/cache"
)

func travelSchedule() models.Schedule {
	return models.Schedule{ID: 1, WeddingDate: day(2026, 5, 2), WeddingTime: todPtr(13, 0), Venue: "Grand Hall", VenueAddress: strPtr("Seoul Gangnam-gu 1")}
}

func TestTravelMinutesPrefersStoredEstimate(t *testing.T) {
	routes := newRouteStore(models.RouteEstimate{ScheduleID: 1, PhotographerName: "Kim", Minutes: 45})
	estimator := &estimatorStub{minutes: 80, ok: true}
	svc := NewTravelService(routes, estimator, nil, newTestClock(8, 0), nil, nil, TravelServiceConfig{})

	sched := travelSchedule()
	sched.TravelMinutesDefault = intPtr(20)
	got := svc.Minutes(context.Background(), sched, "Kim", "Seoul Mapo-gu")
	require.NotNil(t, got)
	assert.Equal(t, 45, *got)
	assert.Zero(t, estimator.calls)
}

func TestTravelMinutesManualDefaultIsNotPersisted(t *testing.T) {
	routes := newRouteStore()
	estimator := &estimatorStub{minutes: 80, ok: true}
	svc := NewTravelService(routes, estimator, nil, newTestClock(8, 0), nil, nil, TravelServiceConfig{})

	sched := travelSchedule()
	sched.TravelMinutesDefault = intPtr(20)
	got := svc.Minutes(context.Background(), sched, "Kim", "Seoul Mapo-gu")
	require.NotNil(t, got)
	assert.Equal(t, 20, *got)
	assert.Zero(t, estimator.calls)
	assert.Zero(t, routes.inserts)
}

func TestTravelMinutesEstimatesAndPersists(t *testing.T) {
	routes := newRouteStore()
	estimator := &estimatorStub{minutes: 52, ok: true}
	svc := NewTravelService(routes, estimator, cache.NewLocker(nil, "test"), newTestClock(8, 0), nil, nil, TravelServiceConfig{})

	got := svc.Minutes(context.Background(), travelSchedule(), "Kim", "Seoul Mapo-gu")
	require.NotNil(t, got)
	assert.Equal(t, 52, *got)
	assert.Equal(t, 1, routes.inserts)

	stored, err := routes.Find(context.Background(), 1, "Kim")
	require.NoError(t, err)
	assert.Equal(t, "stub", stored.Provider)

	again := svc.Minutes(context.Background(), travelSchedule(), "Kim", "Seoul Mapo-gu")
	assert.Equal(t, 52, *again)
	assert.Equal(t, 1, estimator.calls)
}

func TestTravelMinutesUnknownWithoutAddresses(t *testing.T) {
	routes := newRouteStore()
	estimator := &estimatorStub{minutes: 52, ok: true}
	svc := NewTravelService(routes, estimator, nil, newTestClock(8, 0), nil, nil, TravelServiceConfig{})

	assert.Nil(t, svc.Minutes(context.Background(), travelSchedule(), "Kim", ""))

	sched := travelSchedule()
	sched.VenueAddress = strPtr("  ")
	assert.Nil(t, svc.Minutes(context.Background(), sched, "Kim", "Seoul Mapo-gu"))
	assert.Zero(t, estimator.calls)
}

func TestTravelMinutesDegradesOnEstimatorFailure(t *testing.T) {
	routes := newRouteStore()
	svc := NewTravelService(routes, &estimatorStub{ok: false}, nil, newTestClock(8, 0), nil, nil, TravelServiceConfig{})

	assert.Nil(t, svc.Minutes(context.Background(), travelSchedule(), "Kim", "Seoul Mapo-gu"))
	assert.Zero(t, routes.inserts)
}

func TestTravelMinutesStoreFailureFallsThrough(t *testing.T) {
	routes := newRouteStore()
	routes.findErr = errors.New("connection reset")
	svc := NewTravelService(routes, nil, nil, newTestClock(8, 0), nil, nil, TravelServiceConfig{})

	sched := travelSchedule()
	sched.TravelMinutesDefault = intPtr(35)
	got := svc.Minutes(context.Background(), sched, "Kim", "Seoul Mapo-gu")
	require.NotNil(t, got)
	assert.Equal(t, 35, *got)
}

func TestTravelMinutesConcurrentCallsKeepOneRow(t *testing.T) {
	routes := newRouteStore()
	estimator := &estimatorStub{minutes: 40, ok: true}
	svc := NewTravelService(routes, estimator, nil, newTestClock(8, 0), nil, nil, TravelServiceConfig{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := svc.Minutes(context.Background(), travelSchedule(), "Kim", "Seoul Mapo-gu")
			assert.NotNil(t, got)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, routes.inserts)
	assert.Len(t, routes.rows, 1)
}
