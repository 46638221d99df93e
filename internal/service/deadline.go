package service

import (
	"time"

	"github.com/noah-isme/wedding-dispatch-api/internal/models"
)

// Read-time deadline offsets.
const (
	ArrivalBeforeWedding  = 2 * time.Hour
	WakeBeforeArrival     = 2 * time.Hour
	DefaultTravelDuration = 60 * time.Minute
)

// Deadlines are the computed wake, depart and arrival-target instants of one
// schedule. All are nil when the schedule has no wedding time.
type Deadlines struct {
	ArrivalTarget *time.Time
	Wake          *time.Time
	Depart        *time.Time
}

// ComputeDeadlines derives deadlines for s in loc. A stored arrival target
// wins over the wedding − 2h fallback. travel is the resolved travel time in
// minutes; nil falls back to a 60 minute buffer.
func ComputeDeadlines(s models.Schedule, travel *int, loc *time.Location) Deadlines {
	if s.WeddingTime == nil {
		return Deadlines{}
	}
	if loc == nil {
		loc = time.Local
	}

	var arrival time.Time
	if s.ArrivalTargetTime != nil {
		arrival = s.ArrivalTargetTime.On(s.WeddingDate, loc)
	} else {
		arrival = s.WeddingTime.On(s.WeddingDate, loc).Add(-ArrivalBeforeWedding)
	}
	wake := arrival.Add(-WakeBeforeArrival)

	buffer := DefaultTravelDuration
	if travel != nil {
		buffer = time.Duration(*travel) * time.Minute
	}
	depart := arrival.Add(-buffer)

	return Deadlines{ArrivalTarget: &arrival, Wake: &wake, Depart: &depart}
}

// overdue reports whether deadline has passed at now without confirmation.
func overdue(deadline *time.Time, now time.Time, ok bool) bool {
	return deadline != nil && !now.Before(*deadline) && !ok
}
