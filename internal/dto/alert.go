package dto

import (
	"time"

	"github.com/noah-isme/wedding-dispatch-api/internal/models"
)

// AlertRow is the evaluation of one (schedule, role, photographer) triple.
type AlertRow struct {
	Schedule       models.Schedule         `json:"schedule"`
	Role           models.PhotographerRole `json:"role"`
	Name           string                  `json:"name"`
	VenueAddress   string                  `json:"venue_address,omitempty"`
	TravelMinutes  *int                    `json:"travel_minutes,omitempty"`
	ArrivalTarget  *time.Time              `json:"arrival_target,omitempty"`
	WakeDeadline   *time.Time              `json:"wake_deadline,omitempty"`
	DepartDeadline *time.Time              `json:"depart_deadline,omitempty"`
	WakeOK         bool                    `json:"wake_ok"`
	DepartOK       bool                    `json:"depart_ok"`
	ArriveOK       bool                    `json:"arrive_ok"`
	WakeOverdue    bool                    `json:"wake_overdue"`
	DepartOverdue  bool                    `json:"depart_overdue"`
	ArriveOverdue  bool                    `json:"arrive_overdue"`
}

// Overdue reports whether any deadline is breached.
func (r AlertRow) Overdue() bool {
	return r.WakeOverdue || r.DepartOverdue || r.ArriveOverdue
}

// AlertQuery selects the evaluation window.
type AlertQuery struct {
	From        *time.Time
	To          *time.Time
	OnlyOverdue bool
}

// AlertBoard is the admin alert page payload.
type AlertBoard struct {
	Now   time.Time  `json:"now"`
	From  string     `json:"from"`
	To    string     `json:"to"`
	Only  bool       `json:"only"`
	Count int        `json:"count"`
	Rows  []AlertRow `json:"rows"`
}

// AlertFeedItem is the compact shape polled by the admin dashboard.
type AlertFeedItem struct {
	Key           string                  `json:"key"`
	ScheduleID    int64                   `json:"schedule_id"`
	Date          string                  `json:"date"`
	Venue         string                  `json:"venue"`
	WeddingTime   *string                 `json:"wedding_time"`
	ArrivalTarget *string                 `json:"arrival_target"`
	Name          string                  `json:"name"`
	Role          models.PhotographerRole `json:"role"`
	WakeOverdue   bool                    `json:"wake_overdue"`
	DepartOverdue bool                    `json:"depart_overdue"`
	ArriveOverdue bool                    `json:"arrive_overdue"`
	TravelMinutes *int                    `json:"travel_mins"`
}

// AlertFeed wraps overdue items with evaluation metadata.
type AlertFeed struct {
	OK     bool            `json:"ok"`
	Now    time.Time       `json:"now"`
	Count  int             `json:"count"`
	Alerts []AlertFeedItem `json:"alerts"`
}

// KeepaliveStatus tells uptime pingers whether the service must stay warm.
type KeepaliveStatus struct {
	Keepalive  bool      `json:"keepalive"`
	InWindow   bool      `json:"in_window"`
	HasWedding bool      `json:"has_wedding"`
	Today      string    `json:"today"`
	Now        time.Time `json:"now"`
}
