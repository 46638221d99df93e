package dto

import (
	"time"

	"github.com/noah-isme/wedding-dispatch-api/internal/models"
)

// ConfirmRequest is a single wake/depart/arrive confirmation.
type ConfirmRequest struct {
	ScheduleID       int64              `json:"schedule_id" validate:"required,gt=0"`
	PhotographerName string             `json:"-" validate:"required"`
	Kind             models.CheckinKind `json:"kind" validate:"required,oneof=wake depart arrive"`
	At               time.Time          `json:"-"`
	PhotoRef         string             `json:"-"`
}

// ConfirmResult reports what a confirmation did. Skipped confirmations are
// not errors; Reason says why nothing was written.
type ConfirmResult struct {
	Applied     bool    `json:"applied"`
	Reason      string  `json:"reason,omitempty"`
	ScheduleIDs []int64 `json:"schedule_ids,omitempty"`
	Updated     int     `json:"updated"`
}

// Skip reasons.
const (
	SkipScheduleNotFound = "schedule_not_found"
	SkipNotAssigned      = "not_assigned"
	SkipUnsupportedPhoto = "unsupported_photo"
	SkipMissingPhoto     = "missing_photo"
)

// MyScheduleItem is one of the photographer's own engagements this week.
type MyScheduleItem struct {
	Schedule models.Schedule `json:"schedule"`
	Checkin  *models.Checkin `json:"checkin,omitempty"`
	WokeDay  bool            `json:"woke_day"`
	Departed bool            `json:"departed"`
	Arrived  bool            `json:"arrived"`
}

// MyWeek is the photographer's Monday–Sunday view.
type MyWeek struct {
	Start string           `json:"start"`
	End   string           `json:"end"`
	Items []MyScheduleItem `json:"items"`
}

// PhotoItem is an arrival photo entry on the admin board.
type PhotoItem struct {
	models.CheckinPhoto
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
