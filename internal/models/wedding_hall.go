package models

import "time"

// WeddingHall maps a venue name to its canonical address.
type WeddingHall struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   *string   `db:"address" json:"address,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RouteEstimate caches a travel-time lookup for one (schedule, photographer).
type RouteEstimate struct {
	ID               int64     `db:"id" json:"id"`
	ScheduleID       int64     `db:"schedule_id" json:"schedule_id"`
	PhotographerName string    `db:"photographer_name" json:"photographer_name"`
	Minutes          int       `db:"minutes" json:"minutes"`
	Provider         string    `db:"provider" json:"provider"`
	ComputedAt       time.Time `db:"computed_at" json:"computed_at"`
}
