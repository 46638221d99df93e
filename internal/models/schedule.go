package models

import (
	"strings"
	"time"
)

// Write-time defaults applied when an admin or importer leaves fields blank.
const (
	ShootStartLead     = time.Hour
	ArrivalBeforeShoot = 30 * time.Minute
)

// PhotographerRole is the slot a photographer fills on a schedule.
type PhotographerRole string

const (
	RoleMain PhotographerRole = "main"
	RoleSub  PhotographerRole = "sub"
)

// Schedule is one wedding photography engagement.
type Schedule struct {
	ID                   int64      `db:"id" json:"id"`
	WeddingDate          time.Time  `db:"wedding_date" json:"wedding_date"`
	WeddingTime          *TimeOfDay `db:"wedding_time" json:"wedding_time,omitempty"`
	ShootStartTime       *TimeOfDay `db:"shoot_start_time" json:"shoot_start_time,omitempty"`
	Venue                string     `db:"venue" json:"venue"`
	VenueAddress         *string    `db:"venue_address" json:"venue_address,omitempty"`
	Couple               *string    `db:"couple" json:"couple,omitempty"`
	ArrivalTargetTime    *TimeOfDay `db:"arrival_target_time" json:"arrival_target_time,omitempty"`
	TravelMinutesDefault *int       `db:"travel_minutes_default" json:"travel_minutes_default,omitempty"`
	MainName             *string    `db:"main_name" json:"main_name,omitempty"`
	SubName              *string    `db:"sub_name" json:"sub_name,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
}

// RoleAssignment pairs a role with the photographer name filling it.
type RoleAssignment struct {
	Role PhotographerRole
	Name string
}

// DeriveTimes fills shoot start (wedding − 1h) and arrival target
// (shoot start − 30m) when they were left blank. It runs once per write.
func (s *Schedule) DeriveTimes() {
	if s.ShootStartTime == nil && s.WeddingTime != nil {
		shoot := s.WeddingTime.Add(-ShootStartLead)
		s.ShootStartTime = &shoot
	}
	if s.ArrivalTargetTime == nil && s.ShootStartTime != nil {
		arrival := s.ShootStartTime.Add(-ArrivalBeforeShoot)
		s.ArrivalTargetTime = &arrival
	}
}

// Assignments lists the non-empty main/sub slots in that order.
func (s Schedule) Assignments() []RoleAssignment {
	out := make([]RoleAssignment, 0, 2)
	if name := deref(s.MainName); name != "" {
		out = append(out, RoleAssignment{Role: RoleMain, Name: name})
	}
	if name := deref(s.SubName); name != "" {
		out = append(out, RoleAssignment{Role: RoleSub, Name: name})
	}
	return out
}

// HasPhotographer reports whether name fills either slot.
func (s Schedule) HasPhotographer(name string) bool {
	return name != "" && (deref(s.MainName) == name || deref(s.SubName) == name)
}

// Address returns the trimmed venue address or "".
func (s Schedule) Address() string {
	return strings.TrimSpace(deref(s.VenueAddress))
}

// ScheduleFilter narrows schedule listings.
type ScheduleFilter struct {
	From         *time.Time
	To           *time.Time
	Photographer string
	Venue        string
}

// StringPtr returns nil for blank strings and a trimmed copy otherwise.
func StringPtr(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}
