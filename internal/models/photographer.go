package models

import "time"

// Photographer status values.
const (
	PhotographerActive   = "active"
	PhotographerInactive = "inactive"
)

// Photographer is a staff member. Schedules and checkins reference it by name.
type Photographer struct {
	ID           int64      `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	IsAdmin      bool       `db:"is_admin" json:"is_admin"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	Gender       *string    `db:"gender" json:"gender,omitempty"`
	Role         *string    `db:"role" json:"role,omitempty"`
	Address      *string    `db:"address" json:"address,omitempty"`
	Region       *string    `db:"region" json:"region,omitempty"`
	HasCar       *bool      `db:"has_car" json:"has_car,omitempty"`
	StartDate    *time.Time `db:"start_date" json:"start_date,omitempty"`
	Status       string     `db:"status" json:"status"`
	Memo         *string    `db:"memo" json:"memo,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// AddressValue returns the contact address used for travel estimation.
func (p *Photographer) AddressValue() string {
	if p == nil {
		return ""
	}
	return deref(p.Address)
}
