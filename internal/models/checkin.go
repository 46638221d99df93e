package models

import "time"

// CheckinKind is one of the three confirmations a photographer sends.
type CheckinKind string

const (
	CheckinWake   CheckinKind = "wake"
	CheckinDepart CheckinKind = "depart"
	CheckinArrive CheckinKind = "arrive"
)

// Valid reports whether k is a known kind.
func (k CheckinKind) Valid() bool {
	switch k {
	case CheckinWake, CheckinDepart, CheckinArrive:
		return true
	}
	return false
}

// Checkin tracks confirmations for one (schedule, photographer) pair.
type Checkin struct {
	ID               int64      `db:"id" json:"id"`
	ScheduleID       int64      `db:"schedule_id" json:"schedule_id"`
	PhotographerName string     `db:"photographer_name" json:"photographer_name"`
	WakeTime         *time.Time `db:"wake_time" json:"wake_time,omitempty"`
	DepartTime       *time.Time `db:"depart_time" json:"depart_time,omitempty"`
	ArriveTime       *time.Time `db:"arrive_time" json:"arrive_time,omitempty"`
	ArrivePhotoPath  *string    `db:"arrive_photo_path" json:"arrive_photo_path,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// Has reports whether the timestamp for kind is set.
func (c *Checkin) Has(kind CheckinKind) bool {
	if c == nil {
		return false
	}
	switch kind {
	case CheckinWake:
		return c.WakeTime != nil
	case CheckinDepart:
		return c.DepartTime != nil
	case CheckinArrive:
		return c.ArriveTime != nil
	}
	return false
}

// Apply records a confirmation of kind at ts. Fields already set are kept;
// later stages back-fill earlier ones that are still empty. A non-empty
// photo replaces any previous one. It returns whether anything changed.
func (c *Checkin) Apply(kind CheckinKind, ts time.Time, photo string) bool {
	changed := false
	set := func(field **time.Time) {
		if *field == nil {
			v := ts
			*field = &v
			changed = true
		}
	}

	switch kind {
	case CheckinWake:
		set(&c.WakeTime)
	case CheckinDepart:
		set(&c.WakeTime)
		set(&c.DepartTime)
	case CheckinArrive:
		set(&c.WakeTime)
		set(&c.DepartTime)
		set(&c.ArriveTime)
	}

	if photo != "" && (c.ArrivePhotoPath == nil || *c.ArrivePhotoPath != photo) {
		p := photo
		c.ArrivePhotoPath = &p
		changed = true
	}
	if changed {
		c.UpdatedAt = ts
	}
	return changed
}

// CheckinPhoto joins an arrival photo with its schedule for the admin board.
type CheckinPhoto struct {
	CheckinID        int64      `db:"checkin_id" json:"checkin_id"`
	ScheduleID       int64      `db:"schedule_id" json:"schedule_id"`
	PhotographerName string     `db:"photographer_name" json:"photographer_name"`
	PhotoRef         string     `db:"arrive_photo_path" json:"-"`
	ArriveTime       *time.Time `db:"arrive_time" json:"arrive_time,omitempty"`
	WeddingDate      time.Time  `db:"wedding_date" json:"wedding_date"`
	Venue            string     `db:"venue" json:"venue"`
}
