package service

import (
	"github.com/noah-isme/wedding-dispatch-api/internal/models"
)

// TripScope is how far a confirmation spreads across a photographer's schedules.
type TripScope int

const (
	// ScopeDay covers every schedule of the photographer on the same date.
	ScopeDay TripScope = iota
	// ScopeVenue covers schedules on the same date at exactly the same venue.
	ScopeVenue
)

// SiblingScope returns the grouping scope of a confirmation kind. Waking up
// happens once per day; departing and arriving happen once per venue visit.
func SiblingScope(kind models.CheckinKind) TripScope {
	if kind == models.CheckinWake {
		return ScopeDay
	}
	return ScopeVenue
}

// VenueFilter returns the venue siblings must match, or nil for any venue.
func (sc TripScope) VenueFilter(ref models.Schedule) *string {
	if sc == ScopeDay {
		return nil
	}
	venue := ref.Venue
	return &venue
}

// IsSibling reports whether candidate belongs to the same trip as ref for
// name and kind.
func IsSibling(ref, candidate models.Schedule, name string, kind models.CheckinKind) bool {
	if !candidate.HasPhotographer(name) || !sameDay(ref, candidate) {
		return false
	}
	if venue := SiblingScope(kind).VenueFilter(ref); venue != nil {
		return candidate.Venue == *venue
	}
	return true
}

func sameDay(a, b models.Schedule) bool {
	ay, am, ad := a.WeddingDate.Date()
	by, bm, bd := b.WeddingDate.Date()
	return ay == by && am == bm && ad == bd
}

// tripKey identifies one photographer's visit to one venue on one day.
type tripKey struct {
	date  string
	venue string
	name  string
}

func tripKeyFor(s models.Schedule, name string) tripKey {
	return tripKey{date: s.WeddingDate.Format("2006-01-02"), venue: s.Venue, name: name}
}

// tripConfirmations records which kinds any checkin of a trip has confirmed.
type tripConfirmations map[tripKey]map[models.CheckinKind]bool

// indexTrips folds checkins into per-trip confirmation sets. Checkins whose
// schedule is not in schedules are ignored.
func indexTrips(schedules map[int64]models.Schedule, checkins []models.Checkin) tripConfirmations {
	out := make(tripConfirmations)
	for i := range checkins {
		c := &checkins[i]
		sched, ok := schedules[c.ScheduleID]
		if !ok {
			continue
		}
		key := tripKeyFor(sched, c.PhotographerName)
		for _, kind := range []models.CheckinKind{models.CheckinWake, models.CheckinDepart, models.CheckinArrive} {
			if c.Has(kind) {
				if out[key] == nil {
					out[key] = make(map[models.CheckinKind]bool, 3)
				}
				out[key][kind] = true
			}
		}
	}
	return out
}

func (t tripConfirmations) confirmed(s models.Schedule, name string, kind models.CheckinKind) bool {
	return t[tripKeyFor(s, name)][kind]
}
