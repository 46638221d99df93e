// Package clock supplies "now" in the single civil time zone the agency
// operates in, plus the daily service-hours window used by keepalive pings.
package clock

import (
	"fmt"
	"sync"
	"time"
)

// DefaultZone is used when the configured zone cannot be loaded.
const DefaultZone = "Asia/Seoul"

// Clock returns the current instant in a fixed location.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// Zoned is the production clock.
type Zoned struct {
	loc *time.Location
	now func() time.Time
}

// NewZoned loads the named zone. An empty or unknown name falls back to a
// fixed +09:00 offset so the service never starts in UTC by accident.
func NewZoned(name string) (*Zoned, error) {
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return &Zoned{loc: time.FixedZone("KST", 9*60*60), now: time.Now}, fmt.Errorf("load location %q: %w", name, err)
	}
	return &Zoned{loc: loc, now: time.Now}, nil
}

// Now returns the current time in the clock's zone.
func (z *Zoned) Now() time.Time { return z.now().In(z.loc) }

// Location returns the clock's zone.
func (z *Zoned) Location() *time.Location { return z.loc }

// Manual is a settable clock for tests and replay tooling.
type Manual struct {
	mu      sync.Mutex
	current time.Time
}

// NewManual returns a clock frozen at start.
func NewManual(start time.Time) *Manual {
	return &Manual{current: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Manual) Location() *time.Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Location()
}

// Set moves the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.current = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Add(d)
	return m.current
}

// DateOf truncates t to midnight of its calendar day in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// At combines the calendar day of date with hour:minute in loc. The day is
// read from date's own fields so DATE columns scanned as UTC midnight keep
// their calendar day.
func At(date time.Time, hour, minute int, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)
}

// Window is a daily [Start, End] interval expressed in minutes after midnight.
type Window struct {
	Start int
	End   int
}

// ParseWindow reads "HH:MM" bounds.
func ParseWindow(start, end string) (Window, error) {
	s, err := parseHHMM(start)
	if err != nil {
		return Window{}, fmt.Errorf("parse window start: %w", err)
	}
	e, err := parseHHMM(end)
	if err != nil {
		return Window{}, fmt.Errorf("parse window end: %w", err)
	}
	if e < s {
		return Window{}, fmt.Errorf("window end %s before start %s", end, start)
	}
	return Window{Start: s, End: e}, nil
}

// Contains reports whether t's wall clock falls inside the window, inclusive
// of both bounds.
func (w Window) Contains(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	if m == w.End && (t.Second() > 0 || t.Nanosecond() > 0) {
		return false
	}
	return m >= w.Start && m <= w.End
}

func parseHHMM(raw string) (int, error) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
