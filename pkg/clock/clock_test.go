package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowContains(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)
	w, err := ParseWindow("06:00", "17:00")
	require.NoError(t, err)

	assert.False(t, w.Contains(time.Date(2026, 5, 2, 5, 59, 0, 0, loc)))
	assert.True(t, w.Contains(time.Date(2026, 5, 2, 6, 0, 0, 0, loc)))
	assert.True(t, w.Contains(time.Date(2026, 5, 2, 17, 0, 0, 0, loc)))
	assert.False(t, w.Contains(time.Date(2026, 5, 2, 17, 0, 1, 0, loc)))
}

func TestParseWindowRejectsInvertedBounds(t *testing.T) {
	_, err := ParseWindow("17:00", "06:00")
	assert.Error(t, err)
	_, err = ParseWindow("6am", "17:00")
	assert.Error(t, err)
}

func TestAtKeepsCalendarDayOfUTCDate(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)
	date := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)

	got := At(date, 11, 0, loc)
	assert.Equal(t, time.Date(2026, 5, 2, 11, 0, 0, 0, loc), got)
}

func TestManualClockAdvance(t *testing.T) {
	start := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)
	c := NewManual(start)
	assert.Equal(t, start, c.Now())
	assert.Equal(t, start.Add(time.Minute), c.Advance(time.Minute))
}

func TestNewZonedFallsBackOnUnknownZone(t *testing.T) {
	z, err := NewZoned("Not/AZone")
	assert.Error(t, err)
	require.NotNil(t, z)
	_, offset := z.Now().Zone()
	assert.Equal(t, 9*60*60, offset)
}
