package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HiteshShonak/hostel-ops-api/internal/models"
)

func eveningWindow() models.AttendanceWindow {
	return models.AttendanceWindow{
		Enabled:      true,
		StartHour:    19,
		EndHour:      20,
		GraceMinutes: 15,
		Timezone:     "Asia/Kolkata",
	}
}

func kolkataTime(t *testing.T, hour, minute int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return time.Date(2024, 3, 11, hour, minute, 0, 0, loc)
}

func TestWindowOpenSimpleRange(t *testing.T) {
	window := eveningWindow()

	cases := []struct {
		hour, minute int
		open         bool
	}{
		{18, 59, false},
		{19, 0, true},
		{19, 30, true},
		{19, 59, true},
		{20, 0, false},
		{23, 0, false},
	}
	for _, tc := range cases {
		open, err := WindowOpen(kolkataTime(t, tc.hour, tc.minute), window)
		require.NoError(t, err)
		assert.Equalf(t, tc.open, open, "at %02d:%02d", tc.hour, tc.minute)
	}
}

func TestWindowOpenOvernightWrap(t *testing.T) {
	window := eveningWindow()
	window.StartHour = 19
	window.EndHour = 6

	cases := []struct {
		hour int
		open bool
	}{
		{23, true},
		{12, false},
		{19, true},
		{6, false},
		{0, true},
		{5, true},
	}
	for _, tc := range cases {
		open, err := WindowOpen(kolkataTime(t, tc.hour, 0), window)
		require.NoError(t, err)
		assert.Equalf(t, tc.open, open, "at hour %d", tc.hour)
	}
}

func TestWindowOpenDisabled(t *testing.T) {
	window := eveningWindow()
	window.Enabled = false

	open, err := WindowOpen(kolkataTime(t, 3, 0), window)
	require.NoError(t, err)
	assert.True(t, open)
}

func TestWindowOpenNormalizesTimezone(t *testing.T) {
	window := eveningWindow()

	// 14:00 UTC is 19:30 in Asia/Kolkata: open in hostel time even though
	// the UTC hour is far outside the window.
	now := time.Date(2024, 3, 11, 14, 0, 0, 0, time.UTC)
	open, err := WindowOpen(now, window)
	require.NoError(t, err)
	assert.True(t, open)
}

func TestClassifyTimingGracePreservesLateness(t *testing.T) {
	window := eveningWindow()

	timing, err := ClassifyTiming(kolkataTime(t, 19, 30), window)
	require.NoError(t, err)
	assert.True(t, timing.WindowOpen)
	assert.True(t, timing.OnTime)

	// 20:10 is past close but inside the 15 minute grace: permitted, late.
	timing, err = ClassifyTiming(kolkataTime(t, 20, 10), window)
	require.NoError(t, err)
	assert.False(t, timing.WindowOpen)
	assert.False(t, timing.OnTime)
	assert.True(t, timing.WithinGrace)

	timing, err = ClassifyTiming(kolkataTime(t, 20, 20), window)
	require.NoError(t, err)
	assert.False(t, timing.WithinGrace)
}

func TestClassifyTimingGraceAcrossMidnight(t *testing.T) {
	window := eveningWindow()
	window.StartHour = 19
	window.EndHour = 6
	window.GraceMinutes = 30

	timing, err := ClassifyTiming(kolkataTime(t, 6, 20), window)
	require.NoError(t, err)
	assert.False(t, timing.WindowOpen)
	assert.True(t, timing.WithinGrace)

	timing, err = ClassifyTiming(kolkataTime(t, 6, 45), window)
	require.NoError(t, err)
	assert.False(t, timing.WithinGrace)
}

func TestClassifyTimingBadTimezone(t *testing.T) {
	window := eveningWindow()
	window.Timezone = "Not/AZone"

	_, err := ClassifyTiming(time.Now(), window)
	require.Error(t, err)
}
