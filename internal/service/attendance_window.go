package service

import (
	"time"

	"github.com/HiteshShonak/hostel-ops-api/internal/models"
	appErrors "github.com/HiteshShonak/hostel-ops-api/pkg/errors"
)

// WindowOpen reports whether an attendance action is permitted at the given
// instant, ignoring grace. The instant is normalized to the configured hostel
// timezone before the hour is extracted, so results do not depend on the
// server's local clock.
func WindowOpen(now time.Time, window models.AttendanceWindow) (bool, error) {
	if !window.Enabled {
		return true, nil
	}
	local, err := inHostelTime(now, window.Timezone)
	if err != nil {
		return false, err
	}
	hour := local.Hour()
	if window.StartHour <= window.EndHour {
		return hour >= window.StartHour && hour < window.EndHour, nil
	}
	// StartHour > EndHour wraps midnight, e.g. 19:00-06:00.
	return hour >= window.StartHour || hour < window.EndHour, nil
}

// ClassifyTiming is the full classification: open, on-time and within-grace.
// Grace extends permission past the nominal close but the action is still
// recorded as late; it never widens the on-time range.
func ClassifyTiming(now time.Time, window models.AttendanceWindow) (*models.TimingClass, error) {
	open, err := WindowOpen(now, window)
	if err != nil {
		return nil, err
	}
	timing := &models.TimingClass{WindowOpen: open, OnTime: open}
	if open || !window.Enabled || window.GraceMinutes <= 0 {
		return timing, nil
	}

	local, err := inHostelTime(now, window.Timezone)
	if err != nil {
		return nil, err
	}
	// Minutes elapsed since the close boundary, wrapping across midnight so
	// an overnight window closing at 06:00 grants grace until 06:00+grace.
	minuteOfDay := local.Hour()*60 + local.Minute()
	sinceClose := (minuteOfDay - window.EndHour*60 + 24*60) % (24 * 60)
	timing.WithinGrace = sinceClose < window.GraceMinutes
	return timing, nil
}

func inHostelTime(now time.Time, timezone string) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid hostel timezone")
	}
	return now.In(loc), nil
}
