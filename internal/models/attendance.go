package models

import "time"

// AttendanceWindow is the daily time range during which attendance may be
// marked. Hours are local to Timezone; StartHour > EndHour means the window
// wraps midnight.
type AttendanceWindow struct {
	Enabled      bool   `json:"enabled"`
	StartHour    int    `json:"start_hour"`
	EndHour      int    `json:"end_hour"`
	GraceMinutes int    `json:"grace_minutes"`
	Timezone     string `json:"timezone"`
}

// TimingClass classifies when a mark happened relative to the window.
type TimingClass struct {
	WindowOpen  bool `json:"window_open"`
	OnTime      bool `json:"on_time"`
	WithinGrace bool `json:"within_grace"`
}

// AttendanceRecord is one student's presence confirmation for one calendar
// day. Rows are created once and never mutated; uniqueness on
// (student_id, date) is enforced by the store.
type AttendanceRecord struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	Date           time.Time `db:"date" json:"date"`
	MarkedAt       time.Time `db:"marked_at" json:"marked_at"`
	Latitude       float64   `db:"latitude" json:"latitude"`
	Longitude      float64   `db:"longitude" json:"longitude"`
	DistanceM      float64   `db:"distance_m" json:"distance_from_center_m"`
	WithinGeofence bool      `db:"within_geofence" json:"within_geofence"`
	OnTime         bool      `db:"on_time" json:"on_time"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// AttendanceFilter scopes history queries.
type AttendanceFilter struct {
	StudentID string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

// AttendanceReportRow is one line of the per-date hostel report.
type AttendanceReportRow struct {
	StudentID   string     `db:"student_id" json:"student_id"`
	StudentName string     `db:"student_name" json:"student_name"`
	RoomNumber  *string    `db:"room_number" json:"room_number,omitempty"`
	MarkedAt    *time.Time `db:"marked_at" json:"marked_at,omitempty"`
	OnTime      *bool      `db:"on_time" json:"on_time,omitempty"`
	Present     bool       `db:"present" json:"present"`
}

// AttendanceSummary aggregates a student's presence over a range.
type AttendanceSummary struct {
	Present int     `json:"present"`
	Late    int     `json:"late"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}
