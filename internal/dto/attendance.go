package dto

import (
	"time"

	"github.com/HiteshShonak/hostel-ops-api/internal/models"
)

// MarkAttendanceRequest carries the student's reported location. Pointers
// keep a literal 0 coordinate distinguishable from an omitted field.
type MarkAttendanceRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
}

// MarkAttendanceResponse reports the stored record and how the mark was
// classified.
type MarkAttendanceResponse struct {
	Record      models.AttendanceRecord `json:"record"`
	DistanceM   float64                 `json:"distance_from_center_m"`
	OnTime      bool                    `json:"on_time"`
	WithinGrace bool                    `json:"within_grace"`
}

// TodayAttendanceResponse is the student's own status for the current day.
type TodayAttendanceResponse struct {
	Marked bool                     `json:"marked"`
	Record *models.AttendanceRecord `json:"record,omitempty"`
}

// AttendanceHistoryQuery scopes the history listing.
type AttendanceHistoryQuery struct {
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// DailyReportResponse is the warden's per-date hostel roll call.
type DailyReportResponse struct {
	Date    string                       `json:"date"`
	Present int                          `json:"present"`
	Absent  int                          `json:"absent"`
	Rows    []models.AttendanceReportRow `json:"rows"`
}
