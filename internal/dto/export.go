package dto

import "time"

// CreateExportRequest queues a background report export.
type CreateExportRequest struct {
	Kind   string     `json:"kind" validate:"required,oneof=attendance_daily late_returns"`
	Format string     `json:"format" validate:"required,oneof=csv pdf"`
	Date   *time.Time `json:"date,omitempty"`
	From   *time.Time `json:"from,omitempty"`
	To     *time.Time `json:"to,omitempty"`
}
