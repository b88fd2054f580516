package models

import "time"

// AlertStatus tracks the handling of an emergency alert.
type AlertStatus string

const (
	AlertOpen         AlertStatus = "OPEN"
	AlertAcknowledged AlertStatus = "ACKNOWLEDGED"
)

// EmergencyAlert is a student-raised SOS with the reported location.
// Delivery to staff devices is out of scope; this is the durable record.
type EmergencyAlert struct {
	ID             string      `db:"id" json:"id"`
	StudentID      string      `db:"student_id" json:"student_id"`
	Message        *string     `db:"message" json:"message,omitempty"`
	Latitude       *float64    `db:"latitude" json:"latitude,omitempty"`
	Longitude      *float64    `db:"longitude" json:"longitude,omitempty"`
	Status         AlertStatus `db:"status" json:"status"`
	AcknowledgedBy *string     `db:"acknowledged_by" json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time  `db:"acknowledged_at" json:"acknowledged_at,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
}
