package models

import "time"

// AuditAction identifies the kind of audited operation.
type AuditAction string

const (
	AuditActionLogin           AuditAction = "LOGIN"
	AuditActionLogout          AuditAction = "LOGOUT"
	AuditActionSettingsUpdate  AuditAction = "SETTINGS_UPDATE"
	AuditActionGatePassDecide  AuditAction = "GATEPASS_DECIDE"
	AuditActionGatePassGateLog AuditAction = "GATEPASS_GATE_LOG"
	AuditActionAttendanceMark  AuditAction = "ATTENDANCE_MARK"
	AuditActionAlertRaise      AuditAction = "ALERT_RAISE"
)

// AuditLog records who did what for sensitive operations.
type AuditLog struct {
	ID         string      `db:"id" json:"id"`
	UserID     *string     `db:"user_id" json:"user_id,omitempty"`
	Action     AuditAction `db:"action" json:"action"`
	Resource   string      `db:"resource" json:"resource"`
	ResourceID *string     `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte      `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string      `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent  string      `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}
