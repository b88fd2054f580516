package models

import "time"

// GatePassStatus is the persisted lifecycle status of a gate pass.
type GatePassStatus string

const (
	GatePassPendingParent GatePassStatus = "PENDING_PARENT"
	GatePassPendingWarden GatePassStatus = "PENDING_WARDEN"
	GatePassApproved      GatePassStatus = "APPROVED"
	GatePassRejected      GatePassStatus = "REJECTED"
	GatePassClosed        GatePassStatus = "CLOSED"
)

// Valid returns true when the status is a supported value.
func (s GatePassStatus) Valid() bool {
	switch s {
	case GatePassPendingParent, GatePassPendingWarden, GatePassApproved, GatePassRejected, GatePassClosed:
		return true
	default:
		return false
	}
}

// Pending reports whether the pass still awaits a decision.
func (s GatePassStatus) Pending() bool {
	return s == GatePassPendingParent || s == GatePassPendingWarden
}

// Terminal reports whether no further transition is allowed.
func (s GatePassStatus) Terminal() bool {
	return s == GatePassRejected || s == GatePassClosed
}

// GatePassState is the explicit, tagged view of a pass's position in the
// lifecycle. It distinguishes the sub-states that the persisted row keeps
// implicit as exit/entry timestamps, so callers switch over a closed set
// instead of inspecting timestamp nullness.
type GatePassState string

const (
	StatePendingParent     GatePassState = "PENDING_PARENT"
	StatePendingWarden     GatePassState = "PENDING_WARDEN"
	StateApprovedNotExited GatePassState = "APPROVED_NOT_EXITED"
	StateApprovedExited    GatePassState = "APPROVED_EXITED"
	StateClosedOnTime      GatePassState = "CLOSED_ON_TIME"
	StateClosedLate        GatePassState = "CLOSED_LATE"
	StateRejected          GatePassState = "REJECTED"
)

// Decision records one approval step on a pass.
type Decision struct {
	Approved  bool      `json:"approved"`
	DecidedBy string    `json:"decided_by"`
	DecidedAt time.Time `json:"decided_at"`
	Reason    *string   `json:"reason,omitempty"`
}

// GatePass is a request-and-approval record authorizing a student to leave
// and return to the hostel within a bounded period.
type GatePass struct {
	ID        string         `db:"id" json:"id"`
	StudentID string         `db:"student_id" json:"student_id"`
	Reason    string         `db:"reason" json:"reason"`
	FromDate  time.Time      `db:"from_date" json:"from_date"`
	ToDate    time.Time      `db:"to_date" json:"to_date"`
	Status    GatePassStatus `db:"status" json:"status"`

	ParentApproved  *bool      `db:"parent_approved" json:"parent_approved,omitempty"`
	ParentDecidedBy *string    `db:"parent_decided_by" json:"parent_decided_by,omitempty"`
	ParentDecidedAt *time.Time `db:"parent_decided_at" json:"parent_decided_at,omitempty"`
	ParentReason    *string    `db:"parent_reason" json:"parent_reason,omitempty"`

	WardenApproved  *bool      `db:"warden_approved" json:"warden_approved,omitempty"`
	WardenDecidedBy *string    `db:"warden_decided_by" json:"warden_decided_by,omitempty"`
	WardenDecidedAt *time.Time `db:"warden_decided_at" json:"warden_decided_at,omitempty"`
	WardenReason    *string    `db:"warden_reason" json:"warden_reason,omitempty"`

	ExitTime  *time.Time `db:"exit_time" json:"exit_time,omitempty"`
	EntryTime *time.Time `db:"entry_time" json:"entry_time,omitempty"`
	IsLate    bool       `db:"is_late" json:"is_late"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// State derives the tagged lifecycle state from the persisted fields.
func (p *GatePass) State() GatePassState {
	switch p.Status {
	case GatePassPendingParent:
		return StatePendingParent
	case GatePassPendingWarden:
		return StatePendingWarden
	case GatePassRejected:
		return StateRejected
	case GatePassApproved:
		if p.ExitTime != nil {
			return StateApprovedExited
		}
		return StateApprovedNotExited
	case GatePassClosed:
		if p.IsLate {
			return StateClosedLate
		}
		return StateClosedOnTime
	default:
		return StateRejected
	}
}

// Out reports whether the student is currently outside on this pass.
func (p *GatePass) Out() bool {
	return p.ExitTime != nil && p.EntryTime == nil
}

// LateDuration returns how long past the expected return the entry was
// recorded. Zero for on-time or still-open passes.
func (p *GatePass) LateDuration() time.Duration {
	if p.EntryTime == nil || !p.EntryTime.After(p.ToDate) {
		return 0
	}
	return p.EntryTime.Sub(p.ToDate)
}

// GatePassFilter scopes listing queries.
type GatePassFilter struct {
	StudentID string
	ParentID  string
	Status    *GatePassStatus
	Page      int
	PageSize  int
}

// GatePassLimits bounds creation per the hostel policy.
type GatePassLimits struct {
	MaxDays    int `json:"max_days"`
	MaxPending int `json:"max_pending"`
}

// LateReturnRow is one entry of the late-returns ledger projection.
type LateReturnRow struct {
	GatePass
	StudentName  string `db:"student_name" json:"student_name"`
	LateDuration string `json:"late_duration"`
}
