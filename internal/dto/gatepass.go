package dto

import (
	"time"

	"github.com/HiteshShonak/hostel-ops-api/internal/models"
)

// CreateGatePassRequest opens a new pass request for the caller.
type CreateGatePassRequest struct {
	Reason   string    `json:"reason" validate:"required,min=3,max=500"`
	FromDate time.Time `json:"from_date" validate:"required"`
	ToDate   time.Time `json:"to_date" validate:"required"`
}

// DecisionRequest records an approve or reject step.
type DecisionRequest struct {
	Approved bool    `json:"approved"`
	Reason   *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// GatePassView augments the stored pass with its derived lifecycle state.
type GatePassView struct {
	models.GatePass
	State models.GatePassState `json:"state"`
}

// NewGatePassView wraps a pass with its derived state.
func NewGatePassView(pass *models.GatePass) GatePassView {
	return GatePassView{GatePass: *pass, State: pass.State()}
}

// GatePassListResponse is a paginated pass listing.
type GatePassListResponse struct {
	Items      []GatePassView     `json:"items"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
}

// CurrentlyOutRow is one student presently outside the hostel.
type CurrentlyOutRow struct {
	GatePassView
	OutSince time.Time `json:"out_since"`
}
