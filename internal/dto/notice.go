package dto

// CreateNoticeRequest publishes a new notice.
type CreateNoticeRequest struct {
	Title    string `json:"title" validate:"required,min=3,max=200"`
	Body     string `json:"body" validate:"required"`
	Audience string `json:"audience" validate:"required,oneof=ALL STUDENTS PARENTS STAFF"`
	Pinned   bool   `json:"pinned"`
}

// UpdateNoticeRequest edits an existing notice.
type UpdateNoticeRequest struct {
	Title    *string `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Body     *string `json:"body,omitempty"`
	Audience *string `json:"audience,omitempty" validate:"omitempty,oneof=ALL STUDENTS PARENTS STAFF"`
	Pinned   *bool   `json:"pinned,omitempty"`
}

// RaiseAlertRequest opens an emergency alert.
type RaiseAlertRequest struct {
	Message   string   `json:"message" validate:"required,min=3,max=1000"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}
