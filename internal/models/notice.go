package models

import "time"

// NoticeAudience scopes who a notice is shown to.
type NoticeAudience string

const (
	NoticeAudienceAll      NoticeAudience = "ALL"
	NoticeAudienceStudents NoticeAudience = "STUDENTS"
	NoticeAudienceParents  NoticeAudience = "PARENTS"
	NoticeAudienceStaff    NoticeAudience = "STAFF"
)

// Valid returns true when the audience is a supported value.
func (a NoticeAudience) Valid() bool {
	switch a {
	case NoticeAudienceAll, NoticeAudienceStudents, NoticeAudienceParents, NoticeAudienceStaff:
		return true
	default:
		return false
	}
}

// Notice is a hostel notice board entry.
type Notice struct {
	ID        string         `db:"id" json:"id"`
	Title     string         `db:"title" json:"title"`
	Body      string         `db:"body" json:"body"`
	Audience  NoticeAudience `db:"audience" json:"audience"`
	PostedBy  string         `db:"posted_by" json:"posted_by"`
	Pinned    bool           `db:"pinned" json:"pinned"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// NoticeFilter scopes notice listing.
type NoticeFilter struct {
	Audience *NoticeAudience
	Page     int
	PageSize int
}
