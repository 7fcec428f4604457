package model

import (
	"time"

	"github.com/lib/pq"
)

const (
	ComplaintSubmitted   = "Submitted"
	ComplaintUnderReview = "Under Review"
	ComplaintInProgress  = "In Progress"
	ComplaintResolved    = "Resolved"
	ComplaintRejected    = "Rejected"
)

var complaintStatuses = map[string]bool{
	ComplaintSubmitted:   true,
	ComplaintUnderReview: true,
	ComplaintInProgress:  true,
	ComplaintResolved:    true,
	ComplaintRejected:    true,
}

// ValidComplaintStatus reports whether s is one of the complaint states.
func ValidComplaintStatus(s string) bool { return complaintStatuses[s] }

// Complaint is a row of complaints. UserID is nil for anonymous submissions.
type Complaint struct {
	ID               int64          `db:"id" json:"id"`
	UserID           *int64         `db:"user_id" json:"user_id"`
	Name             string         `db:"name" json:"name"`
	Email            string         `db:"email" json:"email"`
	Phone            string         `db:"phone" json:"phone"`
	ComplaintType    string         `db:"complaint_type" json:"complaint_type"`
	Location         string         `db:"location" json:"location"`
	Description      string         `db:"description" json:"description"`
	MediaURLs        pq.StringArray `db:"media_urls" json:"media_urls"`
	Status           string         `db:"status" json:"status"`
	AdminNotes       *string        `db:"admin_notes" json:"admin_notes,omitempty"`
	ResolutionPhotos pq.StringArray `db:"resolution_photos" json:"resolution_photos"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

type ComplaintRequest struct {
	Name          string `json:"name" validate:"required,max=255"`
	Email         string `json:"email" validate:"required,email,max=255"`
	Phone         string `json:"phone" validate:"required,max=20"`
	ComplaintType string `json:"complaint_type" validate:"required,max=100"`
	Location      string `json:"location" validate:"required,max=255"`
	Description   string `json:"description" validate:"required"`
}

type ComplaintStatusUpdate struct {
	Status     string  `json:"status" validate:"required"`
	AdminNotes *string `json:"admin_notes,omitempty"`
}

// ComplaintFilter drives the staff listing. An empty Status lists every state.
type ComplaintFilter struct {
	Status string
	Page
}

// Page is a limit/offset window over a listing.
type Page struct {
	Limit  int
	Offset int
}

// Lead is a callback request left by a visitor.
type Lead struct {
	ID              int64     `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	RequirementType string    `db:"requirement_type" json:"requirement_type"`
	Location        string    `db:"location" json:"location"`
	Phone           string    `db:"phone" json:"phone"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

type LeadRequest struct {
	Name            string `json:"name" validate:"required,max=255"`
	RequirementType string `json:"requirement_type" validate:"required,max=50"`
	Location        string `json:"location" validate:"required,max=255"`
	Phone           string `json:"phone" validate:"required,max=20"`
}
