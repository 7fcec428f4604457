package model

import (
	"time"

	"github.com/lib/pq"
)

const (
	PropertyActive  = "active"
	PropertyExpired = "expired"
	PropertyPending = "pending"
)

type Property struct {
	ID                 int64          `db:"id" json:"id"`
	Title              string         `db:"title" json:"title"`
	Type               string         `db:"type" json:"type"`
	Location           string         `db:"location" json:"location"`
	Price              string         `db:"price" json:"price"`
	BHK                *string        `db:"bhk" json:"bhk,omitempty"`
	Description        *string        `db:"description" json:"description,omitempty"`
	Facilities         pq.StringArray `db:"facilities" json:"facilities"`
	ImageURL           *string        `db:"image_url" json:"image_url,omitempty"`
	Images             pq.StringArray `db:"images" json:"images"`
	UserID             int64          `db:"user_id" json:"user_id"`
	UserType           string         `db:"user_type" json:"user_type"`
	CompanyName        *string        `db:"company_name" json:"company_name,omitempty"`
	ProjectName        *string        `db:"project_name" json:"project_name,omitempty"`
	TotalUnits         *string        `db:"total_units" json:"total_units,omitempty"`
	CompletionDate     *string        `db:"completion_date" json:"completion_date,omitempty"`
	ReraNumber         *string        `db:"rera_number" json:"rera_number,omitempty"`
	SubscriptionExpiry *time.Time     `db:"subscription_expiry" json:"subscription_expiry,omitempty"`
	Status             string         `db:"status" json:"status"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// PropertyRequest is the create body. Update uses PropertyPatch.
type PropertyRequest struct {
	Title          string   `json:"title" validate:"required,max=255"`
	Type           string   `json:"type" validate:"required,max=50"`
	Location       string   `json:"location" validate:"required,max=255"`
	Price          string   `json:"price" validate:"required,max=100"`
	BHK            *string  `json:"bhk,omitempty" validate:"omitempty,max=20"`
	Description    *string  `json:"description,omitempty"`
	Facilities     []string `json:"facilities,omitempty"`
	CompanyName    *string  `json:"company_name,omitempty" validate:"omitempty,max=255"`
	ProjectName    *string  `json:"project_name,omitempty" validate:"omitempty,max=255"`
	TotalUnits     *string  `json:"total_units,omitempty" validate:"omitempty,max=50"`
	CompletionDate *string  `json:"completion_date,omitempty" validate:"omitempty,max=50"`
	ReraNumber     *string  `json:"rera_number,omitempty" validate:"omitempty,max=100"`
}

// PropertyPatch carries only the fields the owner wants to change.
type PropertyPatch struct {
	Title          *string  `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Type           *string  `json:"type,omitempty" validate:"omitempty,min=1,max=50"`
	Location       *string  `json:"location,omitempty" validate:"omitempty,min=1,max=255"`
	Price          *string  `json:"price,omitempty" validate:"omitempty,min=1,max=100"`
	BHK            *string  `json:"bhk,omitempty" validate:"omitempty,max=20"`
	Description    *string  `json:"description,omitempty"`
	Facilities     []string `json:"facilities,omitempty"`
	CompanyName    *string  `json:"company_name,omitempty" validate:"omitempty,max=255"`
	ProjectName    *string  `json:"project_name,omitempty" validate:"omitempty,max=255"`
	TotalUnits     *string  `json:"total_units,omitempty" validate:"omitempty,max=50"`
	CompletionDate *string  `json:"completion_date,omitempty" validate:"omitempty,max=50"`
	ReraNumber     *string  `json:"rera_number,omitempty" validate:"omitempty,max=100"`
}

// Apply copies the non-nil fields of the patch onto p.
func (patch PropertyPatch) Apply(p *Property) {
	setString(&p.Title, patch.Title)
	setString(&p.Type, patch.Type)
	setString(&p.Location, patch.Location)
	setString(&p.Price, patch.Price)
	setOptional(&p.BHK, patch.BHK)
	setOptional(&p.Description, patch.Description)
	if patch.Facilities != nil {
		p.Facilities = pq.StringArray(patch.Facilities)
	}
	setOptional(&p.CompanyName, patch.CompanyName)
	setOptional(&p.ProjectName, patch.ProjectName)
	setOptional(&p.TotalUnits, patch.TotalUnits)
	setOptional(&p.CompletionDate, patch.CompletionDate)
	setOptional(&p.ReraNumber, patch.ReraNumber)
}

// PropertyFilter drives the public listing.
type PropertyFilter struct {
	Status string
	Limit  int
	Offset int
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setOptional(dst **string, v *string) {
	if v != nil {
		s := *v
		*dst = &s
	}
}
