package model

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

const (
	OfferActive      = "Active"
	OfferClosingSoon = "Closing Soon"
	OfferClosed      = "Closed"
)

// ErrOfferFull is returned by Join when the offer takes no more buyers.
var ErrOfferFull = errors.New("group offer is closed")

// GroupOffer is a row of live_grouping_properties.
type GroupOffer struct {
	ID            int64              `db:"id" json:"id"`
	Title         string             `db:"title" json:"title"`
	Developer     string             `db:"developer" json:"developer"`
	Location      string             `db:"location" json:"location"`
	OriginalPrice string             `db:"original_price" json:"original_price"`
	GroupPrice    string             `db:"group_price" json:"group_price"`
	Discount      *string            `db:"discount" json:"discount,omitempty"`
	Savings       *string            `db:"savings" json:"savings,omitempty"`
	Type          string             `db:"type" json:"type"`
	TotalSlots    int                `db:"total_slots" json:"total_slots"`
	FilledSlots   int                `db:"filled_slots" json:"filled_slots"`
	TimeLeft      *string            `db:"time_left" json:"time_left,omitempty"`
	MinBuyers     int                `db:"min_buyers" json:"min_buyers"`
	Benefits      pq.StringArray     `db:"benefits" json:"benefits"`
	Status        string             `db:"status" json:"status"`
	Area          *string            `db:"area" json:"area,omitempty"`
	Possession    *string            `db:"possession" json:"possession,omitempty"`
	ReraNumber    *string            `db:"rera_number" json:"rera_number,omitempty"`
	Facilities    pq.StringArray     `db:"facilities" json:"facilities"`
	Description   *string            `db:"description" json:"description,omitempty"`
	Advantages    types.NullJSONText `db:"advantages" json:"advantages"`
	GroupDetails  types.NullJSONText `db:"group_details" json:"group_details"`
	Images        pq.StringArray     `db:"images" json:"images"`
	Image         *string            `db:"image" json:"image,omitempty"`
	CreatedBy     *int64             `db:"created_by" json:"created_by,omitempty"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `db:"updated_at" json:"updated_at"`
}

// Join records one more buyer and derives the next status.
// Closed is terminal and there is no way back from Closing Soon to Active.
func (o *GroupOffer) Join() error {
	if o.Status == OfferClosed || o.FilledSlots >= o.TotalSlots {
		return ErrOfferFull
	}
	o.FilledSlots++
	o.DeriveStatus()
	return nil
}

// DeriveStatus moves the offer forward when its counters call for it: a full
// offer is Closed, and an Active offer that reached its minimum is Closing Soon.
// It never moves an offer back.
func (o *GroupOffer) DeriveStatus() {
	switch {
	case o.FilledSlots >= o.TotalSlots:
		o.Status = OfferClosed
	case o.FilledSlots > 0 && o.FilledSlots >= o.MinBuyers && o.Status == OfferActive:
		o.Status = OfferClosingSoon
	}
}

type OfferRequest struct {
	Title         string          `json:"title" validate:"required,max=255"`
	Developer     string          `json:"developer" validate:"required,max=255"`
	Location      string          `json:"location" validate:"required,max=255"`
	OriginalPrice string          `json:"originalPrice" validate:"required,max=100"`
	GroupPrice    string          `json:"groupPrice" validate:"required,max=100"`
	Discount      *string         `json:"discount,omitempty" validate:"omitempty,max=50"`
	Savings       *string         `json:"savings,omitempty" validate:"omitempty,max=100"`
	Type          string          `json:"type" validate:"required,max=50"`
	TotalSlots    int             `json:"totalSlots" validate:"required,min=1"`
	MinBuyers     int             `json:"minBuyers" validate:"min=0,ltefield=TotalSlots"`
	TimeLeft      *string         `json:"timeLeft,omitempty" validate:"omitempty,max=50"`
	Benefits      []string        `json:"benefits,omitempty"`
	Area          *string         `json:"area,omitempty" validate:"omitempty,max=100"`
	Possession    *string         `json:"possession,omitempty" validate:"omitempty,max=100"`
	ReraNumber    *string         `json:"reraNumber,omitempty" validate:"omitempty,max=100"`
	Facilities    []string        `json:"facilities,omitempty"`
	Description   *string         `json:"description,omitempty"`
	Advantages    json.RawMessage `json:"advantages,omitempty"`
	GroupDetails  json.RawMessage `json:"groupDetails,omitempty"`
}

// OfferPatch lists the fields a creator may change. Slot counters move only via Join.
type OfferPatch struct {
	Title         *string         `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Developer     *string         `json:"developer,omitempty" validate:"omitempty,min=1,max=255"`
	Location      *string         `json:"location,omitempty" validate:"omitempty,min=1,max=255"`
	OriginalPrice *string         `json:"original_price,omitempty" validate:"omitempty,max=100"`
	GroupPrice    *string         `json:"group_price,omitempty" validate:"omitempty,max=100"`
	Discount      *string         `json:"discount,omitempty" validate:"omitempty,max=50"`
	Savings       *string         `json:"savings,omitempty" validate:"omitempty,max=100"`
	Type          *string         `json:"type,omitempty" validate:"omitempty,max=50"`
	TotalSlots    *int            `json:"total_slots,omitempty" validate:"omitempty,min=1"`
	MinBuyers     *int            `json:"min_buyers,omitempty" validate:"omitempty,min=0"`
	TimeLeft      *string         `json:"time_left,omitempty" validate:"omitempty,max=50"`
	Benefits      []string        `json:"benefits,omitempty"`
	Area          *string         `json:"area,omitempty" validate:"omitempty,max=100"`
	Possession    *string         `json:"possession,omitempty" validate:"omitempty,max=100"`
	ReraNumber    *string         `json:"rera_number,omitempty" validate:"omitempty,max=100"`
	Facilities    []string        `json:"facilities,omitempty"`
	Description   *string         `json:"description,omitempty"`
	Advantages    json.RawMessage `json:"advantages,omitempty"`
	GroupDetails  json.RawMessage `json:"group_details,omitempty"`
}

// Apply copies the set fields onto o.
func (patch OfferPatch) Apply(o *GroupOffer) {
	setString(&o.Title, patch.Title)
	setString(&o.Developer, patch.Developer)
	setString(&o.Location, patch.Location)
	setString(&o.OriginalPrice, patch.OriginalPrice)
	setString(&o.GroupPrice, patch.GroupPrice)
	setOptional(&o.Discount, patch.Discount)
	setOptional(&o.Savings, patch.Savings)
	setString(&o.Type, patch.Type)
	if patch.TotalSlots != nil {
		o.TotalSlots = *patch.TotalSlots
	}
	if patch.MinBuyers != nil {
		o.MinBuyers = *patch.MinBuyers
	}
	setOptional(&o.TimeLeft, patch.TimeLeft)
	if patch.Benefits != nil {
		o.Benefits = pq.StringArray(patch.Benefits)
	}
	setOptional(&o.Area, patch.Area)
	setOptional(&o.Possession, patch.Possession)
	setOptional(&o.ReraNumber, patch.ReraNumber)
	if patch.Facilities != nil {
		o.Facilities = pq.StringArray(patch.Facilities)
	}
	setOptional(&o.Description, patch.Description)
	if len(patch.Advantages) > 0 {
		o.Advantages = JSONColumn(patch.Advantages)
	}
	if len(patch.GroupDetails) > 0 {
		o.GroupDetails = JSONColumn(patch.GroupDetails)
	}
}

// JSONColumn turns a raw request value into a nullable JSONB column value.
func JSONColumn(raw json.RawMessage) types.NullJSONText {
	if len(raw) == 0 || string(raw) == "null" {
		return types.NullJSONText{}
	}
	return types.NullJSONText{JSONText: types.JSONText(raw), Valid: true}
}
