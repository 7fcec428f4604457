package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentPostVisit = "postvisit"
	PaymentPreVisit  = "razorpay_previsit"

	PaymentPending   = "pending"
	PaymentCompleted = "completed"

	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
)

type Booking struct {
	ID               int64               `db:"id" json:"id"`
	PropertyID       *int64              `db:"property_id" json:"property_id"`
	PropertyTitle    string              `db:"property_title" json:"property_title"`
	PropertyLocation string              `db:"property_location" json:"property_location"`
	UserID           int64               `db:"user_id" json:"user_id"`
	UserEmail        string              `db:"user_email" json:"user_email"`
	VisitDate        time.Time           `db:"visit_date" json:"visit_date"`
	VisitTime        string              `db:"visit_time" json:"visit_time"`
	NumberOfPeople   int                 `db:"number_of_people" json:"number_of_people"`
	Person1Name      string              `db:"person1_name" json:"person1_name"`
	Person2Name      *string             `db:"person2_name" json:"person2_name,omitempty"`
	Person3Name      *string             `db:"person3_name" json:"person3_name,omitempty"`
	PickupAddress    *string             `db:"pickup_address" json:"pickup_address,omitempty"`
	PaymentMethod    string              `db:"payment_method" json:"payment_method"`
	PaymentStatus    string              `db:"payment_status" json:"payment_status"`
	OrderID          *string             `db:"razorpay_order_id" json:"razorpay_order_id,omitempty"`
	PaymentID        *string             `db:"razorpay_payment_id" json:"razorpay_payment_id,omitempty"`
	PaymentAmount    decimal.NullDecimal `db:"payment_amount" json:"payment_amount"`
	PaymentCurrency  string              `db:"payment_currency" json:"payment_currency"`
	PaymentTimestamp *time.Time          `db:"payment_timestamp" json:"payment_timestamp,omitempty"`
	Status           string              `db:"status" json:"status"`
	PropertyImage    *string             `db:"property_image" json:"property_image,omitempty"`
	CreatedAt        time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time           `db:"updated_at" json:"updated_at"`
}

// Prepaid reports whether the booking waits on a gateway payment.
func (b *Booking) Prepaid() bool { return b.PaymentMethod == PaymentPreVisit }

type BookingRequest struct {
	PropertyID     int64   `json:"property_id" validate:"required,gt=0"`
	VisitDate      string  `json:"visit_date" validate:"required,datetime=2006-01-02"`
	VisitTime      string  `json:"visit_time" validate:"required,max=20"`
	NumberOfPeople int     `json:"number_of_people" validate:"required,min=1,max=3"`
	Person1Name    string  `json:"person1_name" validate:"required,max=255"`
	Person2Name    *string `json:"person2_name,omitempty" validate:"omitempty,max=255"`
	Person3Name    *string `json:"person3_name,omitempty" validate:"omitempty,max=255"`
	PickupAddress  *string `json:"pickup_address,omitempty"`
	PaymentMethod  string  `json:"payment_method,omitempty" validate:"omitempty,oneof=postvisit razorpay_previsit"`
}

type BookingPaymentRequest struct {
	BookingID int64 `json:"booking_id" validate:"required,gt=0"`
	PaymentProof
}
