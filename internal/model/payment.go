package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PurposeSubscription = "subscription"
	PurposeBooking      = "booking"

	OrderStatusCreated = "created"
	OrderStatusPaid    = "paid"
)

// PaymentOrder records a gateway order opened by the server, so that a
// verified payment can be bound to what it was opened for.
type PaymentOrder struct {
	OrderID   string          `db:"order_id" json:"order_id"`
	UserID    int64           `db:"user_id" json:"user_id"`
	Purpose   string          `db:"purpose" json:"purpose"`
	PlanID    *string         `db:"plan_id" json:"plan_id,omitempty"`
	BookingID *int64          `db:"booking_id" json:"booking_id,omitempty"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	Currency  string          `db:"currency" json:"currency"`
	Receipt   string          `db:"receipt" json:"receipt"`
	Status    string          `db:"status" json:"status"`
	PaymentID *string         `db:"payment_id" json:"payment_id,omitempty"`
	PaidAt    *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// PaymentProof is the triple a client returns after paying an order.
type PaymentProof struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

// PaymentIntent is what the client needs to open the gateway checkout.
type PaymentIntent struct {
	OrderID  string          `json:"orderId"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}
