package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Subscription is the paid-access window embedded in a users row.
// A nil Expiry on a subscribed user means the window never closes.
type Subscription struct {
	IsSubscribed bool                `db:"is_subscribed" json:"isSubscribed"`
	Expiry       *time.Time          `db:"subscription_expiry" json:"expiry"`
	Plan         *string             `db:"subscription_plan" json:"plan"`
	Price        decimal.NullDecimal `db:"subscription_price" json:"price"`
	SubscribedAt *time.Time          `db:"subscribed_at" json:"subscribedAt"`
}

type User struct {
	ID       int64   `db:"id" json:"id"`
	Email    string  `db:"email" json:"email"`
	Name     string  `db:"name" json:"name"`
	Phone    *string `db:"phone" json:"phone,omitempty"`
	UserType string  `db:"user_type" json:"user_type"`
	Subscription
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

const (
	UserTypeIndividual = "individual"
	UserTypeDeveloper  = "developer"
)
