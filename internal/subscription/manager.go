// Package subscription sells time-boxed listing access and keeps the
// subscription window on the users row.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/badabuilder/marketplace/internal/apperr"
	"github.com/badabuilder/marketplace/internal/gateway"
	"github.com/badabuilder/marketplace/internal/model"
	"github.com/badabuilder/marketplace/internal/notify"
	"github.com/badabuilder/marketplace/internal/store"
)

// Gateway is the part of the payment gateway the manager needs.
type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*gateway.Order, error)
	VerifyPayment(orderID, paymentID, signature string) (bool, error)
}

type OrderResult struct {
	OrderID  string          `json:"orderId"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Plan     string          `json:"plan"`
	Duration int             `json:"duration"`
}

type VerifyRequest struct {
	model.PaymentProof
	PlanID string `json:"plan_id" validate:"required"`
}

type Status struct {
	IsSubscribed bool                `json:"isSubscribed"`
	Expiry       *time.Time          `json:"expiry"`
	Plan         *string             `json:"plan"`
	Price        decimal.NullDecimal `json:"price"`
	SubscribedAt *time.Time          `json:"subscribedAt"`
}

type Manager struct {
	repo     store.Repository
	gw       Gateway
	log      *logrus.Logger
	currency string
	now      func() time.Time
}

func NewManager(repo store.Repository, gw Gateway, currency string, log *logrus.Logger) *Manager {
	if currency == "" {
		currency = "INR"
	}
	return &Manager{repo: repo, gw: gw, log: log, currency: currency, now: time.Now}
}

// IsEligible reports whether sub grants listing rights at now.
// A subscribed user with no expiry never lapses.
func IsEligible(sub model.Subscription, now time.Time) bool {
	return sub.IsSubscribed && (sub.Expiry == nil || sub.Expiry.After(now))
}

// NextExpiry extends an unexpired window from its end and restarts a
// lapsed or missing one from now.
func NextExpiry(current *time.Time, now time.Time, months int) time.Time {
	if current != nil && current.After(now) {
		return current.AddDate(0, months, 0)
	}
	return now.AddDate(0, months, 0)
}

func (m *Manager) CreateOrder(ctx context.Context, userID int64, planID string) (*OrderResult, error) {
	plan, err := LookupPlan(planID)
	if err != nil {
		return nil, err
	}
	now := m.now()
	receipt := fmt.Sprintf("subscription_%d_%d", userID, now.UnixMilli())
	order, err := m.gw.CreateOrder(ctx, plan.Price, m.currency, receipt)
	if err != nil {
		return nil, err
	}
	err = m.repo.CreatePaymentOrder(ctx, &model.PaymentOrder{
		OrderID:   order.ID,
		UserID:    userID,
		Purpose:   model.PurposeSubscription,
		PlanID:    &plan.ID,
		Amount:    plan.Price,
		Currency:  m.currency,
		Receipt:   receipt,
		Status:    model.OrderStatusCreated,
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("record subscription order: %w", err)
	}
	m.log.WithFields(logrus.Fields{"user_id": userID, "plan": plan.ID, "order_id": order.ID}).Info("subscription order created")
	return &OrderResult{
		OrderID:  order.ID,
		Amount:   plan.Price,
		Currency: m.currency,
		Plan:     plan.ID,
		Duration: plan.Duration,
	}, nil
}

// Verify checks the checkout signature and activates the plan it paid for.
// Nothing is written when the signature does not match.
func (m *Manager) Verify(ctx context.Context, userID int64, req VerifyRequest) (*Status, error) {
	ok, err := m.gw.VerifyPayment(req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.PaymentVerificationFailed("Payment verification failed")
	}
	plan, err := LookupPlan(req.PlanID)
	if err != nil {
		return nil, err
	}
	return m.ActivateOrExtend(ctx, userID, plan, req.OrderID, req.PaymentID)
}

// ActivateOrExtend settles a verified payment against the order it was made
// for. Replaying the same payment returns the current state unchanged.
func (m *Manager) ActivateOrExtend(ctx context.Context, userID int64, plan Plan, orderID, paymentID string) (*Status, error) {
	now := m.now()
	var out *Status
	err := m.repo.InTx(ctx, func(q store.Queries) error {
		order, err := q.GetPaymentOrder(ctx, orderID, true)
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Validation("unknown payment order")
		}
		if err != nil {
			return err
		}
		if order.UserID != userID || order.Purpose != model.PurposeSubscription {
			return apperr.Validation("payment order does not belong to this subscription")
		}
		if order.PlanID == nil || *order.PlanID != plan.ID {
			return apperr.Validation("payment order was opened for a different plan")
		}

		u, err := q.GetUser(ctx, userID, true)
		if err != nil {
			return err
		}

		if order.Status == model.OrderStatusPaid {
			if order.PaymentID != nil && *order.PaymentID == paymentID {
				out = statusOf(u.Subscription, now)
				return nil
			}
			return apperr.Conflict("payment order already settled")
		}

		sub := u.Subscription
		expiry := NextExpiry(sub.Expiry, now, plan.Duration)
		sub.IsSubscribed = true
		sub.Expiry = &expiry
		sub.Plan = &plan.ID
		sub.Price = decimal.NewNullDecimal(plan.Price)
		if sub.SubscribedAt == nil {
			sub.SubscribedAt = &now
		}
		if err := q.SaveSubscription(ctx, userID, sub, now); err != nil {
			return err
		}
		if err := q.MarkPaymentOrderPaid(ctx, orderID, paymentID, now); err != nil {
			return err
		}

		n, err := notify.SubscriptionConfirmation(u.Email, plan.ID, plan.Price, &expiry, now)
		if err != nil {
			return err
		}
		if err := q.EnqueueNotification(ctx, n); err != nil {
			return err
		}
		out = statusOf(sub, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.log.WithFields(logrus.Fields{"user_id": userID, "plan": plan.ID, "order_id": orderID}).Info("subscription activated")
	return out, nil
}

func (m *Manager) Status(ctx context.Context, userID int64) (*Status, error) {
	u, err := m.repo.GetUser(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	return statusOf(u.Subscription, m.now()), nil
}

func statusOf(sub model.Subscription, now time.Time) *Status {
	return &Status{
		IsSubscribed: IsEligible(sub, now),
		Expiry:       sub.Expiry,
		Plan:         sub.Plan,
		Price:        sub.Price,
		SubscribedAt: sub.SubscribedAt,
	}
}
