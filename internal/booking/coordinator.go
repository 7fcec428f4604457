// Package booking creates site-visit bookings and settles their optional prepayment.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/badabuilder/marketplace/internal/apperr"
	"github.com/badabuilder/marketplace/internal/gateway"
	"github.com/badabuilder/marketplace/internal/model"
	"github.com/badabuilder/marketplace/internal/notify"
	"github.com/badabuilder/marketplace/internal/store"
)

// VisitFee is charged for every prepaid site visit, regardless of party size.
var VisitFee = decimal.NewFromInt(300)

type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*gateway.Order, error)
	VerifyPayment(orderID, paymentID, signature string) (bool, error)
}

// Created is the outcome of Create. Payment is nil for post-visit bookings
// and when the prepayment order could not be opened; PaymentError says which.
type Created struct {
	Booking      *model.Booking       `json:"booking"`
	Payment      *model.PaymentIntent `json:"payment,omitempty"`
	PaymentError string               `json:"error,omitempty"`
}

type Coordinator struct {
	repo     store.Repository
	gw       Gateway
	log      *logrus.Logger
	currency string
	now      func() time.Time
}

func NewCoordinator(repo store.Repository, gw Gateway, currency string, log *logrus.Logger) *Coordinator {
	if currency == "" {
		currency = "INR"
	}
	return &Coordinator{repo: repo, gw: gw, log: log, currency: currency, now: time.Now}
}

func (c *Coordinator) Create(ctx context.Context, userID int64, req model.BookingRequest) (*Created, error) {
	visitDate, err := time.Parse("2006-01-02", req.VisitDate)
	if err != nil {
		return nil, apperr.Validation("visit_date must be YYYY-MM-DD")
	}
	if req.NumberOfPeople < 1 || req.NumberOfPeople > 3 {
		return nil, apperr.Validation("number_of_people must be between 1 and 3")
	}
	method := req.PaymentMethod
	if method == "" {
		method = model.PaymentPostVisit
	}
	if method != model.PaymentPostVisit && method != model.PaymentPreVisit {
		return nil, apperr.Validation("unknown payment_method")
	}

	prop, err := c.repo.GetProperty(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}
	user, err := c.repo.GetUser(ctx, userID, false)
	if err != nil {
		return nil, err
	}

	now := c.now()
	b := &model.Booking{
		PropertyID:       &prop.ID,
		PropertyTitle:    prop.Title,
		PropertyLocation: prop.Location,
		UserID:           userID,
		UserEmail:        user.Email,
		VisitDate:        visitDate,
		VisitTime:        req.VisitTime,
		NumberOfPeople:   req.NumberOfPeople,
		Person1Name:      req.Person1Name,
		Person2Name:      req.Person2Name,
		Person3Name:      req.Person3Name,
		PickupAddress:    req.PickupAddress,
		PaymentMethod:    method,
		PaymentStatus:    model.PaymentPending,
		PaymentCurrency:  c.currency,
		Status:           model.BookingPending,
		PropertyImage:    prop.ImageURL,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if !b.Prepaid() {
		b.Status = model.BookingConfirmed
		err := c.repo.InTx(ctx, func(q store.Queries) error {
			if err := q.CreateBooking(ctx, b); err != nil {
				return err
			}
			return enqueueConfirmation(ctx, q, b, now)
		})
		if err != nil {
			return nil, err
		}
		c.log.WithFields(logrus.Fields{"booking_id": b.ID, "user_id": userID}).Info("post-visit booking confirmed")
		return &Created{Booking: b}, nil
	}

	if err := c.repo.CreateBooking(ctx, b); err != nil {
		return nil, err
	}
	intent, err := c.openOrder(ctx, b)
	if err != nil {
		c.log.WithFields(logrus.Fields{"booking_id": b.ID, "user_id": userID}).Warnf("prepayment order failed: %v", err)
		return &Created{Booking: b, PaymentError: "Payment order creation failed"}, nil
	}
	return &Created{Booking: b, Payment: intent}, nil
}

// OpenPaymentOrder opens a fresh prepayment order for an unpaid prepaid booking.
// Earlier orders for the booking stay payable.
func (c *Coordinator) OpenPaymentOrder(ctx context.Context, userID, bookingID int64) (*model.PaymentIntent, error) {
	b, err := c.Get(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.Prepaid() {
		return nil, apperr.Validation("booking is paid after the visit")
	}
	if b.PaymentStatus == model.PaymentCompleted {
		return nil, apperr.Conflict("booking is already paid")
	}
	return c.openOrder(ctx, b)
}

func (c *Coordinator) openOrder(ctx context.Context, b *model.Booking) (*model.PaymentIntent, error) {
	receipt := "booking_" + strconv.FormatInt(b.ID, 10)
	order, err := c.gw.CreateOrder(ctx, VisitFee, c.currency, receipt)
	if err != nil {
		return nil, err
	}
	now := c.now()
	err = c.repo.InTx(ctx, func(q store.Queries) error {
		if err := q.CreatePaymentOrder(ctx, &model.PaymentOrder{
			OrderID:   order.ID,
			UserID:    b.UserID,
			Purpose:   model.PurposeBooking,
			BookingID: &b.ID,
			Amount:    VisitFee,
			Currency:  c.currency,
			Receipt:   receipt,
			Status:    model.OrderStatusCreated,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		return q.SetBookingOrder(ctx, b.ID, order.ID, now)
	})
	if err != nil {
		return nil, fmt.Errorf("record booking order: %w", err)
	}
	b.OrderID = &order.ID
	b.UpdatedAt = now
	return &model.PaymentIntent{OrderID: order.ID, Amount: VisitFee, Currency: c.currency}, nil
}

// ConfirmPayment settles a prepaid booking. The signature is checked before
// anything is read, and replaying the same payment returns the booking as is.
func (c *Coordinator) ConfirmPayment(ctx context.Context, userID int64, req model.BookingPaymentRequest) (*model.Booking, error) {
	ok, err := c.gw.VerifyPayment(req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.PaymentVerificationFailed("Payment verification failed")
	}

	now := c.now()
	var out *model.Booking
	err = c.repo.InTx(ctx, func(q store.Queries) error {
		b, err := q.GetBooking(ctx, req.BookingID, true)
		if err != nil {
			return err
		}
		if b.UserID != userID {
			return apperr.Unauthorized("not your booking")
		}
		if !b.Prepaid() {
			return apperr.Validation("booking is paid after the visit")
		}
		// Any order opened for this booking settles it, not only the latest one.
		order, err := q.GetPaymentOrder(ctx, req.OrderID, true)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.PaymentVerificationFailed("payment does not match this booking")
			}
			return err
		}
		if !orderBelongsTo(order, b) {
			return apperr.PaymentVerificationFailed("payment does not match this booking")
		}
		if b.PaymentStatus == model.PaymentCompleted {
			if b.PaymentID != nil && *b.PaymentID == req.PaymentID && b.OrderID != nil && *b.OrderID == req.OrderID {
				out = b
				return nil
			}
			return apperr.Conflict("booking is already paid")
		}

		b.PaymentStatus = model.PaymentCompleted
		b.Status = model.BookingConfirmed
		b.OrderID = &order.OrderID
		b.PaymentID = &req.PaymentID
		b.PaymentAmount = decimal.NewNullDecimal(VisitFee)
		b.PaymentCurrency = c.currency
		b.PaymentTimestamp = &now
		b.UpdatedAt = now
		if err := q.ConfirmBookingPayment(ctx, b); err != nil {
			return err
		}
		if err := q.MarkPaymentOrderPaid(ctx, req.OrderID, req.PaymentID, now); err != nil {
			return err
		}
		if err := enqueueConfirmation(ctx, q, b, now); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{"booking_id": out.ID, "user_id": userID, "order_id": req.OrderID}).Info("booking payment verified")
	return out, nil
}

func (c *Coordinator) ListMine(ctx context.Context, userID int64) ([]model.Booking, error) {
	return c.repo.ListBookingsByUser(ctx, userID)
}

// Get returns the booking only to its owner; anyone else sees NotFound.
func (c *Coordinator) Get(ctx context.Context, userID, bookingID int64) (*model.Booking, error) {
	b, err := c.repo.GetBooking(ctx, bookingID, false)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, apperr.NotFound("booking not found")
	}
	return b, nil
}

func orderBelongsTo(o *model.PaymentOrder, b *model.Booking) bool {
	return o.Purpose == model.PurposeBooking &&
		o.BookingID != nil && *o.BookingID == b.ID &&
		o.UserID == b.UserID
}

func enqueueConfirmation(ctx context.Context, q store.Queries, b *model.Booking, now time.Time) error {
	n, err := notify.SiteVisitConfirmation(b, now)
	if err != nil {
		return err
	}
	return q.EnqueueNotification(ctx, n)
}
