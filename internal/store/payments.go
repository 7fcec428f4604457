package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/badabuilder/marketplace/internal/model"
)

const orderColumns = `order_id, user_id, purpose, plan_id, booking_id, amount, currency,
	receipt, status, payment_id, paid_at, created_at`

func (q *queries) CreatePaymentOrder(ctx context.Context, o *model.PaymentOrder) error {
	query := `INSERT INTO payment_orders (order_id, user_id, purpose, plan_id, booking_id, amount, currency, receipt, status, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	if o.Status == "" {
		o.Status = model.OrderStatusCreated
	}
	_, err := q.ext.ExecContext(ctx, query,
		o.OrderID, o.UserID, o.Purpose, o.PlanID, o.BookingID, o.Amount, o.Currency, o.Receipt, o.Status, o.CreatedAt)
	return err
}

func (q *queries) GetPaymentOrder(ctx context.Context, orderID string, lock bool) (*model.PaymentOrder, error) {
	var o model.PaymentOrder
	query := `SELECT ` + orderColumns + ` FROM payment_orders WHERE order_id=$1` + lockClause(lock)
	if err := sqlx.GetContext(ctx, q.ext, &o, query, orderID); err != nil {
		return nil, noRows(err, "payment order")
	}
	return &o, nil
}

func (q *queries) MarkPaymentOrderPaid(ctx context.Context, orderID, paymentID string, at time.Time) error {
	query := `UPDATE payment_orders SET status=$1, payment_id=$2, paid_at=$3 WHERE order_id=$4`
	res, err := q.ext.ExecContext(ctx, query, model.OrderStatusPaid, paymentID, at, orderID)
	if err != nil {
		return err
	}
	return expectOne(res, "payment order")
}
