package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/badabuilder/marketplace/internal/model"
)

const bookingSelect = `SELECT b.id, b.property_id, b.property_title, b.property_location, b.user_id,
	b.user_email, b.visit_date, b.visit_time, b.number_of_people, b.person1_name, b.person2_name,
	b.person3_name, b.pickup_address, b.payment_method, b.payment_status, b.razorpay_order_id,
	b.razorpay_payment_id, b.payment_amount, b.payment_currency, b.payment_timestamp, b.status,
	p.image_url AS property_image, b.created_at, b.updated_at
FROM bookings b
LEFT JOIN properties p ON b.property_id = p.id`

func (q *queries) CreateBooking(ctx context.Context, b *model.Booking) error {
	if b.PaymentCurrency == "" {
		b.PaymentCurrency = "INR"
	}
	query := `INSERT INTO bookings (
		property_id, property_title, property_location, user_id, user_email,
		visit_date, visit_time, number_of_people, person1_name, person2_name,
		person3_name, pickup_address, payment_method, payment_status, payment_currency,
		status, created_at, updated_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
	RETURNING id`
	return sqlx.GetContext(ctx, q.ext, &b.ID, query,
		b.PropertyID, b.PropertyTitle, b.PropertyLocation, b.UserID, b.UserEmail,
		b.VisitDate, b.VisitTime, b.NumberOfPeople, b.Person1Name, b.Person2Name,
		b.Person3Name, b.PickupAddress, b.PaymentMethod, b.PaymentStatus, b.PaymentCurrency,
		b.Status, b.CreatedAt, b.UpdatedAt)
}

func (q *queries) GetBooking(ctx context.Context, id int64, lock bool) (*model.Booking, error) {
	var b model.Booking
	query := bookingSelect + ` WHERE b.id=$1`
	if lock {
		query += ` FOR UPDATE OF b`
	}
	if err := sqlx.GetContext(ctx, q.ext, &b, query, id); err != nil {
		return nil, noRows(err, "booking")
	}
	return &b, nil
}

func (q *queries) SetBookingOrder(ctx context.Context, id int64, orderID string, at time.Time) error {
	res, err := q.ext.ExecContext(ctx,
		`UPDATE bookings SET razorpay_order_id=$1, updated_at=$2 WHERE id=$3`, orderID, at, id)
	if err != nil {
		return err
	}
	return expectOne(res, "booking")
}

func (q *queries) ConfirmBookingPayment(ctx context.Context, b *model.Booking) error {
	query := `UPDATE bookings SET
		payment_status=$1,
		razorpay_payment_id=$2,
		payment_amount=$3,
		payment_currency=$4,
		payment_timestamp=$5,
		status=$6,
		razorpay_order_id=$7,
		updated_at=$8
	WHERE id=$9 AND user_id=$10`
	res, err := q.ext.ExecContext(ctx, query,
		b.PaymentStatus, b.PaymentID, b.PaymentAmount, b.PaymentCurrency, b.PaymentTimestamp,
		b.Status, b.OrderID, b.UpdatedAt, b.ID, b.UserID)
	if err != nil {
		return err
	}
	return expectOne(res, "booking")
}

func (q *queries) ListBookingsByUser(ctx context.Context, userID int64) ([]model.Booking, error) {
	rows := []model.Booking{}
	query := bookingSelect + ` WHERE b.user_id=$1 ORDER BY b.created_at DESC`
	if err := sqlx.SelectContext(ctx, q.ext, &rows, query, userID); err != nil {
		return nil, err
	}
	return rows, nil
}
