package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/badabuilder/marketplace/internal/apperr"
	"github.com/badabuilder/marketplace/internal/model"
)

// Queries is implemented both by the connection pool and by an open transaction.
// Methods taking lock=true issue SELECT ... FOR UPDATE and are only meaningful
// inside InTx.
type Queries interface {
	GetUser(ctx context.Context, id int64, lock bool) (*model.User, error)
	SaveSubscription(ctx context.Context, userID int64, sub model.Subscription, at time.Time) error

	CreatePaymentOrder(ctx context.Context, o *model.PaymentOrder) error
	GetPaymentOrder(ctx context.Context, orderID string, lock bool) (*model.PaymentOrder, error)
	MarkPaymentOrderPaid(ctx context.Context, orderID, paymentID string, at time.Time) error

	CreateProperty(ctx context.Context, p *model.Property) error
	GetProperty(ctx context.Context, id int64) (*model.Property, error)
	UpdateProperty(ctx context.Context, p *model.Property) error
	DeleteProperty(ctx context.Context, id, userID int64) error
	ListProperties(ctx context.Context, f model.PropertyFilter) ([]model.Property, error)
	ListPropertiesByUser(ctx context.Context, userID int64) ([]model.Property, error)

	CreateBooking(ctx context.Context, b *model.Booking) error
	GetBooking(ctx context.Context, id int64, lock bool) (*model.Booking, error)
	SetBookingOrder(ctx context.Context, id int64, orderID string, at time.Time) error
	ConfirmBookingPayment(ctx context.Context, b *model.Booking) error
	ListBookingsByUser(ctx context.Context, userID int64) ([]model.Booking, error)

	CreateOffer(ctx context.Context, o *model.GroupOffer) error
	GetOffer(ctx context.Context, id int64, lock bool) (*model.GroupOffer, error)
	UpdateOffer(ctx context.Context, o *model.GroupOffer) error
	SaveOfferSlots(ctx context.Context, o *model.GroupOffer) error
	ListOpenOffers(ctx context.Context) ([]model.GroupOffer, error)

	CreateComplaint(ctx context.Context, c *model.Complaint) error
	GetComplaint(ctx context.Context, id int64) (*model.Complaint, error)
	ListComplaintsByUser(ctx context.Context, userID int64) ([]model.Complaint, error)
	ListComplaints(ctx context.Context, f model.ComplaintFilter) ([]model.Complaint, error)
	UpdateComplaintStatus(ctx context.Context, id int64, status string, notes *string, at time.Time) (*model.Complaint, error)

	CreateLead(ctx context.Context, l *model.Lead) error
	ListLeads(ctx context.Context, p model.Page) ([]model.Lead, error)

	EnqueueNotification(ctx context.Context, n *model.Notification) error
}

// Outbox is the dispatcher's view of notification_outbox.
type Outbox interface {
	ClaimNotifications(ctx context.Context, limit, maxAttempts int, now time.Time, lease time.Duration) ([]model.Notification, error)
	MarkNotificationSent(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkNotificationFailed(ctx context.Context, id uuid.UUID, reason string, next time.Time) error
}

type Repository interface {
	Queries
	// InTx runs fn in one transaction; it commits when fn returns nil.
	InTx(ctx context.Context, fn func(q Queries) error) error
}

type PostgresRepo struct {
	queries
	db  *sqlx.DB
	log *logrus.Logger
}

func NewPostgresRepository(db *sqlx.DB, log *logrus.Logger) *PostgresRepo {
	if log == nil {
		log = logrus.New()
	}
	return &PostgresRepo{queries: queries{ext: db}, db: db, log: log}
}

func (p *PostgresRepo) InTx(ctx context.Context, fn func(q Queries) error) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			p.log.Warnf("rollback failed: %v", err)
		}
	}()

	if err := fn(&queries{ext: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// queries holds the SQL; ext is either *sqlx.DB or *sqlx.Tx.
type queries struct {
	ext sqlx.ExtContext
}

func EnsureMigrations(db *sqlx.DB) error {
	// minimal programmatic migration, idempotent
	queries := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL DEFAULT '',
			name VARCHAR(255) NOT NULL,
			phone VARCHAR(20),
			user_type VARCHAR(20) NOT NULL DEFAULT 'individual' CHECK (user_type IN ('individual', 'developer')),
			profile_photo TEXT,
			is_subscribed BOOLEAN NOT NULL DEFAULT FALSE,
			subscription_expiry TIMESTAMPTZ,
			subscription_plan VARCHAR(50),
			subscription_price NUMERIC(10, 2),
			subscribed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS properties (
			id BIGSERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			type VARCHAR(50) NOT NULL,
			location VARCHAR(255) NOT NULL,
			price VARCHAR(100) NOT NULL,
			bhk VARCHAR(20),
			description TEXT,
			facilities TEXT[],
			image_url TEXT,
			images TEXT[],
			user_id BIGINT REFERENCES users(id) ON DELETE CASCADE,
			user_type VARCHAR(20) NOT NULL,
			company_name VARCHAR(255),
			project_name VARCHAR(255),
			total_units VARCHAR(50),
			completion_date VARCHAR(50),
			rera_number VARCHAR(100),
			subscription_expiry TIMESTAMPTZ,
			status VARCHAR(20) NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'expired', 'pending')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			expired_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id BIGSERIAL PRIMARY KEY,
			property_id BIGINT REFERENCES properties(id) ON DELETE CASCADE,
			property_title VARCHAR(255) NOT NULL,
			property_location VARCHAR(255) NOT NULL,
			user_id BIGINT REFERENCES users(id) ON DELETE CASCADE,
			user_email VARCHAR(255) NOT NULL,
			visit_date DATE NOT NULL,
			visit_time VARCHAR(20) NOT NULL,
			number_of_people INTEGER NOT NULL DEFAULT 1,
			person1_name VARCHAR(255) NOT NULL,
			person2_name VARCHAR(255),
			person3_name VARCHAR(255),
			pickup_address TEXT,
			payment_method VARCHAR(50) NOT NULL DEFAULT 'postvisit' CHECK (payment_method IN ('postvisit', 'razorpay_previsit')),
			payment_status VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (payment_status IN ('pending', 'completed')),
			razorpay_order_id VARCHAR(255),
			razorpay_payment_id VARCHAR(255) UNIQUE,
			payment_amount NUMERIC(10, 2),
			payment_currency VARCHAR(10) NOT NULL DEFAULT 'INR',
			payment_timestamp TIMESTAMPTZ,
			status VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'confirmed')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS live_grouping_properties (
			id BIGSERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			developer VARCHAR(255) NOT NULL,
			location VARCHAR(255) NOT NULL,
			original_price VARCHAR(100) NOT NULL,
			group_price VARCHAR(100) NOT NULL,
			discount VARCHAR(50),
			savings VARCHAR(100),
			type VARCHAR(50) NOT NULL,
			total_slots INTEGER NOT NULL DEFAULT 0,
			filled_slots INTEGER NOT NULL DEFAULT 0,
			time_left VARCHAR(50),
			min_buyers INTEGER NOT NULL DEFAULT 0,
			benefits TEXT[],
			status VARCHAR(50) NOT NULL DEFAULT 'Active' CHECK (status IN ('Active', 'Closing Soon', 'Closed')),
			area VARCHAR(100),
			possession VARCHAR(100),
			rera_number VARCHAR(100),
			facilities TEXT[],
			description TEXT,
			advantages JSONB,
			group_details JSONB,
			images TEXT[],
			image TEXT,
			created_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CHECK (filled_slots <= total_slots)
		);`,
		`CREATE TABLE IF NOT EXISTS payment_orders (
			order_id VARCHAR(255) PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			purpose VARCHAR(20) NOT NULL CHECK (purpose IN ('subscription', 'booking')),
			plan_id VARCHAR(50),
			booking_id BIGINT REFERENCES bookings(id) ON DELETE CASCADE,
			amount NUMERIC(10, 2) NOT NULL,
			currency VARCHAR(10) NOT NULL,
			receipt VARCHAR(255) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'created' CHECK (status IN ('created', 'paid')),
			payment_id VARCHAR(255) UNIQUE,
			paid_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS notification_outbox (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			recipient VARCHAR(255) NOT NULL,
			subject VARCHAR(255) NOT NULL,
			body TEXT NOT NULL,
			attempts INTEGER NOT NULL DEFAULT 0,
			last_error TEXT,
			next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			sent_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS complaints (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			phone VARCHAR(20) NOT NULL,
			complaint_type VARCHAR(100) NOT NULL,
			location VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			media_urls TEXT[] NOT NULL DEFAULT '{}',
			status VARCHAR(50) NOT NULL DEFAULT 'Submitted' CHECK (status IN ('Submitted', 'Under Review', 'In Progress', 'Resolved', 'Rejected')),
			admin_notes TEXT,
			resolution_photos TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS leads (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			requirement_type VARCHAR(50) NOT NULL,
			location VARCHAR(255) NOT NULL,
			phone VARCHAR(20) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);`,
		`CREATE INDEX IF NOT EXISTS idx_complaints_user_id ON complaints(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_complaints_status ON complaints(status);`,
		`CREATE INDEX IF NOT EXISTS idx_properties_user_id ON properties(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_properties_status ON properties(status);`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_property_id ON bookings(property_id);`,
		`CREATE INDEX IF NOT EXISTS idx_live_grouping_status ON live_grouping_properties(status);`,
		`CREATE INDEX IF NOT EXISTS idx_payment_orders_user_id ON payment_orders(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_outbox_pending ON notification_outbox(next_attempt_at) WHERE sent_at IS NULL;`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// helpers

func lockClause(lock bool) string {
	if lock {
		return " FOR UPDATE"
	}
	return ""
}

func noRows(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(what + " not found")
	}
	return err
}

func expectOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(what + " not found")
	}
	return nil
}
