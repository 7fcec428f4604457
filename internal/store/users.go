package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/badabuilder/marketplace/internal/model"
)

const userColumns = `id, email, name, phone, user_type, is_subscribed, subscription_expiry,
	subscription_plan, subscription_price, subscribed_at, created_at, updated_at`

func (q *queries) GetUser(ctx context.Context, id int64, lock bool) (*model.User, error) {
	var u model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1` + lockClause(lock)
	if err := sqlx.GetContext(ctx, q.ext, &u, query, id); err != nil {
		return nil, noRows(err, "user")
	}
	return &u, nil
}

func (q *queries) SaveSubscription(ctx context.Context, userID int64, sub model.Subscription, at time.Time) error {
	query := `UPDATE users SET
		is_subscribed=$1,
		subscription_expiry=$2,
		subscription_plan=$3,
		subscription_price=$4,
		subscribed_at=$5,
		updated_at=$6
	WHERE id=$7`
	res, err := q.ext.ExecContext(ctx, query,
		sub.IsSubscribed, sub.Expiry, sub.Plan, sub.Price, sub.SubscribedAt, at, userID)
	if err != nil {
		return err
	}
	return expectOne(res, "user")
}
