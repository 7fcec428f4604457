package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/badabuilder/marketplace/internal/model"
)

const notificationColumns = `id, recipient, subject, body, attempts, last_error, next_attempt_at, sent_at, created_at`

func (q *queries) EnqueueNotification(ctx context.Context, n *model.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.NextAttemptAt.IsZero() {
		n.NextAttemptAt = n.CreatedAt
	}
	query := `INSERT INTO notification_outbox (id, recipient, subject, body, next_attempt_at, created_at)
	VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := q.ext.ExecContext(ctx, query, n.ID, n.Recipient, n.Subject, n.Body, n.NextAttemptAt, n.CreatedAt)
	return err
}

// ClaimNotifications leases up to limit due rows by pushing their
// next_attempt_at forward, so concurrent dispatchers skip them.
func (p *PostgresRepo) ClaimNotifications(ctx context.Context, limit, maxAttempts int, now time.Time, lease time.Duration) ([]model.Notification, error) {
	query := `UPDATE notification_outbox SET next_attempt_at=$1
	WHERE id IN (
		SELECT id FROM notification_outbox
		WHERE sent_at IS NULL AND attempts < $2 AND next_attempt_at <= $3
		ORDER BY next_attempt_at
		LIMIT $4
		FOR UPDATE SKIP LOCKED
	)
	RETURNING ` + notificationColumns
	rows := []model.Notification{}
	if err := sqlx.SelectContext(ctx, p.db, &rows, query, now.Add(lease), maxAttempts, now, limit); err != nil {
		return nil, err
	}
	return rows, nil
}

func (p *PostgresRepo) MarkNotificationSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE notification_outbox SET sent_at=$1, attempts=attempts+1, last_error=NULL WHERE id=$2`, at, id)
	if err != nil {
		return err
	}
	return expectOne(res, "notification")
}

func (p *PostgresRepo) MarkNotificationFailed(ctx context.Context, id uuid.UUID, reason string, next time.Time) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE notification_outbox SET attempts=attempts+1, last_error=$1, next_attempt_at=$2 WHERE id=$3`,
		reason, next, id)
	if err != nil {
		return err
	}
	return expectOne(res, "notification")
}
