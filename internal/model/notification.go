package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification is an email waiting in the outbox.
type Notification struct {
	ID            uuid.UUID  `db:"id"`
	Recipient     string     `db:"recipient"`
	Subject       string     `db:"subject"`
	Body          string     `db:"body"`
	Attempts      int        `db:"attempts"`
	LastError     *string    `db:"last_error"`
	NextAttemptAt time.Time  `db:"next_attempt_at"`
	SentAt        *time.Time `db:"sent_at"`
	CreatedAt     time.Time  `db:"created_at"`
}
