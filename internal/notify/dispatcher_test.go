package notify

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/badabuilder/marketplace/internal/model"
	"github.com/badabuilder/marketplace/internal/store/storetest"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func enqueue(t *testing.T, repo *storetest.Memory, to string, at time.Time) {
	t.Helper()
	require.NoError(t, repo.EnqueueNotification(context.Background(), &model.Notification{
		Recipient: to, Subject: "s", Body: "<p>b</p>", CreatedAt: at,
	}))
}

func TestDispatcherSendsDueNotifications(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := storetest.New()
	enqueue(t, repo, "a@example.com", now)
	enqueue(t, repo, "b@example.com", now)
	enqueue(t, repo, "later@example.com", now.Add(time.Hour))

	mailer := &fakeMailer{}
	d := NewDispatcher(repo, mailer, DispatcherConfig{BatchSize: 10, MaxAttempts: 3}, quietLogger())
	d.now = func() time.Time { return now }

	sent, failed := d.RunOnce(context.Background())
	assert.Equal(t, 2, sent)
	assert.Equal(t, 0, failed)
	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com"}, mailer.sent)

	sent, _ = d.RunOnce(context.Background())
	assert.Zero(t, sent, "sent rows are not resent")
}

func TestDispatcherRetriesWithBackoffUntilMaxAttempts(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := storetest.New()
	enqueue(t, repo, "a@example.com", now)

	mailer := &fakeMailer{err: errors.New("connection refused")}
	d := NewDispatcher(repo, mailer, DispatcherConfig{BatchSize: 10, MaxAttempts: 2}, quietLogger())
	clock := now
	d.now = func() time.Time { return clock }

	_, failed := d.RunOnce(context.Background())
	assert.Equal(t, 1, failed)
	n := repo.Notifications()[0]
	assert.Equal(t, 1, n.Attempts)
	require.NotNil(t, n.LastError)
	assert.Contains(t, *n.LastError, "connection refused")
	assert.Equal(t, now.Add(Backoff(1)), n.NextAttemptAt)

	_, failed = d.RunOnce(context.Background())
	assert.Zero(t, failed, "not due before backoff elapses")

	clock = n.NextAttemptAt
	_, failed = d.RunOnce(context.Background())
	assert.Equal(t, 1, failed)
	assert.Equal(t, 2, repo.Notifications()[0].Attempts)

	clock = clock.Add(24 * time.Hour)
	_, failed = d.RunOnce(context.Background())
	assert.Zero(t, failed, "exhausted rows are not claimed again")
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 30*time.Second, Backoff(0))
	assert.Equal(t, 30*time.Second, Backoff(1))
	assert.Equal(t, time.Minute, Backoff(2))
	assert.Equal(t, 4*time.Minute, Backoff(4))
	assert.Equal(t, time.Hour, Backoff(20))
}

func TestDispatcherStartStop(t *testing.T) {
	d := NewDispatcher(storetest.New(), &fakeMailer{}, DispatcherConfig{Interval: time.Hour}, quietLogger())
	require.NoError(t, d.Start())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	d.Stop(ctx)
}
