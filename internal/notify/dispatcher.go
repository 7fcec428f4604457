// Package notify renders transactional emails, stores them in the outbox and
// delivers them from a background dispatcher.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/badabuilder/marketplace/internal/store"
)

type DispatcherConfig struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
	// Lease is how long a claimed row stays invisible to other dispatchers.
	Lease time.Duration
}

type Dispatcher struct {
	outbox store.Outbox
	mailer Mailer
	log    *logrus.Logger
	cfg    DispatcherConfig
	cron   *cron.Cron
	now    func() time.Time
}

func NewDispatcher(outbox store.Outbox, mailer Mailer, cfg DispatcherConfig, log *logrus.Logger) *Dispatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Lease <= 0 {
		cfg.Lease = 2 * time.Minute
	}
	return &Dispatcher{
		outbox: outbox,
		mailer: mailer,
		log:    log,
		cfg:    cfg,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log)))),
		now:    time.Now,
	}
}

// Start schedules RunOnce every Interval. Overlapping runs are skipped.
func (d *Dispatcher) Start() error {
	_, err := d.cron.AddFunc(fmt.Sprintf("@every %s", d.cfg.Interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Lease)
		defer cancel()
		d.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule dispatcher: %w", err)
	}
	d.cron.Start()
	d.log.Infof("notification dispatcher started, interval %s", d.cfg.Interval)
	return nil
}

// Stop waits for a running batch to finish or ctx to expire.
func (d *Dispatcher) Stop(ctx context.Context) {
	select {
	case <-d.cron.Stop().Done():
	case <-ctx.Done():
		d.log.Warn("dispatcher stop timed out")
	}
}

// RunOnce claims one batch of due notifications and tries to send each.
func (d *Dispatcher) RunOnce(ctx context.Context) (sent, failed int) {
	now := d.now()
	batch, err := d.outbox.ClaimNotifications(ctx, d.cfg.BatchSize, d.cfg.MaxAttempts, now, d.cfg.Lease)
	if err != nil {
		d.log.Errorf("claim notifications: %v", err)
		return 0, 0
	}
	for _, n := range batch {
		entry := d.log.WithFields(logrus.Fields{"notification_id": n.ID, "to": n.Recipient, "attempt": n.Attempts + 1})
		if err := d.mailer.Send(ctx, n.Recipient, n.Subject, n.Body); err != nil {
			failed++
			next := d.now().Add(Backoff(n.Attempts + 1))
			if n.Attempts+1 >= d.cfg.MaxAttempts {
				entry.Errorf("giving up on notification: %v", err)
			} else {
				entry.Warnf("send failed, retry at %s: %v", next.Format(time.RFC3339), err)
			}
			if err := d.outbox.MarkNotificationFailed(ctx, n.ID, err.Error(), next); err != nil {
				entry.Errorf("mark notification failed: %v", err)
			}
			continue
		}
		sent++
		if err := d.outbox.MarkNotificationSent(ctx, n.ID, d.now()); err != nil {
			entry.Errorf("mark notification sent: %v", err)
		}
	}
	return sent, failed
}

const maxBackoff = time.Hour

// Backoff returns the delay before retry number attempt (1-based): 30s doubling, capped at an hour.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := 30 * time.Second
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
