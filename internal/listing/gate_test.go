package listing

import (
	"errors"
	"testing"
	"time"

	"github.com/badabuilder/marketplace/internal/apperr"
	"github.com/badabuilder/marketplace/internal/model"
)

func TestGateCanEdit(t *testing.T) {
	created := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	p := &model.Property{CreatedAt: created}
	g := Gate{}

	cases := []struct {
		name    string
		now     time.Time
		allowed bool
	}{
		{"just created", created, true},
		{"71 hours", created.Add(71 * time.Hour), true},
		{"exactly 72 hours", created.Add(72 * time.Hour), true},
		{"72 hours and a second", created.Add(72*time.Hour + time.Second), false},
		{"a week", created.Add(7 * 24 * time.Hour), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := g.CanEdit(p, c.now)
			if c.allowed && err != nil {
				t.Fatalf("expected edit allowed, got %v", err)
			}
			if !c.allowed && !errors.Is(err, apperr.ErrUnauthorized) {
				t.Fatalf("expected edit window error, got %v", err)
			}
		})
	}
}

func TestGateCanCreate(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)
	g := Gate{}

	cases := []struct {
		name    string
		sub     model.Subscription
		allowed bool
	}{
		{"never subscribed", model.Subscription{}, false},
		{"active", model.Subscription{IsSubscribed: true, Expiry: &future}, true},
		{"lapsed", model.Subscription{IsSubscribed: true, Expiry: &past}, false},
		{"no expiry", model.Subscription{IsSubscribed: true}, true},
		{"flag off with future expiry", model.Subscription{Expiry: &future}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := g.CanCreate(c.sub, now)
			if c.allowed != (err == nil) {
				t.Fatalf("allowed=%v, err=%v", c.allowed, err)
			}
			if err != nil && !errors.Is(err, apperr.ErrSubscriptionRequired) {
				t.Fatalf("expected subscription required, got %v", err)
			}
		})
	}
}

func TestGateCustomWindow(t *testing.T) {
	created := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	g := Gate{EditWindow: time.Hour}
	if err := g.CanEdit(&model.Property{CreatedAt: created}, created.Add(2*time.Hour)); err == nil {
		t.Fatal("expected custom window to apply")
	}
}
