package listing

import (
	"time"

	"github.com/badabuilder/marketplace/internal/apperr"
	"github.com/badabuilder/marketplace/internal/model"
	"github.com/badabuilder/marketplace/internal/subscription"
)

// DefaultEditWindow is how long after creation an owner may edit a listing.
const DefaultEditWindow = 72 * time.Hour

var (
	ErrSubscriptionRequired = apperr.SubscriptionRequired("Subscription required to post properties")
	ErrEditWindowClosed     = apperr.Unauthorized("Property can only be edited within 3 days of creation")
)

// Gate decides who may create and edit listings.
type Gate struct {
	EditWindow time.Duration
}

// CanCreate fails closed: anything but an eligible subscription is refused.
func (g Gate) CanCreate(sub model.Subscription, now time.Time) error {
	if !subscription.IsEligible(sub, now) {
		return ErrSubscriptionRequired
	}
	return nil
}

// CanEdit depends only on the listing's age, not on the subscription.
func (g Gate) CanEdit(p *model.Property, now time.Time) error {
	window := g.EditWindow
	if window <= 0 {
		window = DefaultEditWindow
	}
	if now.Sub(p.CreatedAt) > window {
		return ErrEditWindowClosed
	}
	return nil
}
