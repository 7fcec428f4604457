// Package grouping runs group-buying offers: buyers join until the offer
// reaches its minimum and then its capacity.
package grouping

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/badabuilder/marketplace/internal/apperr"
	"github.com/badabuilder/marketplace/internal/model"
	"github.com/badabuilder/marketplace/internal/storage"
	"github.com/badabuilder/marketplace/internal/store"
)

const imageFolder = "live-grouping"

var ErrOfferClosed = apperr.Conflict("This group is already closed")

type ImageStore interface {
	UploadImages(ctx context.Context, folder string, images []storage.Image) ([]string, error)
}

type Engine struct {
	repo   store.Repository
	images ImageStore
	log    *logrus.Logger
	now    func() time.Time
}

func NewEngine(repo store.Repository, images ImageStore, log *logrus.Logger) *Engine {
	return &Engine{repo: repo, images: images, log: log, now: time.Now}
}

func (e *Engine) Create(ctx context.Context, userID int64, req model.OfferRequest, images []storage.Image) (*model.GroupOffer, error) {
	if req.TotalSlots < 1 {
		return nil, apperr.Validation("totalSlots must be at least 1")
	}
	if req.MinBuyers < 0 || req.MinBuyers > req.TotalSlots {
		return nil, apperr.Validation("minBuyers must be between 0 and totalSlots")
	}
	urls, err := e.upload(ctx, images)
	if err != nil {
		return nil, err
	}
	now := e.now()
	o := &model.GroupOffer{
		Title:         req.Title,
		Developer:     req.Developer,
		Location:      req.Location,
		OriginalPrice: req.OriginalPrice,
		GroupPrice:    req.GroupPrice,
		Discount:      req.Discount,
		Savings:       req.Savings,
		Type:          req.Type,
		TotalSlots:    req.TotalSlots,
		FilledSlots:   0,
		TimeLeft:      req.TimeLeft,
		MinBuyers:     req.MinBuyers,
		Benefits:      stringArray(req.Benefits),
		Status:        model.OfferActive,
		Area:          req.Area,
		Possession:    req.Possession,
		ReraNumber:    req.ReraNumber,
		Facilities:    stringArray(req.Facilities),
		Description:   req.Description,
		Advantages:    model.JSONColumn(req.Advantages),
		GroupDetails:  model.JSONColumn(req.GroupDetails),
		Images:        stringArray(urls),
		CreatedBy:     &userID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if len(urls) > 0 {
		o.Image = &urls[0]
	}
	if err := e.repo.CreateOffer(ctx, o); err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{"offer_id": o.ID, "user_id": userID}).Info("group offer created")
	return o, nil
}

// Update lets the creator edit an offer. New images replace the whole set.
// The row stays locked from the capacity check to the write, and the status
// is derived again from the new counters.
func (e *Engine) Update(ctx context.Context, userID, id int64, patch model.OfferPatch, images []storage.Image) (*model.GroupOffer, error) {
	cur, err := e.repo.GetOffer(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if cur.CreatedBy == nil || *cur.CreatedBy != userID {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	urls, err := e.upload(ctx, images)
	if err != nil {
		return nil, err
	}

	var out *model.GroupOffer
	err = e.repo.InTx(ctx, func(q store.Queries) error {
		o, err := q.GetOffer(ctx, id, true)
		if err != nil {
			return err
		}
		patch.Apply(o)
		if o.TotalSlots < 1 || o.TotalSlots < o.FilledSlots {
			return apperr.Validation("total_slots cannot be below the slots already filled")
		}
		if o.MinBuyers < 0 || o.MinBuyers > o.TotalSlots {
			return apperr.Validation("min_buyers must be between 0 and total_slots")
		}
		if len(urls) > 0 {
			o.Images = pq.StringArray(urls)
			o.Image = &urls[0]
		}
		o.DeriveStatus()
		o.UpdatedAt = e.now()
		if err := q.UpdateOffer(ctx, o); err != nil {
			return err
		}
		if err := q.SaveOfferSlots(ctx, o); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{"offer_id": id, "user_id": userID, "status": out.Status}).Info("group offer updated")
	return out, nil
}

// Join adds one buyer under a row lock, so concurrent joins never
// overshoot capacity.
func (e *Engine) Join(ctx context.Context, id int64) (*model.GroupOffer, error) {
	var out *model.GroupOffer
	err := e.repo.InTx(ctx, func(q store.Queries) error {
		o, err := q.GetOffer(ctx, id, true)
		if err != nil {
			return err
		}
		if err := o.Join(); err != nil {
			if errors.Is(err, model.ErrOfferFull) {
				return ErrOfferClosed
			}
			return err
		}
		o.UpdatedAt = e.now()
		if err := q.SaveOfferSlots(ctx, o); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{"offer_id": id, "filled": out.FilledSlots, "status": out.Status}).Info("buyer joined group offer")
	return out, nil
}

func (e *Engine) ListOpen(ctx context.Context) ([]model.GroupOffer, error) {
	return e.repo.ListOpenOffers(ctx)
}

func (e *Engine) Get(ctx context.Context, id int64) (*model.GroupOffer, error) {
	return e.repo.GetOffer(ctx, id, false)
}

func (e *Engine) upload(ctx context.Context, images []storage.Image) ([]string, error) {
	if len(images) == 0 {
		return nil, nil
	}
	if e.images == nil {
		return nil, apperr.Config("image storage is not configured")
	}
	return e.images.UploadImages(ctx, imageFolder, images)
}

func stringArray(v []string) pq.StringArray {
	if v == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(v)
}
