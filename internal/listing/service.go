// Package listing owns property listings and the rules for posting and editing them.
package listing

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/badabuilder/marketplace/internal/apperr"
	"github.com/badabuilder/marketplace/internal/model"
	"github.com/badabuilder/marketplace/internal/storage"
	"github.com/badabuilder/marketplace/internal/store"
)

const imageFolder = "properties"

type ImageStore interface {
	UploadImages(ctx context.Context, folder string, images []storage.Image) ([]string, error)
}

type Service struct {
	repo   store.Repository
	images ImageStore
	gate   Gate
	log    *logrus.Logger
	now    func() time.Time
}

func NewService(repo store.Repository, images ImageStore, gate Gate, log *logrus.Logger) *Service {
	return &Service{repo: repo, images: images, gate: gate, log: log, now: time.Now}
}

func (s *Service) Create(ctx context.Context, userID int64, req model.PropertyRequest, images []storage.Image) (*model.Property, error) {
	user, err := s.repo.GetUser(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.gate.CanCreate(user.Subscription, now); err != nil {
		return nil, err
	}
	urls, err := s.upload(ctx, images)
	if err != nil {
		return nil, err
	}

	facilities := pq.StringArray{}
	if req.Facilities != nil {
		facilities = pq.StringArray(req.Facilities)
	}
	p := &model.Property{
		Title:              req.Title,
		Type:               req.Type,
		Location:           req.Location,
		Price:              req.Price,
		BHK:                req.BHK,
		Description:        req.Description,
		Facilities:         facilities,
		Images:             pq.StringArray(urls),
		UserID:             userID,
		UserType:           user.UserType,
		CompanyName:        req.CompanyName,
		ProjectName:        req.ProjectName,
		TotalUnits:         req.TotalUnits,
		CompletionDate:     req.CompletionDate,
		ReraNumber:         req.ReraNumber,
		SubscriptionExpiry: user.Expiry,
		Status:             model.PropertyActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if p.Images == nil {
		p.Images = pq.StringArray{}
	}
	if len(urls) > 0 {
		p.ImageURL = &urls[0]
	}
	if err := s.repo.CreateProperty(ctx, p); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"property_id": p.ID, "user_id": userID}).Info("property listed")
	return p, nil
}

// Update applies a partial edit. Listings of other users look missing.
func (s *Service) Update(ctx context.Context, userID, id int64, patch model.PropertyPatch, images []storage.Image) (*model.Property, error) {
	p, err := s.repo.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, apperr.NotFound("Property not found or unauthorized")
	}
	now := s.now()
	if err := s.gate.CanEdit(p, now); err != nil {
		return nil, err
	}
	patch.Apply(p)
	if len(images) > 0 {
		urls, err := s.upload(ctx, images)
		if err != nil {
			return nil, err
		}
		p.Images = pq.StringArray(urls)
		p.ImageURL = &urls[0]
	}
	p.UpdatedAt = now
	if err := s.repo.UpdateProperty(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	err := s.repo.DeleteProperty(ctx, id, userID)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return apperr.NotFound("Property not found or unauthorized")
	}
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"property_id": id, "user_id": userID}).Info("property deleted")
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*model.Property, error) {
	return s.repo.GetProperty(ctx, id)
}

func (s *Service) ListMine(ctx context.Context, userID int64) ([]model.Property, error) {
	return s.repo.ListPropertiesByUser(ctx, userID)
}

func (s *Service) ListPublic(ctx context.Context, f model.PropertyFilter) ([]model.Property, error) {
	return s.repo.ListProperties(ctx, f)
}

func (s *Service) upload(ctx context.Context, images []storage.Image) ([]string, error) {
	if len(images) == 0 {
		return nil, nil
	}
	if s.images == nil {
		return nil, apperr.Config("image storage is not configured")
	}
	return s.images.UploadImages(ctx, imageFolder, images)
}
