// Package complaint takes in complaints from visitors and users and lets
// staff move them through review.
package complaint

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/badabuilder/marketplace/internal/apperr"
	"github.com/badabuilder/marketplace/internal/model"
	"github.com/badabuilder/marketplace/internal/storage"
	"github.com/badabuilder/marketplace/internal/store"
)

// MaxMedia caps the photos and videos attached to one complaint.
const MaxMedia = 5

const mediaFolder = "complaints"

type MediaStore interface {
	UploadImages(ctx context.Context, folder string, images []storage.Image) ([]string, error)
}

type Desk struct {
	repo  store.Repository
	media MediaStore
	log   *logrus.Logger
	now   func() time.Time
}

func NewDesk(repo store.Repository, media MediaStore, log *logrus.Logger) *Desk {
	return &Desk{repo: repo, media: media, log: log, now: time.Now}
}

// Submit files a complaint. userID is zero for anonymous submissions.
func (d *Desk) Submit(ctx context.Context, userID int64, req model.ComplaintRequest, media []storage.Image) (*model.Complaint, error) {
	c := &model.Complaint{
		Name:          strings.TrimSpace(req.Name),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:         strings.TrimSpace(req.Phone),
		ComplaintType: req.ComplaintType,
		Location:      strings.TrimSpace(req.Location),
		Description:   strings.TrimSpace(req.Description),
		Status:        model.ComplaintSubmitted,
	}
	if c.Name == "" || c.Phone == "" || c.Location == "" || c.Description == "" {
		return nil, apperr.Validation("name, phone, location and description are required")
	}
	if len(media) > MaxMedia {
		return nil, apperr.Validation("at most 5 media files per complaint")
	}
	if userID != 0 {
		c.UserID = &userID
	}

	c.MediaURLs = []string{}
	if len(media) > 0 {
		if d.media == nil {
			return nil, apperr.Config("media storage is not configured")
		}
		urls, err := d.media.UploadImages(ctx, mediaFolder, media)
		if err != nil {
			return nil, err
		}
		c.MediaURLs = urls
	}

	now := d.now()
	c.CreatedAt, c.UpdatedAt = now, now
	if err := d.repo.CreateComplaint(ctx, c); err != nil {
		return nil, err
	}
	d.log.WithFields(logrus.Fields{"complaint_id": c.ID, "type": c.ComplaintType, "media": len(c.MediaURLs)}).Info("complaint submitted")
	return c, nil
}

func (d *Desk) Mine(ctx context.Context, userID int64) ([]model.Complaint, error) {
	return d.repo.ListComplaintsByUser(ctx, userID)
}

// Get returns the complaint only to the user who filed it.
func (d *Desk) Get(ctx context.Context, userID, id int64) (*model.Complaint, error) {
	c, err := d.repo.GetComplaint(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID == nil || *c.UserID != userID {
		return nil, apperr.NotFound("Complaint not found")
	}
	return c, nil
}

func (d *Desk) List(ctx context.Context, f model.ComplaintFilter) ([]model.Complaint, error) {
	if f.Status != "" && !model.ValidComplaintStatus(f.Status) {
		return nil, apperr.Validation("Invalid status")
	}
	return d.repo.ListComplaints(ctx, f)
}

// SetStatus moves a complaint to any review state and optionally records notes.
func (d *Desk) SetStatus(ctx context.Context, id int64, u model.ComplaintStatusUpdate) (*model.Complaint, error) {
	if !model.ValidComplaintStatus(u.Status) {
		return nil, apperr.Validation("Invalid status")
	}
	c, err := d.repo.UpdateComplaintStatus(ctx, id, u.Status, u.AdminNotes, d.now())
	if err != nil {
		return nil, err
	}
	d.log.WithFields(logrus.Fields{"complaint_id": id, "status": c.Status}).Info("complaint status changed")
	return c, nil
}
