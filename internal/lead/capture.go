// Package lead records callback requests from visitors.
package lead

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/badabuilder/marketplace/internal/apperr"
	"github.com/badabuilder/marketplace/internal/model"
	"github.com/badabuilder/marketplace/internal/store"
)

type Capture struct {
	repo store.Repository
	log  *logrus.Logger
	now  func() time.Time
}

func NewCapture(repo store.Repository, log *logrus.Logger) *Capture {
	return &Capture{repo: repo, log: log, now: time.Now}
}

func (c *Capture) Create(ctx context.Context, req model.LeadRequest) (*model.Lead, error) {
	l := &model.Lead{
		Name:            strings.TrimSpace(req.Name),
		RequirementType: req.RequirementType,
		Location:        strings.TrimSpace(req.Location),
		Phone:           strings.TrimSpace(req.Phone),
		CreatedAt:       c.now(),
	}
	if l.Name == "" || l.Location == "" || l.Phone == "" || l.RequirementType == "" {
		return nil, apperr.Validation("name, requirement_type, location and phone are required")
	}
	if err := c.repo.CreateLead(ctx, l); err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{"lead_id": l.ID, "requirement": l.RequirementType}).Info("lead captured")
	return l, nil
}

func (c *Capture) List(ctx context.Context, p model.Page) ([]model.Lead, error) {
	return c.repo.ListLeads(ctx, p)
}
