package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/badabuilder/marketplace/internal/model"
)

func (q *queries) CreateLead(ctx context.Context, l *model.Lead) error {
	query := `INSERT INTO leads (name, requirement_type, location, phone, created_at)
	VALUES ($1,$2,$3,$4,$5) RETURNING id`
	return sqlx.GetContext(ctx, q.ext, &l.ID, query, l.Name, l.RequirementType, l.Location, l.Phone, l.CreatedAt)
}

func (q *queries) ListLeads(ctx context.Context, p model.Page) ([]model.Lead, error) {
	p = normalizePage(p)
	rows := []model.Lead{}
	query := `SELECT id, name, requirement_type, location, phone, created_at FROM leads
	ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	if err := sqlx.SelectContext(ctx, q.ext, &rows, query, p.Limit, p.Offset); err != nil {
		return nil, err
	}
	return rows, nil
}
