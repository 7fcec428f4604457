package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/badabuilder/marketplace/internal/model"
)

const propertyColumns = `id, title, type, location, price, bhk, description, facilities, image_url, images,
	user_id, user_type, company_name, project_name, total_units, completion_date, rera_number,
	subscription_expiry, status, created_at, updated_at`

func (q *queries) CreateProperty(ctx context.Context, p *model.Property) error {
	if p.Status == "" {
		p.Status = model.PropertyActive
	}
	query := `INSERT INTO properties (
		title, type, location, price, bhk, description, facilities, image_url, images,
		user_id, user_type, company_name, project_name, total_units, completion_date,
		rera_number, subscription_expiry, status, created_at, updated_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	RETURNING id`
	return sqlx.GetContext(ctx, q.ext, &p.ID, query,
		p.Title, p.Type, p.Location, p.Price, p.BHK, p.Description, p.Facilities, p.ImageURL, p.Images,
		p.UserID, p.UserType, p.CompanyName, p.ProjectName, p.TotalUnits, p.CompletionDate,
		p.ReraNumber, p.SubscriptionExpiry, p.Status, p.CreatedAt, p.UpdatedAt)
}

func (q *queries) GetProperty(ctx context.Context, id int64) (*model.Property, error) {
	var p model.Property
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id=$1`
	if err := sqlx.GetContext(ctx, q.ext, &p, query, id); err != nil {
		return nil, noRows(err, "property")
	}
	return &p, nil
}

// UpdateProperty writes the editable columns. created_at, user_id and the
// subscription snapshot are never rewritten.
func (q *queries) UpdateProperty(ctx context.Context, p *model.Property) error {
	query := `UPDATE properties SET
		title=$1, type=$2, location=$3, price=$4, bhk=$5, description=$6, facilities=$7,
		image_url=$8, images=$9, company_name=$10, project_name=$11, total_units=$12,
		completion_date=$13, rera_number=$14, updated_at=$15
	WHERE id=$16 AND user_id=$17`
	res, err := q.ext.ExecContext(ctx, query,
		p.Title, p.Type, p.Location, p.Price, p.BHK, p.Description, p.Facilities,
		p.ImageURL, p.Images, p.CompanyName, p.ProjectName, p.TotalUnits,
		p.CompletionDate, p.ReraNumber, p.UpdatedAt, p.ID, p.UserID)
	if err != nil {
		return err
	}
	return expectOne(res, "property")
}

func (q *queries) DeleteProperty(ctx context.Context, id, userID int64) error {
	res, err := q.ext.ExecContext(ctx, `DELETE FROM properties WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	return expectOne(res, "property")
}

func (q *queries) ListProperties(ctx context.Context, f model.PropertyFilter) ([]model.Property, error) {
	f = normalizeFilter(f)
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE status=$1
	ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows := []model.Property{}
	if err := sqlx.SelectContext(ctx, q.ext, &rows, query, f.Status, f.Limit, f.Offset); err != nil {
		return nil, err
	}
	return rows, nil
}

func (q *queries) ListPropertiesByUser(ctx context.Context, userID int64) ([]model.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE user_id=$1 ORDER BY created_at DESC`
	rows := []model.Property{}
	if err := sqlx.SelectContext(ctx, q.ext, &rows, query, userID); err != nil {
		return nil, err
	}
	return rows, nil
}

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

func normalizeFilter(f model.PropertyFilter) model.PropertyFilter {
	if f.Status == "" {
		f.Status = model.PropertyActive
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// normalizePage applies the staff listing window: 100 rows unless asked for fewer.
func normalizePage(p model.Page) model.Page {
	if p.Limit <= 0 || p.Limit > maxListLimit {
		p.Limit = maxListLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
