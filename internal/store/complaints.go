package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/badabuilder/marketplace/internal/model"
)

const complaintColumns = `id, user_id, name, email, phone, complaint_type, location, description,
	media_urls, status, admin_notes, resolution_photos, created_at, updated_at`

func (q *queries) CreateComplaint(ctx context.Context, c *model.Complaint) error {
	query := `INSERT INTO complaints (user_id, name, email, phone, complaint_type, location, description,
		media_urls, status, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id`
	if c.Status == "" {
		c.Status = model.ComplaintSubmitted
	}
	return sqlx.GetContext(ctx, q.ext, &c.ID, query,
		c.UserID, c.Name, c.Email, c.Phone, c.ComplaintType, c.Location, c.Description,
		c.MediaURLs, c.Status, c.CreatedAt, c.UpdatedAt)
}

func (q *queries) GetComplaint(ctx context.Context, id int64) (*model.Complaint, error) {
	var c model.Complaint
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE id=$1`
	if err := sqlx.GetContext(ctx, q.ext, &c, query, id); err != nil {
		return nil, noRows(err, "complaint")
	}
	return &c, nil
}

func (q *queries) ListComplaintsByUser(ctx context.Context, userID int64) ([]model.Complaint, error) {
	rows := []model.Complaint{}
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE user_id=$1 ORDER BY created_at DESC`
	if err := sqlx.SelectContext(ctx, q.ext, &rows, query, userID); err != nil {
		return nil, err
	}
	return rows, nil
}

func (q *queries) ListComplaints(ctx context.Context, f model.ComplaintFilter) ([]model.Complaint, error) {
	f.Page = normalizePage(f.Page)
	rows := []model.Complaint{}
	query := `SELECT ` + complaintColumns + ` FROM complaints
	WHERE ($1::text = '' OR status = $1)
	ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := sqlx.SelectContext(ctx, q.ext, &rows, query, f.Status, f.Limit, f.Offset); err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateComplaintStatus sets the status and, when notes is non-nil, the admin notes.
func (q *queries) UpdateComplaintStatus(ctx context.Context, id int64, status string, notes *string, at time.Time) (*model.Complaint, error) {
	var c model.Complaint
	query := `UPDATE complaints SET
		status=$1,
		admin_notes=COALESCE($2, admin_notes),
		updated_at=$3
	WHERE id=$4
	RETURNING ` + complaintColumns
	if err := sqlx.GetContext(ctx, q.ext, &c, query, status, notes, at, id); err != nil {
		return nil, noRows(err, "complaint")
	}
	return &c, nil
}
