package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/badabuilder/marketplace/internal/model"
)

const offerColumns = `id, title, developer, location, original_price, group_price, discount, savings,
	type, total_slots, filled_slots, time_left, min_buyers, benefits, status, area, possession,
	rera_number, facilities, description, advantages, group_details, images, image, created_by,
	created_at, updated_at`

func (q *queries) CreateOffer(ctx context.Context, o *model.GroupOffer) error {
	query := `INSERT INTO live_grouping_properties (
		title, developer, location, original_price, group_price, discount, savings,
		type, total_slots, filled_slots, time_left, min_buyers, benefits, status, area,
		possession, rera_number, facilities, description, advantages,
		group_details, images, image, created_by, created_at, updated_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26)
	RETURNING id`
	return sqlx.GetContext(ctx, q.ext, &o.ID, query,
		o.Title, o.Developer, o.Location, o.OriginalPrice, o.GroupPrice, o.Discount, o.Savings,
		o.Type, o.TotalSlots, o.FilledSlots, o.TimeLeft, o.MinBuyers, o.Benefits, o.Status, o.Area,
		o.Possession, o.ReraNumber, o.Facilities, o.Description, o.Advantages,
		o.GroupDetails, o.Images, o.Image, o.CreatedBy, o.CreatedAt, o.UpdatedAt)
}

func (q *queries) GetOffer(ctx context.Context, id int64, lock bool) (*model.GroupOffer, error) {
	var o model.GroupOffer
	query := `SELECT ` + offerColumns + ` FROM live_grouping_properties WHERE id=$1` + lockClause(lock)
	if err := sqlx.GetContext(ctx, q.ext, &o, query, id); err != nil {
		return nil, noRows(err, "group offer")
	}
	return &o, nil
}

// UpdateOffer writes the creator-editable columns; filled_slots and status
// are owned by SaveOfferSlots.
func (q *queries) UpdateOffer(ctx context.Context, o *model.GroupOffer) error {
	query := `UPDATE live_grouping_properties SET
		title=$1, developer=$2, location=$3, original_price=$4, group_price=$5, discount=$6,
		savings=$7, type=$8, total_slots=$9, min_buyers=$10, time_left=$11, benefits=$12,
		area=$13, possession=$14, rera_number=$15, facilities=$16, description=$17,
		advantages=$18, group_details=$19, images=$20, image=$21, updated_at=$22
	WHERE id=$23`
	res, err := q.ext.ExecContext(ctx, query,
		o.Title, o.Developer, o.Location, o.OriginalPrice, o.GroupPrice, o.Discount,
		o.Savings, o.Type, o.TotalSlots, o.MinBuyers, o.TimeLeft, o.Benefits,
		o.Area, o.Possession, o.ReraNumber, o.Facilities, o.Description,
		o.Advantages, o.GroupDetails, o.Images, o.Image, o.UpdatedAt, o.ID)
	if err != nil {
		return err
	}
	return expectOne(res, "group offer")
}

func (q *queries) SaveOfferSlots(ctx context.Context, o *model.GroupOffer) error {
	res, err := q.ext.ExecContext(ctx,
		`UPDATE live_grouping_properties SET filled_slots=$1, status=$2, updated_at=$3 WHERE id=$4`,
		o.FilledSlots, o.Status, o.UpdatedAt, o.ID)
	if err != nil {
		return err
	}
	return expectOne(res, "group offer")
}

func (q *queries) ListOpenOffers(ctx context.Context) ([]model.GroupOffer, error) {
	rows := []model.GroupOffer{}
	query := `SELECT ` + offerColumns + ` FROM live_grouping_properties WHERE status != $1 ORDER BY created_at DESC`
	if err := sqlx.SelectContext(ctx, q.ext, &rows, query, model.OfferClosed); err != nil {
		return nil, err
	}
	return rows, nil
}
