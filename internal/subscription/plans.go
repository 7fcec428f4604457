package subscription

import (
	"github.com/shopspring/decimal"

	"github.com/badabuilder/marketplace/internal/apperr"
)

type Plan struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Duration    int             `json:"duration"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Savings     string          `json:"savings,omitempty"`
}

var catalog = []Plan{
	{ID: "1_month", Name: "1 Month", Duration: 1, Price: decimal.NewFromInt(500), Description: "Post properties for 1 month"},
	{ID: "6_months", Name: "6 Months", Duration: 6, Price: decimal.NewFromInt(2500), Description: "Post properties for 6 months", Savings: "Save ₹500"},
	{ID: "12_months", Name: "12 Months", Duration: 12, Price: decimal.NewFromInt(4500), Description: "Post properties for 12 months", Savings: "Save ₹1500"},
}

// ErrInvalidPlan is returned for plan ids outside the catalog.
var ErrInvalidPlan = apperr.Validation("Invalid plan")

// Plans returns a copy of the catalog, shortest plan first.
func Plans() []Plan {
	return append([]Plan(nil), catalog...)
}

func LookupPlan(id string) (Plan, error) {
	for _, p := range catalog {
		if p.ID == id {
			return p, nil
		}
	}
	return Plan{}, ErrInvalidPlan
}
