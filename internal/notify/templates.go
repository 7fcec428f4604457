package notify

import (
	"bytes"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/badabuilder/marketplace/internal/model"
)

const (
	SubjectSiteVisit    = "Site Visit Booking Confirmed"
	SubjectSubscription = "Subscription Confirmed"
)

var siteVisitTmpl = template.Must(template.New("site_visit").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Site Visit Booking Confirmed</h2>
  <p>Hello,</p>
  <p>Your site visit has been confirmed:</p>
  <ul>
    <li><strong>Property:</strong> {{.PropertyTitle}}</li>
    <li><strong>Location:</strong> {{.PropertyLocation}}</li>
    <li><strong>Date:</strong> {{.VisitDate.Format "2006-01-02"}}</li>
    <li><strong>Time:</strong> {{.VisitTime}}</li>
    <li><strong>Number of People:</strong> {{.NumberOfPeople}}</li>
  </ul>
  <p>We look forward to seeing you!</p>
  <p>Best regards,<br>Bada Builder Team</p>
</div>`))

var subscriptionTmpl = template.Must(template.New("subscription").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Subscription Confirmed</h2>
  <p>Hello,</p>
  <p>Your subscription has been activated:</p>
  <ul>
    <li><strong>Plan:</strong> {{.Plan}}</li>
    <li><strong>Amount:</strong> ₹{{.Price}}</li>
    <li><strong>Expiry Date:</strong> {{.Expiry}}</li>
  </ul>
  <p>You can now post properties on our platform!</p>
  <p>Best regards,<br>Bada Builder Team</p>
</div>`))

// SiteVisitConfirmation renders the booking email into an outbox row.
func SiteVisitConfirmation(b *model.Booking, at time.Time) (*model.Notification, error) {
	var buf bytes.Buffer
	if err := siteVisitTmpl.Execute(&buf, b); err != nil {
		return nil, err
	}
	return &model.Notification{
		Recipient: b.UserEmail,
		Subject:   SubjectSiteVisit,
		Body:      buf.String(),
		CreatedAt: at,
	}, nil
}

// SubscriptionConfirmation renders the activation email. A nil expiry is
// printed as "never".
func SubscriptionConfirmation(email, plan string, price decimal.Decimal, expiry *time.Time, at time.Time) (*model.Notification, error) {
	exp := "never"
	if expiry != nil {
		exp = expiry.Format("02 Jan 2006")
	}
	var buf bytes.Buffer
	err := subscriptionTmpl.Execute(&buf, struct {
		Plan   string
		Price  string
		Expiry string
	}{plan, price.StringFixed(2), exp})
	if err != nil {
		return nil, err
	}
	return &model.Notification{
		Recipient: email,
		Subject:   SubjectSubscription,
		Body:      buf.String(),
		CreatedAt: at,
	}, nil
}
