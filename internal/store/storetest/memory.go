// Package storetest provides an in-memory store.Repository for service tests.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/badabuilder/marketplace/internal/apperr"
	"github.com/badabuilder/marketplace/internal/model"
	"github.com/badabuilder/marketplace/internal/store"
)

// Memory keeps rows in maps. InTx holds a global lock and restores the
// previous state when fn fails, which is enough to model commit/rollback.
type Memory struct {
	mu sync.Mutex
	s  *state
}

type state struct {
	users         map[int64]model.User
	orders        map[string]model.PaymentOrder
	properties    map[int64]model.Property
	bookings      map[int64]model.Booking
	offers        map[int64]model.GroupOffer
	complaints    map[int64]model.Complaint
	leads         []model.Lead
	notifications []model.Notification
	nextID        int64
}

var (
	_ store.Repository = (*Memory)(nil)
	_ store.Outbox     = (*Memory)(nil)
)

func New() *Memory {
	return &Memory{s: &state{
		users:      map[int64]model.User{},
		orders:     map[string]model.PaymentOrder{},
		properties: map[int64]model.Property{},
		bookings:   map[int64]model.Booking{},
		offers:     map[int64]model.GroupOffer{},
		complaints: map[int64]model.Complaint{},
	}}
}

// AddUser seeds a user and returns it with an id assigned.
func (m *Memory) AddUser(u model.User) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == 0 {
		m.s.nextID++
		u.ID = m.s.nextID
	}
	if u.UserType == "" {
		u.UserType = model.UserTypeIndividual
	}
	m.s.users[u.ID] = u
	return u
}

// Notifications returns a copy of the outbox.
func (m *Memory) Notifications() []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Notification(nil), m.s.notifications...)
}

func (m *Memory) InTx(ctx context.Context, fn func(q store.Queries) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.s.clone()
	if err := fn(m.s); err != nil {
		m.s = snapshot
		return err
	}
	return nil
}

func (s *state) clone() *state {
	c := &state{
		users:         make(map[int64]model.User, len(s.users)),
		orders:        make(map[string]model.PaymentOrder, len(s.orders)),
		properties:    make(map[int64]model.Property, len(s.properties)),
		bookings:      make(map[int64]model.Booking, len(s.bookings)),
		offers:        make(map[int64]model.GroupOffer, len(s.offers)),
		complaints:    make(map[int64]model.Complaint, len(s.complaints)),
		leads:         append([]model.Lead(nil), s.leads...),
		notifications: append([]model.Notification(nil), s.notifications...),
		nextID:        s.nextID,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.properties {
		c.properties[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.offers {
		c.offers[k] = v
	}
	for k, v := range s.complaints {
		c.complaints[k] = v
	}
	return c
}

func (m *Memory) locked(fn func(s *state) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.s)
}

// Repository methods outside a transaction take the lock and delegate to state.

func (m *Memory) GetUser(ctx context.Context, id int64, lock bool) (u *model.User, err error) {
	err = m.locked(func(s *state) error { u, err = s.GetUser(ctx, id, lock); return err })
	return u, err
}

func (m *Memory) SaveSubscription(ctx context.Context, userID int64, sub model.Subscription, at time.Time) error {
	return m.locked(func(s *state) error { return s.SaveSubscription(ctx, userID, sub, at) })
}

func (m *Memory) CreatePaymentOrder(ctx context.Context, o *model.PaymentOrder) error {
	return m.locked(func(s *state) error { return s.CreatePaymentOrder(ctx, o) })
}

func (m *Memory) GetPaymentOrder(ctx context.Context, orderID string, lock bool) (o *model.PaymentOrder, err error) {
	err = m.locked(func(s *state) error { o, err = s.GetPaymentOrder(ctx, orderID, lock); return err })
	return o, err
}

func (m *Memory) MarkPaymentOrderPaid(ctx context.Context, orderID, paymentID string, at time.Time) error {
	return m.locked(func(s *state) error { return s.MarkPaymentOrderPaid(ctx, orderID, paymentID, at) })
}

func (m *Memory) CreateProperty(ctx context.Context, p *model.Property) error {
	return m.locked(func(s *state) error { return s.CreateProperty(ctx, p) })
}

func (m *Memory) GetProperty(ctx context.Context, id int64) (p *model.Property, err error) {
	err = m.locked(func(s *state) error { p, err = s.GetProperty(ctx, id); return err })
	return p, err
}

func (m *Memory) UpdateProperty(ctx context.Context, p *model.Property) error {
	return m.locked(func(s *state) error { return s.UpdateProperty(ctx, p) })
}

func (m *Memory) DeleteProperty(ctx context.Context, id, userID int64) error {
	return m.locked(func(s *state) error { return s.DeleteProperty(ctx, id, userID) })
}

func (m *Memory) ListProperties(ctx context.Context, f model.PropertyFilter) (out []model.Property, err error) {
	err = m.locked(func(s *state) error { out, err = s.ListProperties(ctx, f); return err })
	return out, err
}

func (m *Memory) ListPropertiesByUser(ctx context.Context, userID int64) (out []model.Property, err error) {
	err = m.locked(func(s *state) error { out, err = s.ListPropertiesByUser(ctx, userID); return err })
	return out, err
}

func (m *Memory) CreateBooking(ctx context.Context, b *model.Booking) error {
	return m.locked(func(s *state) error { return s.CreateBooking(ctx, b) })
}

func (m *Memory) GetBooking(ctx context.Context, id int64, lock bool) (b *model.Booking, err error) {
	err = m.locked(func(s *state) error { b, err = s.GetBooking(ctx, id, lock); return err })
	return b, err
}

func (m *Memory) SetBookingOrder(ctx context.Context, id int64, orderID string, at time.Time) error {
	return m.locked(func(s *state) error { return s.SetBookingOrder(ctx, id, orderID, at) })
}

func (m *Memory) ConfirmBookingPayment(ctx context.Context, b *model.Booking) error {
	return m.locked(func(s *state) error { return s.ConfirmBookingPayment(ctx, b) })
}

func (m *Memory) ListBookingsByUser(ctx context.Context, userID int64) (out []model.Booking, err error) {
	err = m.locked(func(s *state) error { out, err = s.ListBookingsByUser(ctx, userID); return err })
	return out, err
}

func (m *Memory) CreateOffer(ctx context.Context, o *model.GroupOffer) error {
	return m.locked(func(s *state) error { return s.CreateOffer(ctx, o) })
}

func (m *Memory) GetOffer(ctx context.Context, id int64, lock bool) (o *model.GroupOffer, err error) {
	err = m.locked(func(s *state) error { o, err = s.GetOffer(ctx, id, lock); return err })
	return o, err
}

func (m *Memory) UpdateOffer(ctx context.Context, o *model.GroupOffer) error {
	return m.locked(func(s *state) error { return s.UpdateOffer(ctx, o) })
}

func (m *Memory) SaveOfferSlots(ctx context.Context, o *model.GroupOffer) error {
	return m.locked(func(s *state) error { return s.SaveOfferSlots(ctx, o) })
}

func (m *Memory) ListOpenOffers(ctx context.Context) (out []model.GroupOffer, err error) {
	err = m.locked(func(s *state) error { out, err = s.ListOpenOffers(ctx); return err })
	return out, err
}

func (m *Memory) EnqueueNotification(ctx context.Context, n *model.Notification) error {
	return m.locked(func(s *state) error { return s.EnqueueNotification(ctx, n) })
}

func (m *Memory) ClaimNotifications(ctx context.Context, limit, maxAttempts int, now time.Time, lease time.Duration) ([]model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Notification
	for i := range m.s.notifications {
		n := &m.s.notifications[i]
		if len(out) == limit {
			break
		}
		if n.SentAt != nil || n.Attempts >= maxAttempts || n.NextAttemptAt.After(now) {
			continue
		}
		n.NextAttemptAt = now.Add(lease)
		out = append(out, *n)
	}
	return out, nil
}

func (m *Memory) MarkNotificationSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.updateNotification(id, func(n *model.Notification) {
		n.SentAt = &at
		n.Attempts++
		n.LastError = nil
	})
}

func (m *Memory) MarkNotificationFailed(ctx context.Context, id uuid.UUID, reason string, next time.Time) error {
	return m.updateNotification(id, func(n *model.Notification) {
		n.Attempts++
		n.LastError = &reason
		n.NextAttemptAt = next
	})
}

func (m *Memory) updateNotification(id uuid.UUID, fn func(n *model.Notification)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.s.notifications {
		if m.s.notifications[i].ID == id {
			fn(&m.s.notifications[i])
			return nil
		}
	}
	return apperr.NotFound("notification not found")
}

func (m *Memory) CreateComplaint(ctx context.Context, c *model.Complaint) error {
	return m.locked(func(s *state) error { return s.CreateComplaint(ctx, c) })
}

func (m *Memory) GetComplaint(ctx context.Context, id int64) (c *model.Complaint, err error) {
	err = m.locked(func(s *state) error { c, err = s.GetComplaint(ctx, id); return err })
	return c, err
}

func (m *Memory) ListComplaintsByUser(ctx context.Context, userID int64) (out []model.Complaint, err error) {
	err = m.locked(func(s *state) error { out, err = s.ListComplaintsByUser(ctx, userID); return err })
	return out, err
}

func (m *Memory) ListComplaints(ctx context.Context, f model.ComplaintFilter) (out []model.Complaint, err error) {
	err = m.locked(func(s *state) error { out, err = s.ListComplaints(ctx, f); return err })
	return out, err
}

func (m *Memory) UpdateComplaintStatus(ctx context.Context, id int64, status string, notes *string, at time.Time) (c *model.Complaint, err error) {
	err = m.locked(func(s *state) error { c, err = s.UpdateComplaintStatus(ctx, id, status, notes, at); return err })
	return c, err
}

func (m *Memory) CreateLead(ctx context.Context, l *model.Lead) error {
	return m.locked(func(s *state) error { return s.CreateLead(ctx, l) })
}

func (m *Memory) ListLeads(ctx context.Context, p model.Page) (out []model.Lead, err error) {
	err = m.locked(func(s *state) error { out, err = s.ListLeads(ctx, p); return err })
	return out, err
}

// state implements store.Queries without locking; InTx hands it to fn directly.

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *state) GetUser(_ context.Context, id int64, _ bool) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	return &u, nil
}

func (s *state) SaveSubscription(_ context.Context, userID int64, sub model.Subscription, at time.Time) error {
	u, ok := s.users[userID]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.Subscription = sub
	u.UpdatedAt = at
	s.users[userID] = u
	return nil
}

func (s *state) CreatePaymentOrder(_ context.Context, o *model.PaymentOrder) error {
	if _, ok := s.orders[o.OrderID]; ok {
		return apperr.Conflict("duplicate order id")
	}
	if o.Status == "" {
		o.Status = model.OrderStatusCreated
	}
	s.orders[o.OrderID] = *o
	return nil
}

func (s *state) GetPaymentOrder(_ context.Context, orderID string, _ bool) (*model.PaymentOrder, error) {
	o, ok := s.orders[orderID]
	if !ok {
		return nil, apperr.NotFound("payment order not found")
	}
	return &o, nil
}

func (s *state) MarkPaymentOrderPaid(_ context.Context, orderID, paymentID string, at time.Time) error {
	o, ok := s.orders[orderID]
	if !ok {
		return apperr.NotFound("payment order not found")
	}
	for id, other := range s.orders {
		if id != orderID && other.PaymentID != nil && *other.PaymentID == paymentID {
			return apperr.Conflict("duplicate payment id")
		}
	}
	o.Status = model.OrderStatusPaid
	o.PaymentID = &paymentID
	o.PaidAt = &at
	s.orders[orderID] = o
	return nil
}

func (s *state) CreateProperty(_ context.Context, p *model.Property) error {
	if p.Status == "" {
		p.Status = model.PropertyActive
	}
	p.ID = s.id()
	s.properties[p.ID] = *p
	return nil
}

func (s *state) GetProperty(_ context.Context, id int64) (*model.Property, error) {
	p, ok := s.properties[id]
	if !ok {
		return nil, apperr.NotFound("property not found")
	}
	return &p, nil
}

func (s *state) UpdateProperty(_ context.Context, p *model.Property) error {
	cur, ok := s.properties[p.ID]
	if !ok || cur.UserID != p.UserID {
		return apperr.NotFound("property not found")
	}
	next := *p
	next.CreatedAt = cur.CreatedAt
	next.SubscriptionExpiry = cur.SubscriptionExpiry
	next.Status = cur.Status
	s.properties[p.ID] = next
	return nil
}

func (s *state) DeleteProperty(_ context.Context, id, userID int64) error {
	p, ok := s.properties[id]
	if !ok || p.UserID != userID {
		return apperr.NotFound("property not found")
	}
	delete(s.properties, id)
	for bid, b := range s.bookings {
		if b.PropertyID != nil && *b.PropertyID == id {
			delete(s.bookings, bid)
		}
	}
	return nil
}

func (s *state) ListProperties(_ context.Context, f model.PropertyFilter) ([]model.Property, error) {
	status := f.Status
	if status == "" {
		status = model.PropertyActive
	}
	var out []model.Property
	for _, p := range s.properties {
		if p.Status == status {
			out = append(out, p)
		}
	}
	sortProperties(out)
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []model.Property{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *state) ListPropertiesByUser(_ context.Context, userID int64) ([]model.Property, error) {
	out := []model.Property{}
	for _, p := range s.properties {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sortProperties(out)
	return out, nil
}

func sortProperties(ps []model.Property) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].ID > ps[j].ID
		}
		return ps[i].CreatedAt.After(ps[j].CreatedAt)
	})
}

func (s *state) CreateBooking(_ context.Context, b *model.Booking) error {
	if b.PaymentCurrency == "" {
		b.PaymentCurrency = "INR"
	}
	b.ID = s.id()
	s.bookings[b.ID] = *b
	return nil
}

func (s *state) GetBooking(_ context.Context, id int64, _ bool) (*model.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, apperr.NotFound("booking not found")
	}
	s.attachImage(&b)
	return &b, nil
}

func (s *state) attachImage(b *model.Booking) {
	if b.PropertyID == nil {
		return
	}
	if p, ok := s.properties[*b.PropertyID]; ok {
		b.PropertyImage = p.ImageURL
	}
}

func (s *state) SetBookingOrder(_ context.Context, id int64, orderID string, at time.Time) error {
	b, ok := s.bookings[id]
	if !ok {
		return apperr.NotFound("booking not found")
	}
	b.OrderID = &orderID
	b.UpdatedAt = at
	s.bookings[id] = b
	return nil
}

func (s *state) ConfirmBookingPayment(_ context.Context, b *model.Booking) error {
	cur, ok := s.bookings[b.ID]
	if !ok || cur.UserID != b.UserID {
		return apperr.NotFound("booking not found")
	}
	for id, other := range s.bookings {
		if id != b.ID && other.PaymentID != nil && b.PaymentID != nil && *other.PaymentID == *b.PaymentID {
			return apperr.Conflict("duplicate payment id")
		}
	}
	cur.PaymentStatus = b.PaymentStatus
	cur.PaymentID = b.PaymentID
	cur.PaymentAmount = b.PaymentAmount
	cur.PaymentCurrency = b.PaymentCurrency
	cur.PaymentTimestamp = b.PaymentTimestamp
	cur.Status = b.Status
	cur.OrderID = b.OrderID
	cur.UpdatedAt = b.UpdatedAt
	s.bookings[b.ID] = cur
	return nil
}

func (s *state) ListBookingsByUser(_ context.Context, userID int64) ([]model.Booking, error) {
	out := []model.Booking{}
	for _, b := range s.bookings {
		if b.UserID == userID {
			s.attachImage(&b)
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *state) CreateOffer(_ context.Context, o *model.GroupOffer) error {
	o.ID = s.id()
	s.offers[o.ID] = *o
	return nil
}

func (s *state) GetOffer(_ context.Context, id int64, _ bool) (*model.GroupOffer, error) {
	o, ok := s.offers[id]
	if !ok {
		return nil, apperr.NotFound("group offer not found")
	}
	return &o, nil
}

func (s *state) UpdateOffer(_ context.Context, o *model.GroupOffer) error {
	cur, ok := s.offers[o.ID]
	if !ok {
		return apperr.NotFound("group offer not found")
	}
	next := *o
	next.FilledSlots = cur.FilledSlots
	next.Status = cur.Status
	next.CreatedBy = cur.CreatedBy
	next.CreatedAt = cur.CreatedAt
	s.offers[o.ID] = next
	return nil
}

func (s *state) SaveOfferSlots(_ context.Context, o *model.GroupOffer) error {
	cur, ok := s.offers[o.ID]
	if !ok {
		return apperr.NotFound("group offer not found")
	}
	cur.FilledSlots = o.FilledSlots
	cur.Status = o.Status
	cur.UpdatedAt = o.UpdatedAt
	s.offers[o.ID] = cur
	return nil
}

func (s *state) ListOpenOffers(_ context.Context) ([]model.GroupOffer, error) {
	out := []model.GroupOffer{}
	for _, o := range s.offers {
		if o.Status != model.OfferClosed {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *state) EnqueueNotification(_ context.Context, n *model.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.NextAttemptAt.IsZero() {
		n.NextAttemptAt = n.CreatedAt
	}
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *state) CreateComplaint(_ context.Context, c *model.Complaint) error {
	c.ID = s.id()
	if c.Status == "" {
		c.Status = model.ComplaintSubmitted
	}
	s.complaints[c.ID] = *c
	return nil
}

func (s *state) GetComplaint(_ context.Context, id int64) (*model.Complaint, error) {
	c, ok := s.complaints[id]
	if !ok {
		return nil, apperr.NotFound("complaint not found")
	}
	return &c, nil
}

func (s *state) ListComplaintsByUser(_ context.Context, userID int64) ([]model.Complaint, error) {
	out := []model.Complaint{}
	for _, c := range s.complaints {
		if c.UserID != nil && *c.UserID == userID {
			out = append(out, c)
		}
	}
	sortComplaints(out)
	return out, nil
}

func (s *state) ListComplaints(_ context.Context, f model.ComplaintFilter) ([]model.Complaint, error) {
	out := []model.Complaint{}
	for _, c := range s.complaints {
		if f.Status == "" || c.Status == f.Status {
			out = append(out, c)
		}
	}
	sortComplaints(out)
	return window(out, f.Page), nil
}

func (s *state) UpdateComplaintStatus(_ context.Context, id int64, status string, notes *string, at time.Time) (*model.Complaint, error) {
	c, ok := s.complaints[id]
	if !ok {
		return nil, apperr.NotFound("complaint not found")
	}
	c.Status = status
	if notes != nil {
		n := *notes
		c.AdminNotes = &n
	}
	c.UpdatedAt = at
	s.complaints[id] = c
	return &c, nil
}

func sortComplaints(cs []model.Complaint) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].ID > cs[j].ID })
}

func (s *state) CreateLead(_ context.Context, l *model.Lead) error {
	l.ID = s.id()
	s.leads = append(s.leads, *l)
	return nil
}

func (s *state) ListLeads(_ context.Context, p model.Page) ([]model.Lead, error) {
	out := make([]model.Lead, 0, len(s.leads))
	for i := len(s.leads) - 1; i >= 0; i-- {
		out = append(out, s.leads[i])
	}
	return window(out, p), nil
}

// window mirrors the SQL LIMIT/OFFSET with the default of 100 rows.
func window[T any](rows []T, p model.Page) []T {
	limit := p.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if p.Offset >= len(rows) {
		return rows[:0]
	}
	if p.Offset > 0 {
		rows = rows[p.Offset:]
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
