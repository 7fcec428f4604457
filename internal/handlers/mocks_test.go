package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/badabuilder/marketplace/internal/auth"
	"github.com/badabuilder/marketplace/internal/booking"
	"github.com/badabuilder/marketplace/internal/model"
	"github.com/badabuilder/marketplace/internal/storage"
	"github.com/badabuilder/marketplace/internal/subscription"
)

type mockSubs struct {
	createFn func(ctx context.Context, userID int64, planID string) (*subscription.OrderResult, error)
	verifyFn func(ctx context.Context, userID int64, req subscription.VerifyRequest) (*subscription.Status, error)
	statusFn func(ctx context.Context, userID int64) (*subscription.Status, error)
}

func (m *mockSubs) CreateOrder(ctx context.Context, userID int64, planID string) (*subscription.OrderResult, error) {
	return m.createFn(ctx, userID, planID)
}

func (m *mockSubs) Verify(ctx context.Context, userID int64, req subscription.VerifyRequest) (*subscription.Status, error) {
	return m.verifyFn(ctx, userID, req)
}

func (m *mockSubs) Status(ctx context.Context, userID int64) (*subscription.Status, error) {
	return m.statusFn(ctx, userID)
}

type mockListings struct {
	createFn     func(ctx context.Context, userID int64, req model.PropertyRequest, images []storage.Image) (*model.Property, error)
	updateFn     func(ctx context.Context, userID, id int64, patch model.PropertyPatch, images []storage.Image) (*model.Property, error)
	deleteFn     func(ctx context.Context, userID, id int64) error
	getFn        func(ctx context.Context, id int64) (*model.Property, error)
	listMineFn   func(ctx context.Context, userID int64) ([]model.Property, error)
	listPublicFn func(ctx context.Context, f model.PropertyFilter) ([]model.Property, error)
}

func (m *mockListings) Create(ctx context.Context, userID int64, req model.PropertyRequest, images []storage.Image) (*model.Property, error) {
	return m.createFn(ctx, userID, req, images)
}

func (m *mockListings) Update(ctx context.Context, userID, id int64, patch model.PropertyPatch, images []storage.Image) (*model.Property, error) {
	return m.updateFn(ctx, userID, id, patch, images)
}

func (m *mockListings) Delete(ctx context.Context, userID, id int64) error {
	return m.deleteFn(ctx, userID, id)
}

func (m *mockListings) Get(ctx context.Context, id int64) (*model.Property, error) {
	return m.getFn(ctx, id)
}

func (m *mockListings) ListMine(ctx context.Context, userID int64) ([]model.Property, error) {
	return m.listMineFn(ctx, userID)
}

func (m *mockListings) ListPublic(ctx context.Context, f model.PropertyFilter) ([]model.Property, error) {
	return m.listPublicFn(ctx, f)
}

type mockBookings struct {
	createFn  func(ctx context.Context, userID int64, req model.BookingRequest) (*booking.Created, error)
	openFn    func(ctx context.Context, userID, bookingID int64) (*model.PaymentIntent, error)
	confirmFn func(ctx context.Context, userID int64, req model.BookingPaymentRequest) (*model.Booking, error)
	listFn    func(ctx context.Context, userID int64) ([]model.Booking, error)
	getFn     func(ctx context.Context, userID, bookingID int64) (*model.Booking, error)
}

func (m *mockBookings) Create(ctx context.Context, userID int64, req model.BookingRequest) (*booking.Created, error) {
	return m.createFn(ctx, userID, req)
}

func (m *mockBookings) OpenPaymentOrder(ctx context.Context, userID, bookingID int64) (*model.PaymentIntent, error) {
	return m.openFn(ctx, userID, bookingID)
}

func (m *mockBookings) ConfirmPayment(ctx context.Context, userID int64, req model.BookingPaymentRequest) (*model.Booking, error) {
	return m.confirmFn(ctx, userID, req)
}

func (m *mockBookings) ListMine(ctx context.Context, userID int64) ([]model.Booking, error) {
	return m.listFn(ctx, userID)
}

func (m *mockBookings) Get(ctx context.Context, userID, bookingID int64) (*model.Booking, error) {
	return m.getFn(ctx, userID, bookingID)
}

type mockOffers struct {
	createFn func(ctx context.Context, userID int64, req model.OfferRequest, images []storage.Image) (*model.GroupOffer, error)
	updateFn func(ctx context.Context, userID, id int64, patch model.OfferPatch, images []storage.Image) (*model.GroupOffer, error)
	joinFn   func(ctx context.Context, id int64) (*model.GroupOffer, error)
	listFn   func(ctx context.Context) ([]model.GroupOffer, error)
	getFn    func(ctx context.Context, id int64) (*model.GroupOffer, error)
}

func (m *mockOffers) Create(ctx context.Context, userID int64, req model.OfferRequest, images []storage.Image) (*model.GroupOffer, error) {
	return m.createFn(ctx, userID, req, images)
}

func (m *mockOffers) Update(ctx context.Context, userID, id int64, patch model.OfferPatch, images []storage.Image) (*model.GroupOffer, error) {
	return m.updateFn(ctx, userID, id, patch, images)
}

func (m *mockOffers) Join(ctx context.Context, id int64) (*model.GroupOffer, error) {
	return m.joinFn(ctx, id)
}

func (m *mockOffers) ListOpen(ctx context.Context) ([]model.GroupOffer, error) {
	return m.listFn(ctx)
}

func (m *mockOffers) Get(ctx context.Context, id int64) (*model.GroupOffer, error) {
	return m.getFn(ctx, id)
}

type mockComplaints struct {
	submitFn func(ctx context.Context, userID int64, req model.ComplaintRequest, media []storage.Image) (*model.Complaint, error)
	mineFn   func(ctx context.Context, userID int64) ([]model.Complaint, error)
	getFn    func(ctx context.Context, userID, id int64) (*model.Complaint, error)
	listFn   func(ctx context.Context, f model.ComplaintFilter) ([]model.Complaint, error)
	statusFn func(ctx context.Context, id int64, u model.ComplaintStatusUpdate) (*model.Complaint, error)
}

func (m *mockComplaints) Submit(ctx context.Context, userID int64, req model.ComplaintRequest, media []storage.Image) (*model.Complaint, error) {
	return m.submitFn(ctx, userID, req, media)
}

func (m *mockComplaints) Mine(ctx context.Context, userID int64) ([]model.Complaint, error) {
	return m.mineFn(ctx, userID)
}

func (m *mockComplaints) Get(ctx context.Context, userID, id int64) (*model.Complaint, error) {
	return m.getFn(ctx, userID, id)
}

func (m *mockComplaints) List(ctx context.Context, f model.ComplaintFilter) ([]model.Complaint, error) {
	return m.listFn(ctx, f)
}

func (m *mockComplaints) SetStatus(ctx context.Context, id int64, u model.ComplaintStatusUpdate) (*model.Complaint, error) {
	return m.statusFn(ctx, id, u)
}

type mockLeads struct {
	createFn func(ctx context.Context, req model.LeadRequest) (*model.Lead, error)
	listFn   func(ctx context.Context, p model.Page) ([]model.Lead, error)
}

func (m *mockLeads) Create(ctx context.Context, req model.LeadRequest) (*model.Lead, error) {
	return m.createFn(ctx, req)
}

func (m *mockLeads) List(ctx context.Context, p model.Page) ([]model.Lead, error) {
	return m.listFn(ctx, p)
}

// testAdminID is the only user the test router treats as staff.
const testAdminID = 1

// testAuth trusts the X-User-ID header. Requests without it get 401.
func testAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), id)))
	})
}

// testOptional attaches the X-User-ID user when the header is present.
func testOptional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-User-ID") == "" {
			next.ServeHTTP(w, r)
			return
		}
		testAuth(next).ServeHTTP(w, r)
	})
}

func newTestRouter(t *testing.T, s Services) http.Handler {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewHandler(s, l).Routes(Guards{
		Authenticate: testAuth,
		Optional:     testOptional,
		Admin:        auth.RequireAdmin([]int64{testAdminID}),
	})
}
