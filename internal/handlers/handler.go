package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/badabuilder/marketplace/internal/booking"
	"github.com/badabuilder/marketplace/internal/model"
	"github.com/badabuilder/marketplace/internal/storage"
	"github.com/badabuilder/marketplace/internal/subscription"
)

type Subscriptions interface {
	CreateOrder(ctx context.Context, userID int64, planID string) (*subscription.OrderResult, error)
	Verify(ctx context.Context, userID int64, req subscription.VerifyRequest) (*subscription.Status, error)
	Status(ctx context.Context, userID int64) (*subscription.Status, error)
}

type Listings interface {
	Create(ctx context.Context, userID int64, req model.PropertyRequest, images []storage.Image) (*model.Property, error)
	Update(ctx context.Context, userID, id int64, patch model.PropertyPatch, images []storage.Image) (*model.Property, error)
	Delete(ctx context.Context, userID, id int64) error
	Get(ctx context.Context, id int64) (*model.Property, error)
	ListMine(ctx context.Context, userID int64) ([]model.Property, error)
	ListPublic(ctx context.Context, f model.PropertyFilter) ([]model.Property, error)
}

type Bookings interface {
	Create(ctx context.Context, userID int64, req model.BookingRequest) (*booking.Created, error)
	OpenPaymentOrder(ctx context.Context, userID, bookingID int64) (*model.PaymentIntent, error)
	ConfirmPayment(ctx context.Context, userID int64, req model.BookingPaymentRequest) (*model.Booking, error)
	ListMine(ctx context.Context, userID int64) ([]model.Booking, error)
	Get(ctx context.Context, userID, bookingID int64) (*model.Booking, error)
}

type Complaints interface {
	Submit(ctx context.Context, userID int64, req model.ComplaintRequest, media []storage.Image) (*model.Complaint, error)
	Mine(ctx context.Context, userID int64) ([]model.Complaint, error)
	Get(ctx context.Context, userID, id int64) (*model.Complaint, error)
	List(ctx context.Context, f model.ComplaintFilter) ([]model.Complaint, error)
	SetStatus(ctx context.Context, id int64, u model.ComplaintStatusUpdate) (*model.Complaint, error)
}

type Leads interface {
	Create(ctx context.Context, req model.LeadRequest) (*model.Lead, error)
	List(ctx context.Context, p model.Page) ([]model.Lead, error)
}

type Offers interface {
	Create(ctx context.Context, userID int64, req model.OfferRequest, images []storage.Image) (*model.GroupOffer, error)
	Update(ctx context.Context, userID, id int64, patch model.OfferPatch, images []storage.Image) (*model.GroupOffer, error)
	Join(ctx context.Context, id int64) (*model.GroupOffer, error)
	ListOpen(ctx context.Context) ([]model.GroupOffer, error)
	Get(ctx context.Context, id int64) (*model.GroupOffer, error)
}

// Services groups the domain services the HTTP layer delegates to.
type Services struct {
	Subscriptions Subscriptions
	Listings      Listings
	Bookings      Bookings
	Offers        Offers
	Complaints    Complaints
	Leads         Leads
}

// Guards are the access middlewares the router applies per route group.
type Guards struct {
	// Authenticate rejects requests without a valid bearer token.
	Authenticate func(http.Handler) http.Handler
	// Optional attaches the user when a token is sent.
	Optional func(http.Handler) http.Handler
	// Admin admits staff only; it runs after Authenticate.
	Admin func(http.Handler) http.Handler
}

type Handler struct {
	subs     Subscriptions
	listings Listings
	bookings Bookings
	offers   Offers
	cases    Complaints
	leads    Leads
	log      *logrus.Logger
	val      *validator.Validate
}

func NewHandler(s Services, l *logrus.Logger) *Handler {
	return &Handler{
		subs:     s.Subscriptions,
		listings: s.Listings,
		bookings: s.Bookings,
		offers:   s.Offers,
		cases:    s.Complaints,
		leads:    s.Leads,
		log:      l,
		val:      validator.New(),
	}
}

// Routes builds the API router.
func (h *Handler) Routes(g Guards) chi.Router {
	authenticate := g.Authenticate
	r := chi.NewRouter()
	r.Get("/health", h.Health)

	r.Route("/api/subscriptions", func(r chi.Router) {
		r.Get("/plans", h.Plans)
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/create-order", h.CreateSubscriptionOrder)
			r.Post("/verify-payment", h.VerifySubscriptionPayment)
			r.Get("/status", h.SubscriptionStatus)
		})
	})

	r.Route("/api/properties", func(r chi.Router) {
		r.Get("/", h.ListProperties)
		r.With(authenticate).Get("/user/my-properties", h.MyProperties)
		r.Get("/{id}", h.GetProperty)
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", h.CreateProperty)
			r.Put("/{id}", h.UpdateProperty)
			r.Delete("/{id}", h.DeleteProperty)
		})
	})

	r.Route("/api/bookings", func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/", h.CreateBooking)
		r.Post("/verify-payment", h.VerifyBookingPayment)
		r.Get("/my-bookings", h.MyBookings)
		r.Post("/{id}/payment-order", h.OpenBookingPaymentOrder)
		r.Get("/{id}", h.GetBooking)
	})

	r.Route("/api/live-grouping", func(r chi.Router) {
		r.Get("/", h.ListOffers)
		r.Get("/{id}", h.GetOffer)
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", h.CreateOffer)
			r.Put("/{id}", h.UpdateOffer)
			r.Patch("/{id}/join", h.JoinOffer)
		})
	})

	r.Route("/api/complaints", func(r chi.Router) {
		r.With(g.Optional).Post("/", h.SubmitComplaint)
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/my-complaints", h.MyComplaints)
			r.Get("/{id}", h.GetComplaint)
			r.Group(func(r chi.Router) {
				r.Use(g.Admin)
				r.Get("/", h.ListComplaints)
				r.Patch("/{id}/status", h.SetComplaintStatus)
			})
		})
	})

	r.Route("/api/leads", func(r chi.Router) {
		r.Post("/", h.CreateLead)
		r.With(authenticate, g.Admin).Get("/", h.ListLeads)
	})
	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}
