package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/badabuilder/marketplace/internal/auth"
	"github.com/badabuilder/marketplace/internal/booking"
	"github.com/badabuilder/marketplace/internal/complaint"
	"github.com/badabuilder/marketplace/internal/config"
	"github.com/badabuilder/marketplace/internal/gateway"
	"github.com/badabuilder/marketplace/internal/grouping"
	"github.com/badabuilder/marketplace/internal/handlers"
	"github.com/badabuilder/marketplace/internal/lead"
	"github.com/badabuilder/marketplace/internal/listing"
	"github.com/badabuilder/marketplace/internal/notify"
	"github.com/badabuilder/marketplace/internal/storage"
	"github.com/badabuilder/marketplace/internal/store"
	"github.com/badabuilder/marketplace/internal/subscription"
)

func main() {
	log := logrus.New()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	configureLogger(log, cfg.Log)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	decimal.MarshalJSONWithoutQuotes = true
	log.Infof("starting marketplace service on %s", cfg.Server.Address)

	db, err := sqlx.Connect("postgres", cfg.Postgres.DSN())
	if err != nil {
		log.Fatalf("can't connect to db: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)

	if err := store.EnsureMigrations(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	repo := store.NewPostgresRepository(db, log)

	gw, err := gateway.NewRazorpay(gateway.Config{
		KeyID:     cfg.Razorpay.KeyID,
		KeySecret: cfg.Razorpay.KeySecret,
		BaseURL:   cfg.Razorpay.BaseURL,
		Timeout:   cfg.Razorpay.Timeout,
	})
	if err != nil {
		log.Fatalf("payment gateway: %v", err)
	}
	verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret, log)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	ctx := context.Background()

	// Uploads are optional; without a bucket the image endpoints answer with a config error.
	var images listing.ImageStore
	s3store, err := storage.NewS3(ctx, storage.Config{
		Region:          cfg.S3.Region,
		Bucket:          cfg.S3.Bucket,
		Endpoint:        cfg.S3.Endpoint,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		PublicBaseURL:   cfg.S3.PublicBaseURL,
	}, log)
	if err != nil {
		log.Warnf("image storage disabled: %v", err)
	} else {
		images = s3store
	}

	var dispatcher *notify.Dispatcher
	mailer, err := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, log)
	if err != nil {
		log.Warnf("email delivery disabled, notifications stay queued: %v", err)
	} else {
		dispatcher = notify.NewDispatcher(repo, mailer, notify.DispatcherConfig{
			Interval:    cfg.Notify.Interval,
			BatchSize:   cfg.Notify.BatchSize,
			MaxAttempts: cfg.Notify.MaxAttempts,
		}, log)
		if err := dispatcher.Start(); err != nil {
			log.Fatalf("dispatcher: %v", err)
		}
	}

	currency := cfg.Razorpay.Currency
	h := handlers.NewHandler(handlers.Services{
		Subscriptions: subscription.NewManager(repo, gw, currency, log),
		Listings:      listing.NewService(repo, images, listing.Gate{}, log),
		Bookings:      booking.NewCoordinator(repo, gw, currency, log),
		Offers:        grouping.NewEngine(repo, images, log),
		Complaints:    complaint.NewDesk(repo, images, log),
		Leads:         lead.NewCapture(repo, log),
	}, log)

	r := chi.NewRouter()
	// middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware(log))
	r.Use(middleware.Timeout(cfg.Server.WriteTimeout))
	r.Mount("/", h.Routes(handlers.Guards{
		Authenticate: verifier.Middleware,
		Optional:     verifier.Optional,
		Admin:        auth.RequireAdmin(cfg.Auth.AdminUserIDs),
	}))

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server forced to shutdown: %v", err)
	}
	if dispatcher != nil {
		dispatcher.Stop(shutdownCtx)
	}
	log.Info("server stopped")
}

func configureLogger(log *logrus.Logger, cfg config.LogConfig) {
	if lvl, err := logrus.ParseLevel(cfg.Level); err == nil {
		log.SetLevel(lvl)
	} else {
		log.Warnf("unknown log level %q, using info", cfg.Level)
	}
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
}

func loggingMiddleware(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := middleware.GetReqID(r.Context())
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"req_id": rid,
				"method": r.Method,
				"path":   r.URL.Path,
				"status": ww.Status(),
				"dur_ms": time.Since(start).Milliseconds(),
			}).Info("handled request")
		})
	}
}
