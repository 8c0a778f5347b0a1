package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	_ "github.com/lib/pq"

	"surgepark/internal/api"
	"surgepark/internal/breaker"
	"surgepark/internal/config"
	"surgepark/internal/engine"
	"surgepark/internal/events"
	"surgepark/internal/metrics"
	"surgepark/internal/places"
	"surgepark/internal/repository"
	"surgepark/internal/service"
	"surgepark/internal/weather"
)

func newLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}

func main() {
	help := flag.Bool("help-env", false, "print the environment variables and exit")
	flag.Parse()
	if *help {
		fmt.Println(config.Description())
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	m := metrics.New()

	var (
		store  repository.Store
		admins repository.AdminAuthRepository
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to open DB: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		pg := repository.NewPostgresStore(db)
		if cfg.Migrate {
			if err := pg.Migrate(context.Background()); err != nil {
				log.Fatalf("Failed to migrate DB: %v", err)
			}
		}
		store = pg
		admins = repository.NewAdminAuthRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set, using the in-memory store")
		store = repository.NewMemoryStore()
		admins = repository.NewMemoryAdminRepository()
	}

	weatherBreaker := breaker.New("weather", cfg.Weather.Breaker, logger)
	weatherBreaker.OnStateChange = m.BreakerStateChanged
	placesBreaker := breaker.New("places", cfg.Places.Breaker, logger)
	placesBreaker.OnStateChange = m.BreakerStateChanged

	var weatherProvider weather.Provider
	if cfg.Weather.APIKey != "" {
		weatherProvider = weather.NewClient(cfg.Weather, weatherBreaker, logger)
	} else {
		logger.Warn("WEATHERAPI_KEY not set, prices carry no weather term")
	}
	var classifier places.Classifier
	if cfg.Places.APIKey != "" {
		classifier = places.NewClient(cfg.Places, placesBreaker, logger)
	} else {
		logger.Warn("GOOGLE_PLACES_API_KEY not set, new locations get no category")
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.AMQP.URL != "" {
		amqpPublisher, err := events.DialAMQP(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
		if err != nil {
			log.Fatalf("Failed to connect to AMQP: %v", err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	}

	var payments service.PaymentGateway
	if cfg.Stripe.SecretKey != "" {
		payments = service.NewStripeService(cfg.Stripe)
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, bookings are not charged")
	}

	tz := cfg.Location()
	sender := service.NewSenderService(
		service.NewSendGridMailer(cfg.SendGrid, logger),
		service.NewTwilioSMS(cfg.Twilio, logger),
		tz, cfg.ViolationEmail, logger,
	)
	reservations := service.NewReservationService(service.Dependencies{
		Store:    store,
		Pricer:   engine.NewPricer(cfg.Pricing),
		Weather:  weatherProvider,
		Payments: payments,
		Notifier: sender,
		Events:   publisher,
		Metrics:  m,
		Logger:   logger,
		Timezone: tz,
	})
	adminService := service.NewAdminService(store, classifier, logger)
	authService := service.NewAdminAuthService(admins, cfg.JWTSecret, cfg.JWTTTL)
	if cfg.AdminEmail != "" {
		created, err := authService.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Fatalf("Failed to seed admin: %v", err)
		}
		logger.Info("admin_seeded", "email", cfg.AdminEmail, "created", created)
	} else {
		logger.Warn("ADMIN_EMAIL not set, no admin is seeded")
	}

	jobs := service.NewJobService(store, publisher, m, cfg.Jobs.PendingPaymentTTL, logger)
	scheduler, err := jobs.Start(cfg.Jobs.SweepSchedule)
	if err != nil {
		log.Fatalf("Failed to schedule jobs: %v", err)
	}

	r := api.NewRouter(api.Handlers{
		User:      api.NewUserReservationHandler(reservations, sender),
		Admin:     api.NewAdminHandler(adminService, reservations),
		AdminAuth: api.NewAdminAuthHandler(authService),
		Stripe:    api.NewStripeWebhookHandler(cfg.Stripe.WebhookSecret, reservations, logger),
	}, m, cfg.JWTSecret)

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSOrigin),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "Stripe-Signature"}),
	)

	srv := &http.Server{
		Addr:              ":" + strings.TrimPrefix(cfg.Port, ":"),
		Handler:           cors(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	<-scheduler.Stop().Done()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server_shutdown_failed", "err", err)
	}
	sender.Wait()
	logger.Info("server_stopped")
}
