package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"surgepark/internal/auth"
	"surgepark/internal/metrics"
)

type Handlers struct {
	User      *UserReservationHandler
	Admin     *AdminHandler
	AdminAuth *AdminAuthHandler
	Stripe    *StripeWebhookHandler
}

// NewRouter wires every route. Admin routes require a JWT signed with
// jwtSecret.
func NewRouter(h Handlers, m *metrics.Metrics, jwtSecret string) *mux.Router {
	r := mux.NewRouter()
	r.Use(m.Middleware)

	// Public endpoints
	r.HandleFunc("/api/availability", h.User.CheckAvailability).Methods(http.MethodPost)
	r.HandleFunc("/api/quotes", h.User.Quote).Methods(http.MethodPost)
	r.HandleFunc("/api/locations/nearby", h.User.FindNearby).Methods(http.MethodGet)
	r.HandleFunc("/api/reservations", h.User.CreateReservation).Methods(http.MethodPost)
	r.HandleFunc("/api/reservations/{id}", h.User.GetReservation).Methods(http.MethodGet)
	r.HandleFunc("/api/reservations/{id}", h.User.UpdateReservation).Methods(http.MethodPut)
	r.HandleFunc("/api/reservations/{id}", h.User.CancelReservation).Methods(http.MethodDelete)
	r.HandleFunc("/api/violations", h.User.ReportViolation).Methods(http.MethodPost)
	r.HandleFunc("/api/stripe/webhook", h.Stripe.HandleWebhook).Methods(http.MethodPost)
	r.HandleFunc("/api/stripe/session", h.Stripe.GetReservationBySessionIDHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/admin/login", h.AdminAuth.Login).Methods(http.MethodPost)
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	// Admin endpoints (protected)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.AdminAuthMiddleware(jwtSecret))
	admin.HandleFunc("/locations", h.Admin.ListLocations).Methods(http.MethodGet)
	admin.HandleFunc("/locations", h.Admin.CreateLocation).Methods(http.MethodPost)
	admin.HandleFunc("/locations/{id}/dynamic-pricing", h.Admin.SetDynamicPricing).Methods(http.MethodPut)
	admin.HandleFunc("/locations/{id}/category", h.Admin.SetCategory).Methods(http.MethodPut)
	admin.HandleFunc("/locations/{id}/status", h.Admin.SetStatus).Methods(http.MethodPut)
	admin.HandleFunc("/reservations", h.Admin.ListReservations).Methods(http.MethodGet)
	admin.HandleFunc("/reservations/{id}/fail", h.Admin.FailReservation).Methods(http.MethodPost)
	admin.HandleFunc("/users", h.AdminAuth.CreateUserAdmin).Methods(http.MethodPost)

	return r
}
