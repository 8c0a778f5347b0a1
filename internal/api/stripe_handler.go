package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"surgepark/internal/service"
)

type StripeWebhookHandler struct {
	StripeSecret       string
	reservationService *service.ReservationService
	logger             *slog.Logger
}

func NewStripeWebhookHandler(stripeSecret string, reservationService *service.ReservationService, logger *slog.Logger) *StripeWebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StripeWebhookHandler{
		StripeSecret:       stripeSecret,
		reservationService: reservationService,
		logger:             logger,
	}
}

// HandleWebhook verifies the Stripe signature and applies checkout outcomes.
// A non-2xx answer makes Stripe retry the delivery.
func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Warn("webhook_read_failed", "err", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.StripeSecret)
	if err != nil {
		h.logger.Warn("webhook_signature_invalid", "err", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionExpired,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil || sess.ID == "" {
			h.logger.Warn("webhook_session_invalid", "type", event.Type, "err", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if event.Type == stripe.EventTypeCheckoutSessionCompleted {
			err = h.reservationService.MarkPaid(ctx, sess.ID, sess.ClientReferenceID)
		} else {
			err = h.reservationService.MarkPaymentFailed(ctx, sess.ID, sess.ClientReferenceID)
		}
		if err != nil {
			writeError(w, r, err)
			return
		}

	case stripe.EventTypeChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if charge.PaymentIntent != nil && charge.PaymentIntent.ID != "" {
			if err := h.reservationService.MarkChargeRefunded(ctx, charge.PaymentIntent.ID); err != nil {
				h.logger.Warn("webhook_refund_unmatched", "payment_intent", charge.PaymentIntent.ID, "err", err)
			}
		}

	default:
		h.logger.Debug("webhook_unhandled", "type", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *StripeWebhookHandler) GetReservationBySessionIDHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := h.reservationService.GetBySession(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
