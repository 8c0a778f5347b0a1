package service

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/refund"

	"surgepark/internal/config"
	apperr "surgepark/internal/errors"
)

// PaymentGateway takes payment for a booked reservation and refunds it.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, amountCents int64, description, customerEmail, reservationID string) (url, sessionID string, err error)
	RefundSession(ctx context.Context, sessionID string) error
	// SessionForPaymentIntent resolves the checkout session behind a charge.
	SessionForPaymentIntent(ctx context.Context, paymentIntentID string) (string, error)
}

type StripeService struct {
	cfg config.Stripe
}

// NewStripeService sets the package-level stripe key used by the checkout
// and refund clients.
func NewStripeService(cfg config.Stripe) *StripeService {
	stripe.Key = cfg.SecretKey
	return &StripeService{cfg: cfg}
}

func (s *StripeService) RefundSession(ctx context.Context, sessionID string) error {
	getParams := &stripe.CheckoutSessionParams{}
	getParams.Context = ctx
	sess, err := session.Get(sessionID, getParams)
	if err != nil {
		return fmt.Errorf("fetching checkout session %s: %v: %w", sessionID, err, apperr.ErrUpstreamUnavailable)
	}
	if sess.PaymentIntent == nil || sess.PaymentIntent.ID == "" {
		return fmt.Errorf("no payment intent for session %s: %w", sessionID, apperr.ErrInvalidState)
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(sess.PaymentIntent.ID),
	}
	params.Context = ctx
	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("refunding session %s: %v: %w", sessionID, err, apperr.ErrUpstreamUnavailable)
	}
	return nil
}

func (s *StripeService) CreateCheckoutSession(ctx context.Context, amountCents int64, description, customerEmail, reservationID string) (string, string, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(s.cfg.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
					UnitAmount: stripe.Int64(amountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(s.cfg.SuccessURL),
		CancelURL:         stripe.String(s.cfg.CancelURL),
		ClientReferenceID: stripe.String(reservationID),
	}
	if customerEmail != "" {
		params.CustomerEmail = stripe.String(customerEmail)
	}
	params.AddMetadata("reservation_id", reservationID)
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return "", "", fmt.Errorf("creating checkout session: %v: %w", err, apperr.ErrUpstreamUnavailable)
	}
	return sess.URL, sess.ID, nil
}

func (s *StripeService) SessionForPaymentIntent(ctx context.Context, paymentIntentID string) (string, error) {
	params := &stripe.CheckoutSessionListParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	it := session.List(params)
	for it.Next() {
		return it.CheckoutSession().ID, nil
	}
	if err := it.Err(); err != nil {
		return "", fmt.Errorf("listing sessions for payment intent %s: %v: %w", paymentIntentID, err, apperr.ErrUpstreamUnavailable)
	}
	return "", fmt.Errorf("checkout session for payment intent %s: %w", paymentIntentID, apperr.ErrNotFound)
}
