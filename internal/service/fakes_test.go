package service

import (
	"context"
	"fmt"
	"sync"

	"surgepark/internal/db"
	"surgepark/internal/engine"
	"surgepark/internal/entities"
	apperr "surgepark/internal/errors"
	"surgepark/internal/events"
)

type fakeWeather struct {
	wx    *engine.Weather
	err   error
	calls int
}

func (f *fakeWeather) Current(ctx context.Context, lat, lng float64) (*engine.Weather, error) {
	f.calls++
	return f.wx, f.err
}

type fakePayments struct {
	mu          sync.Mutex
	checkoutErr error
	refundErr   error
	checkouts   []int64
	refunded    []string
}

func (f *fakePayments) CreateCheckoutSession(ctx context.Context, amountCents int64, description, customerEmail, reservationID string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.checkoutErr != nil {
		return "", "", f.checkoutErr
	}
	f.checkouts = append(f.checkouts, amountCents)
	sessionID := "cs_" + reservationID
	return "https://checkout.example/" + sessionID, sessionID, nil
}

func (f *fakePayments) RefundSession(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refundErr != nil {
		return f.refundErr
	}
	f.refunded = append(f.refunded, sessionID)
	return nil
}

func (f *fakePayments) SessionForPaymentIntent(ctx context.Context, paymentIntentID string) (string, error) {
	return "cs_" + paymentIntentID, nil
}

type sentNotification struct {
	reservationID string
	kind          NotificationKind
	checkoutURL   string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) NotifyReservation(res db.Reservation, loc db.Location, kind NotificationKind, checkoutURL string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{reservationID: res.ID, kind: kind, checkoutURL: checkoutURL})
}

func (n *recordingNotifier) SendViolationReport(ctx context.Context, req entities.ViolationRequest) error {
	return nil
}

func (n *recordingNotifier) kinds() []NotificationKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []NotificationKind
	for _, s := range n.sent {
		out = append(out, s.kind)
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type sentEmail struct {
	to, subject, plain, html string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (m *fakeMailer) SendEmail(ctx context.Context, toEmail, toName, subject, plainText, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{to: toEmail, subject: subject, plain: plainText, html: html})
	return nil
}

type fakeSMS struct {
	mu   sync.Mutex
	sent []string
}

func (s *fakeSMS) SendSMS(ctx context.Context, toNumber, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, toNumber+": "+body)
	return nil
}

type fakeClassifier struct {
	category db.Category
	err      error
}

func (c fakeClassifier) Classify(ctx context.Context, lat, lng float64) (db.Category, error) {
	return c.category, c.err
}

var errStripeDown = fmt.Errorf("stripe timeout: %w", apperr.ErrUpstreamUnavailable)
