package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"surgepark/internal/config"
	apperr "surgepark/internal/errors"
)

type EmailSender interface {
	SendEmail(ctx context.Context, toEmail, toName, subject, plainText, html string) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, toNumber, body string) error
}

type SendGridMailer struct {
	cfg    config.SendGrid
	client *sendgrid.Client
	logger *slog.Logger
}

func NewSendGridMailer(cfg config.SendGrid, logger *slog.Logger) *SendGridMailer {
	return &SendGridMailer{cfg: cfg, client: sendgrid.NewSendClient(cfg.APIKey), logger: logger}
}

func (m *SendGridMailer) SendEmail(ctx context.Context, toEmail, toName, subject, plainText, html string) error {
	if m.cfg.APIKey == "" || m.cfg.FromEmail == "" {
		return fmt.Errorf("sendgrid is not configured: %w", apperr.ErrUpstreamUnavailable)
	}

	from := mail.NewEmail(m.cfg.FromName, m.cfg.FromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, html)

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sending email to %s: %v: %w", toEmail, err, apperr.ErrUpstreamUnavailable)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned %d: %s: %w", response.StatusCode, response.Body, apperr.ErrUpstreamUnavailable)
	}

	m.logger.Debug("email_sent", "to", toEmail, "subject", subject, "status", response.StatusCode)
	return nil
}

type TwilioSMS struct {
	cfg    config.Twilio
	client *twilio.RestClient
	logger *slog.Logger
}

func NewTwilioSMS(cfg config.Twilio, logger *slog.Logger) *TwilioSMS {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   cfg.AccountSID,
		Password:   cfg.AuthToken,
		AccountSid: cfg.AccountSID,
	})
	return &TwilioSMS{cfg: cfg, client: client, logger: logger}
}

func (s *TwilioSMS) SendSMS(ctx context.Context, toNumber, body string) error {
	if s.cfg.AccountSID == "" || s.cfg.AuthToken == "" || s.cfg.FromNumber == "" {
		return fmt.Errorf("twilio is not configured: %w", apperr.ErrUpstreamUnavailable)
	}
	if !strings.HasPrefix(toNumber, "+") {
		return fmt.Errorf("phone number %q must be E.164: %w", toNumber, apperr.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(toNumber)
	params.SetFrom(s.cfg.FromNumber)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("sending sms to %s: %v: %w", toNumber, err, apperr.ErrUpstreamUnavailable)
	}
	if resp != nil && resp.Sid != nil {
		s.logger.Debug("sms_sent", "to", toNumber, "sid", *resp.Sid)
	}
	return nil
}
