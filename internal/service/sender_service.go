package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"surgepark/internal/db"
	"surgepark/internal/entities"
	apperr "surgepark/internal/errors"
	"surgepark/internal/templates"
)

const notifyTimeout = 15 * time.Second

type NotificationKind string

const (
	NotifyBooked      NotificationKind = "booked"
	NotifyRescheduled NotificationKind = "rescheduled"
	NotifyCancelled   NotificationKind = "cancelled"
)

// Notifier delivers guest and operator messages. NotifyReservation never
// blocks the caller on delivery.
type Notifier interface {
	NotifyReservation(res db.Reservation, loc db.Location, kind NotificationKind, checkoutURL string)
	SendViolationReport(ctx context.Context, req entities.ViolationRequest) error
}

type SenderService struct {
	mail           EmailSender
	sms            SMSSender
	tz             *time.Location
	violationEmail string
	logger         *slog.Logger

	wg sync.WaitGroup
}

func NewSenderService(mail EmailSender, sms SMSSender, tz *time.Location, violationEmail string, logger *slog.Logger) *SenderService {
	if tz == nil {
		tz = time.UTC
	}
	return &SenderService{mail: mail, sms: sms, tz: tz, violationEmail: violationEmail, logger: logger}
}

type messageTexts struct {
	subject  string
	heading  string
	greeting string
	intro    string
	sms      string
	labels   entities.EmailLabels
}

var statusWords = map[string]map[NotificationKind]string{
	"es": {NotifyBooked: "confirmada", NotifyRescheduled: "modificada", NotifyCancelled: "cancelada"},
	"it": {NotifyBooked: "confermata", NotifyRescheduled: "modificata", NotifyCancelled: "cancellata"},
	"en": {NotifyBooked: "confirmed", NotifyRescheduled: "updated", NotifyCancelled: "cancelled"},
}

func textsFor(language string, kind NotificationKind, code string) messageTexts {
	switch language {
	case "es":
		status := statusWords["es"][kind]
		return messageTexts{
			subject:  fmt.Sprintf("Tu reserva en SurgePark está %s - Código: %s", status, code),
			heading:  "Reserva " + status,
			greeting: "Hola",
			intro:    fmt.Sprintf("Tu reserva en SurgePark está %s.", status),
			sms:      fmt.Sprintf("SurgePark: ¡Tu reserva %s está %s!\nCheck-in: %%s.\nMás detalles en tu correo.", code, status),
			labels: entities.EmailLabels{
				Code: "Código de reserva", Address: "Dirección", Plate: "Patente",
				CheckIn: "Check-in", CheckOut: "Check-out", Amount: "Importe", Pay: "Pagar ahora",
			},
		}
	case "it":
		status := statusWords["it"][kind]
		return messageTexts{
			subject:  fmt.Sprintf("La tua prenotazione SurgePark è %s - Codice: %s", status, code),
			heading:  "Prenotazione " + status,
			greeting: "Ciao",
			intro:    fmt.Sprintf("La tua prenotazione presso SurgePark è %s.", status),
			sms:      fmt.Sprintf("SurgePark: La tua prenotazione %s è stata %s!\nCheck-in: %%s.\nAltri dettagli nella tua email.", code, status),
			labels: entities.EmailLabels{
				Code: "Codice prenotazione", Address: "Indirizzo", Plate: "Targa",
				CheckIn: "Check-in", CheckOut: "Check-out", Amount: "Importo", Pay: "Paga ora",
			},
		}
	default:
		status := statusWords["en"][kind]
		return messageTexts{
			subject:  fmt.Sprintf("Your SurgePark reservation is %s - Code: %s", status, code),
			heading:  "Reservation " + status,
			greeting: "Hello",
			intro:    fmt.Sprintf("Your reservation at SurgePark is %s.", status),
			sms:      fmt.Sprintf("SurgePark: Reservation %s has been %s!\nCheck-in: %%s.\nMore details in your email.", code, status),
			labels: entities.EmailLabels{
				Code: "Reservation code", Address: "Address", Plate: "Plate",
				CheckIn: "Check-in", CheckOut: "Check-out", Amount: "Amount", Pay: "Pay now",
			},
		}
	}
}

func (s *SenderService) NotifyReservation(res db.Reservation, loc db.Location, kind NotificationKind, checkoutURL string) {
	texts := textsFor(res.Language, kind, res.Code)
	data := entities.ReservationEmailData{
		Language:           res.Language,
		Heading:            texts.heading,
		Greeting:           texts.greeting,
		UserName:           res.UserName,
		Intro:              texts.intro,
		Labels:             texts.labels,
		ReservationCode:    res.Code,
		Address:            loc.Address,
		Plate:              res.Plate,
		StartTimeFormatted: res.StartTime.In(s.tz).Format("02 Jan 2006 15:04 MST"),
		EndTimeFormatted:   res.EndTime.In(s.tz).Format("02 Jan 2006 15:04 MST"),
		AmountFormatted:    fmt.Sprintf("€ %.2f", res.Amount),
		CheckoutURL:        checkoutURL,
		CurrentYear:        time.Now().In(s.tz).Year(),
	}
	if data.Language == "" {
		data.Language = "en"
	}

	plain := fmt.Sprintf("%s %s,\n\n%s\n\n%s: %s\n%s: %s\n%s: %s\n%s: %s\n%s: %s\n%s: %s\n",
		texts.greeting, res.UserName, texts.intro,
		texts.labels.Code, data.ReservationCode,
		texts.labels.Address, data.Address,
		texts.labels.Plate, data.Plate,
		texts.labels.CheckIn, data.StartTimeFormatted,
		texts.labels.CheckOut, data.EndTimeFormatted,
		texts.labels.Amount, data.AmountFormatted,
	)
	if checkoutURL != "" {
		plain += fmt.Sprintf("\n%s: %s\n", texts.labels.Pay, checkoutURL)
	}

	var html bytes.Buffer
	if err := templates.ReservationEmail.Execute(&html, data); err != nil {
		s.logger.Error("email_template_failed", "reservation_id", res.ID, "err", err)
	}
	smsBody := fmt.Sprintf(texts.sms, res.StartTime.In(s.tz).Format("02/01 15:04"))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if res.UserEmail != "" {
			if err := s.mail.SendEmail(ctx, res.UserEmail, res.UserName, texts.subject, plain, html.String()); err != nil {
				s.logger.Warn("email_failed", "reservation_id", res.ID, "kind", kind, "err", err)
			}
		}
		if res.UserPhone != "" {
			if err := s.sms.SendSMS(ctx, res.UserPhone, smsBody); err != nil {
				s.logger.Warn("sms_failed", "reservation_id", res.ID, "kind", kind, "err", err)
			}
		}
	}()
}

// SendViolationReport emails an operator about a vehicle parked without a
// valid reservation.
func (s *SenderService) SendViolationReport(ctx context.Context, req entities.ViolationRequest) error {
	if s.violationEmail == "" {
		return fmt.Errorf("violation report address is not configured: %w", apperr.ErrUpstreamUnavailable)
	}
	if req.Plate == "" || req.Address == "" {
		return fmt.Errorf("plate and address are required: %w", apperr.ErrInvalidInput)
	}
	if req.Timestamp == "" {
		req.Timestamp = time.Now().In(s.tz).Format("02 Jan 2006 15:04 MST")
	}

	var html bytes.Buffer
	if err := templates.ViolationEmail.Execute(&html, entities.ViolationEmailData(req)); err != nil {
		return fmt.Errorf("rendering violation email: %w", err)
	}
	plain := fmt.Sprintf("Plate: %s\nAddress: %s\nReported at: %s\n", req.Plate, req.Address, req.Timestamp)
	if req.Notes != "" {
		plain += "Notes: " + req.Notes + "\n"
	}

	subject := fmt.Sprintf("Parking violation: %s", req.Plate)
	return s.mail.SendEmail(ctx, s.violationEmail, "", subject, plain, html.String())
}

// Wait blocks until queued notifications have been attempted.
func (s *SenderService) Wait() {
	s.wg.Wait()
}
