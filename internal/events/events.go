// Package events publishes reservation lifecycle changes to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"surgepark/internal/db"
)

const (
	ReservationBooked      = "reservation.booked"
	ReservationRescheduled = "reservation.rescheduled"
	ReservationCancelled   = "reservation.cancelled"
	ReservationFailed      = "reservation.failed"
)

type Event struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	ReservationID   string    `json:"reservation_id"`
	LocationID      string    `json:"location_id"`
	Status          string    `json:"status"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Amount          float64   `json:"amount"`
	SurgeMultiplier float64   `json:"surge_multiplier"`
	OccurredAt      time.Time `json:"occurred_at"`
}

func NewEvent(eventType string, r db.Reservation, at time.Time) Event {
	return Event{
		ID:              uuid.NewString(),
		Type:            eventType,
		ReservationID:   r.ID,
		LocationID:      r.LocationID,
		Status:          string(r.Status),
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		Amount:          r.Amount,
		SurgeMultiplier: r.SurgeMultiplier,
		OccurredAt:      at,
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

// AMQPPublisher sends events to a durable topic exchange, routed by type.
type AMQPPublisher struct {
	conn     *amqp.Connection
	exchange string
	logger   *slog.Logger

	mu sync.Mutex
	ch *amqp.Channel
}

func DialAMQP(url, exchange string, logger *slog.Logger) (*AMQPPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	logger.Info("amqp_publisher_ready", "exchange", exchange)
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange, logger: logger}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(
		ctx,
		p.exchange,
		e.Type, // routing key
		false,  // mandatory
		false,  // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    e.ID,
			Timestamp:    e.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		p.logger.Warn("amqp_channel_close_failed", "error", err.Error())
	}
	return p.conn.Close()
}
