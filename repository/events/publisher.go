package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/wayddd1/VanEaseRentalSystem/model"
)

const Exchange = "vanease_events"

// Publisher delivers lifecycle events after the change has committed.
type Publisher interface {
	Publish(ctx context.Context, ev model.Event) error
	Close() error
}

type amqpPublisher struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	log    *slog.Logger
	mu     sync.Mutex
	closed bool
}

// NewAMQP dials url and declares the durable topic exchange.
func NewAMQP(url string, log *slog.Logger) (Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		Exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	log.Info("rabbitmq connected", "exchange", Exchange)
	return &amqpPublisher{conn: conn, ch: ch, log: log}, nil
}

func (p *amqpPublisher) Publish(ctx context.Context, ev model.Event) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("rabbitmq channel not available")
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		publishCtx,
		Exchange,
		string(ev.Type),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    ev.OccurredAt,
		},
	)
}

func (p *amqpPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	_ = p.ch.Close()
	return p.conn.Close()
}

type logPublisher struct{ log *slog.Logger }

// NewLog returns a Publisher that only writes events to the log.
func NewLog(log *slog.Logger) Publisher { return &logPublisher{log: log} }

func (p *logPublisher) Publish(ctx context.Context, ev model.Event) error {
	p.log.InfoContext(ctx, "event",
		"type", ev.Type,
		"booking_id", ev.BookingID,
		"payment_id", ev.PaymentID,
		"vehicle_id", ev.VehicleID,
		"status", ev.Status,
	)
	return nil
}

func (p *logPublisher) Close() error { return nil }

// Emit publishes ev and logs failures; callers never fail on delivery.
func Emit(ctx context.Context, p Publisher, log *slog.Logger, ev model.Event) {
	if p == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	if err := p.Publish(ctx, ev); err != nil && log != nil {
		log.WarnContext(ctx, "publish event failed", "type", ev.Type, "err", err)
	}
}
