package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	kafka_config "slotbook/pkg/kafka/config"
	"slotbook/pkg/logger"
	"slotbook/pkg/model"
)

const (
	EventBookingConfirmed = "booking.confirmed"
	EventScheduleCreated  = "schedule.created"

	SchemaVersion = "1"
	Source        = "slotbook-scheduler"
)

type BookingConfirmedEvent struct {
	OrderID       string    `json:"order_id"`
	VendorID      string    `json:"vendor_id,omitempty"`
	ServiceID     string    `json:"service_id"`
	ScheduledDate string    `json:"scheduled_date"`
	ScheduledTime string    `json:"scheduled_time"`
	Status        string    `json:"status"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	ConfirmedAt   time.Time `json:"confirmed_at"`
}

type ScheduleCreatedEvent struct {
	ID          string    `json:"id"`
	VendorID    string    `json:"vendor_id"`
	Title       string    `json:"title"`
	ServiceName string    `json:"service_name"`
	ClientName  string    `json:"client_name"`
	OccursAt    time.Time `json:"occurs_at"`
	Source      string    `json:"source,omitempty"`
}

type producer interface {
	Publish(ctx context.Context, msg Message) error
	PublishBatch(ctx context.Context, msgs []Message) error
	Close() error
}

// Publisher emits the scheduling domain events. Without brokers it is a
// no-op so the service can run standalone.
type Publisher struct {
	bookings  producer
	schedules producer
	log       *logger.Logger
	now       func() time.Time
}

func NewPublisher(cfg *kafka_config.Config, log *logger.Logger) (*Publisher, error) {
	p := &Publisher{log: log, now: time.Now}

	if !cfg.Enabled() {
		log.Warn("Kafka brokers not configured, domain events will not be published")
		return p, nil
	}

	bookings, err := NewProducer(cfg, cfg.Topics.Bookings, log)
	if err != nil {
		return nil, fmt.Errorf("bookings producer: %w", err)
	}
	schedules, err := NewProducer(cfg, cfg.Topics.Schedules, log)
	if err != nil {
		_ = bookings.Close()
		return nil, fmt.Errorf("schedules producer: %w", err)
	}

	p.bookings = bookings
	p.schedules = schedules
	return p, nil
}

// BookingConfirmed is keyed by order id.
func (p *Publisher) BookingConfirmed(ctx context.Context, target model.Target, req model.BookingRequest, conf model.BookingConfirmation) error {
	if p.bookings == nil {
		return nil
	}

	now := p.now()
	msg, err := Encode(conf.OrderID, Envelope{EventType: EventBookingConfirmed, OccurredAt: now}, BookingConfirmedEvent{
		OrderID:       conf.OrderID,
		VendorID:      target.VendorID,
		ServiceID:     target.ServiceID,
		ScheduledDate: conf.ScheduledDate,
		ScheduledTime: conf.ScheduledTime,
		Status:        conf.Status,
		FullName:      req.FullName,
		Email:         req.Email,
		Phone:         req.Phone,
		ConfirmedAt:   now.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode %s: %w", EventBookingConfirmed, err)
	}
	return p.bookings.Publish(ctx, msg)
}

// ScheduleCreated is keyed by vendor so one vendor's events stay ordered.
// More than one event goes out as a single batch.
func (p *Publisher) ScheduleCreated(ctx context.Context, events ...model.ScheduledEvent) error {
	if p.schedules == nil || len(events) == 0 {
		return nil
	}

	now := p.now()
	msgs := make([]Message, 0, len(events))
	for _, ev := range events {
		msg, err := Encode(ev.VendorID, Envelope{EventType: EventScheduleCreated, CorrelationID: ev.ID, OccurredAt: now}, ScheduleCreatedEvent{
			ID:          ev.ID,
			VendorID:    ev.VendorID,
			Title:       ev.Title,
			ServiceName: ev.ServiceName,
			ClientName:  ev.ClientName,
			OccursAt:    ev.OccursAt,
			Source:      ev.Source,
		})
		if err != nil {
			return fmt.Errorf("encode %s: %w", EventScheduleCreated, err)
		}
		msgs = append(msgs, msg)
	}

	if len(msgs) == 1 {
		return p.schedules.Publish(ctx, msgs[0])
	}
	return p.schedules.PublishBatch(ctx, msgs)
}

func (p *Publisher) Close() error {
	var errs []error
	for _, pr := range []producer{p.bookings, p.schedules} {
		if pr != nil {
			errs = append(errs, pr.Close())
		}
	}
	return errors.Join(errs...)
}
