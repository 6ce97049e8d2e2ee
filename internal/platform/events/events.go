// Package events publishes record-change and prediction events to an
// external sink. Publishing is best effort: callers log failures and carry
// on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event types.
const (
	PatientCreated = "patient.created"
	PatientUpdated = "patient.updated"
	PatientDeleted = "patient.deleted"
	PredictionMade = "prediction.made"
)

// Sink names accepted by Open.
const (
	SinkNone  = "none"
	SinkLog   = "log"
	SinkKafka = "kafka"
	SinkSQS   = "sqs"
)

// Event is the envelope written to every sink.
type Event struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Subject    string                 `json:"subject"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// New builds an event with a fresh id and the current time.
func New(typ, subject string, data map[string]interface{}) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       typ,
		Subject:    subject,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

func (e Event) encode() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", e.Type, err)
	}
	return b, nil
}

// Publisher sends events to a sink.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Config selects and configures a sink.
type Config struct {
	Sink      string
	Brokers   []string
	Topic     string
	QueueName string
}

// Open returns the publisher named by cfg.Sink.
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (Publisher, error) {
	switch cfg.Sink {
	case "", SinkNone:
		return Nop{}, nil
	case SinkLog:
		return NewLogPublisher(logger), nil
	case SinkKafka:
		return NewKafkaPublisher(cfg.Brokers, cfg.Topic), nil
	case SinkSQS:
		return NewSQSPublisher(ctx, cfg.QueueName)
	default:
		return nil, fmt.Errorf("unknown event sink %q", cfg.Sink)
	}
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// LogPublisher writes events to a zerolog logger.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With().Str("component", "events").Logger()}
}

func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	p.logger.Info().
		Str("event_id", e.ID).
		Str("type", e.Type).
		Str("subject", e.Subject).
		Interface("data", e.Data).
		Msg("event")
	return nil
}

func (p *LogPublisher) Close() error { return nil }
