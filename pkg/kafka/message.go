package kafka

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderCorrelationID = "correlation-id"
	HeaderSchemaVersion = "schema-version"
	HeaderSource        = "source"
	HeaderTimestamp     = "timestamp"
)

var (
	ErrProducerClosed   = errors.New("kafka: producer is closed")
	ErrMissingKey       = errors.New("kafka: message key is empty")
	ErrMissingValue     = errors.New("kafka: message value is empty")
	ErrNothingToPublish = errors.New("kafka: batch has no publishable message")
)

// Message is one domain event on its way to a topic. Key picks the
// partition, so events sharing a key stay ordered.
type Message struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Topic     string
	Timestamp time.Time
}

// Envelope is the metadata every published event carries in its headers.
type Envelope struct {
	EventType     string
	CorrelationID string
	OccurredAt    time.Time
}

// Encode JSON-encodes payload and stamps the envelope headers, including a
// fresh event id.
func Encode(key string, env Envelope, payload any) (Message, error) {
	value, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}

	headers := map[string]string{
		HeaderEventID:       uuid.NewString(),
		HeaderEventType:     env.EventType,
		HeaderSchemaVersion: SchemaVersion,
		HeaderSource:        Source,
		HeaderTimestamp:     env.OccurredAt.UTC().Format(time.RFC3339),
	}
	if env.CorrelationID != "" {
		headers[HeaderCorrelationID] = env.CorrelationID
	}

	return Message{
		Key:       key,
		Value:     value,
		Headers:   headers,
		Timestamp: env.OccurredAt,
	}, nil
}

func (m Message) validate() error {
	switch {
	case m.Key == "":
		return ErrMissingKey
	case len(m.Value) == 0:
		return ErrMissingValue
	}
	return nil
}

func (m Message) Decode(v any) error {
	return json.Unmarshal(m.Value, v)
}

func (m Message) EventID() string   { return m.Headers[HeaderEventID] }
func (m Message) EventType() string { return m.Headers[HeaderEventType] }
