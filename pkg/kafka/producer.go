package kafka

import (
	"context"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"

	kafka_config "slotbook/pkg/kafka/config"
	"slotbook/pkg/logger"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes to a single topic through a kafka-go writer.
type Producer struct {
	writer     messageWriter
	topic      string
	middleware []ProducerMiddleware

	mu     sync.RWMutex
	closed bool
}

func NewProducer(cfg *kafka_config.Config, topic string, log *logger.Logger) (*Producer, error) {
	switch {
	case cfg == nil:
		return nil, fmt.Errorf("kafka: nil config")
	case !cfg.Enabled():
		return nil, fmt.Errorf("kafka: no brokers configured")
	case topic == "":
		return nil, fmt.Errorf("kafka: topic is empty")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: cfg.Producer.Acks(),
		Compression:  cfg.Producer.Codec(),
		MaxAttempts:  cfg.Producer.MaxAttempts,
		BatchTimeout: cfg.Producer.BatchTimeout,
		Async:        cfg.Producer.Async,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			log.Error("Kafka writer error", "topic", topic, "detail", fmt.Sprintf(msg, args...))
		}),
	}

	p := newProducer(writer, topic)
	if cfg.LogPublishes {
		p.Use(LoggingMiddleware(log))
	}
	return p, nil
}

func newProducer(writer messageWriter, topic string) *Producer {
	return &Producer{writer: writer, topic: topic}
}

func (p *Producer) Topic() string {
	return p.topic
}

// Use appends middleware; the first added runs outermost.
func (p *Producer) Use(mw ProducerMiddleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.middleware = append(p.middleware, mw)
}

// Publish rejects a message without key or value.
func (p *Producer) Publish(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	return p.send(ctx, []Message{msg})
}

// PublishBatch writes the valid messages in one call and drops the rest.
func (p *Producer) PublishBatch(ctx context.Context, msgs []Message) error {
	valid := make([]Message, 0, len(msgs))
	for _, msg := range msgs {
		if msg.validate() == nil {
			valid = append(valid, msg)
		}
	}
	if len(valid) == 0 {
		return ErrNothingToPublish
	}
	return p.send(ctx, valid)
}

func (p *Producer) send(ctx context.Context, msgs []Message) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrProducerClosed
	}
	chain := append([]ProducerMiddleware(nil), p.middleware...)
	p.mu.RUnlock()

	for i := range msgs {
		msgs[i].Topic = p.topic
	}

	write := p.write
	for i := len(chain) - 1; i >= 0; i-- {
		write = chain[i](write)
	}
	return write(ctx, msgs)
}

func (p *Producer) write(ctx context.Context, msgs []Message) error {
	out := make([]kafka.Message, len(msgs))
	for i, msg := range msgs {
		out[i] = kafka.Message{
			Key:   []byte(msg.Key),
			Value: msg.Value,
			Time:  msg.Timestamp,
		}
		for k, v := range msg.Headers {
			out[i].Headers = append(out[i].Headers, kafka.Header{Key: k, Value: []byte(v)})
		}
	}
	return p.writer.WriteMessages(ctx, out...)
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}
