package kafka

import (
	"context"
	"time"

	"slotbook/pkg/logger"
)

// PublishFunc writes messages to the producer's topic.
type PublishFunc func(ctx context.Context, msgs []Message) error

// ProducerMiddleware wraps every write, single or batched.
type ProducerMiddleware func(next PublishFunc) PublishFunc

// LoggingMiddleware logs each write with its outcome and duration.
func LoggingMiddleware(log *logger.Logger) ProducerMiddleware {
	return func(next PublishFunc) PublishFunc {
		return func(ctx context.Context, msgs []Message) error {
			start := time.Now()
			err := next(ctx, msgs)

			attrs := []any{
				"topic", msgs[0].Topic,
				"count", len(msgs),
				"event_type", msgs[0].EventType(),
				"duration", time.Since(start),
			}
			if len(msgs) == 1 {
				attrs = append(attrs, "key", msgs[0].Key, "event_id", msgs[0].EventID())
			}
			if err != nil {
				log.Error("Failed to publish", append(attrs, "error", err)...)
				return err
			}
			log.Debug("Published", attrs...)
			return nil
		}
	}
}
