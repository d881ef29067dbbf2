package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/imrishuroy/quickcart/internal/events"
)

// Handler processes one message body. A nil error commits the offset.
type Handler func(ctx context.Context, body []byte) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads a topic as part of a consumer group. Offsets are committed
// only after the handler returns, so delivery is at least once.
type Consumer struct {
	reader     messageReader
	logger     zerolog.Logger
	backoff    time.Duration
	maxBackoff time.Duration
}

func NewConsumer(brokers []string, topic, groupID string, logger zerolog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, logger: logger, backoff: time.Second, maxBackoff: 30 * time.Second}
}

// Consume runs until ctx is cancelled. A malformed message is logged and
// committed. Any other handler failure is retried in place with capped
// backoff; committing past it would lose the event since the topic has no
// dead-letter queue.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, context.Canceled) {
				return err
			}
			c.logger.Error().Err(err).Msg("kafka fetch failed")
			continue
		}

		if err := c.handle(ctx, msg, handler); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error().Err(err).
				Str("key", string(msg.Key)).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("skipping malformed message")
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error().Err(err).Int64("offset", msg.Offset).Msg("kafka commit failed")
		}
	}
}

// handle returns nil once the handler succeeds, the malformed error when the
// message can never succeed, or ctx's error when cancelled mid-retry.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message, handler Handler) error {
	for attempt := 1; ; attempt++ {
		err := handler(ctx, msg.Value)
		if err == nil {
			return nil
		}
		if errors.Is(err, events.ErrMalformed) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn().Err(err).Int("attempt", attempt).Str("key", string(msg.Key)).Msg("handler failed, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.delay(attempt)):
		}
	}
}

func (c *Consumer) delay(attempt int) time.Duration {
	d := c.backoff * time.Duration(attempt)
	if c.maxBackoff > 0 && d > c.maxBackoff {
		return c.maxBackoff
	}
	return d
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
