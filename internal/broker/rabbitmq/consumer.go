package rabbitmq

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/imrishuroy/quickcart/internal/events"
)

// Handler processes one message body. A nil error acks the delivery. A
// malformed message is rejected to the dead-letter queue; any other error
// requeues it once, then dead-letters it on the redelivery.
type Handler func(ctx context.Context, body []byte) error

// ErrDeliveriesClosed is returned when the broker closes the delivery channel.
var ErrDeliveriesClosed = errors.New("rabbitmq deliveries closed")

type Consumer struct {
	ch     *amqp.Channel
	queue  string
	tag    string
	logger zerolog.Logger
}

func NewConsumer(ch *amqp.Channel, queue, tag string, logger zerolog.Logger) *Consumer {
	return &Consumer{ch: ch, queue: queue, tag: tag, logger: logger}
}

// Consume runs until ctx is cancelled or the channel closes.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	if err := c.ch.Qos(10, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	msgs, err := c.ch.Consume(
		c.queue,
		c.tag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}
	return process(ctx, msgs, handler, c.logger)
}

func process(ctx context.Context, msgs <-chan amqp.Delivery, handler Handler, logger zerolog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return ErrDeliveriesClosed
			}
			if err := handler(ctx, msg.Body); err != nil {
				requeue := !msg.Redelivered && !errors.Is(err, events.ErrMalformed)
				ev := logger.Error()
				if requeue {
					ev = logger.Warn()
				}
				ev.Err(err).
					Str("message_id", msg.MessageId).
					Bool("redelivered", msg.Redelivered).
					Bool("requeue", requeue).
					Msg("handler failed")
				if nerr := msg.Nack(false, requeue); nerr != nil {
					logger.Error().Err(nerr).Msg("nack failed")
				}
				continue
			}
			if err := msg.Ack(false); err != nil {
				logger.Error().Err(err).Str("message_id", msg.MessageId).Msg("ack failed")
			}
		}
	}
}
