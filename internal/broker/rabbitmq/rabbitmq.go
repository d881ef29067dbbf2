// Package rabbitmq carries order events over a RabbitMQ topic exchange.
package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Topology names the exchange and queue the service uses. Rejected messages
// are dead-lettered to "<Queue>.dlq".
type Topology struct {
	Exchange string
	Queue    string
}

func (t Topology) deadLetterExchange() string { return t.Queue + ".dlx" }
func (t Topology) deadLetterQueue() string    { return t.Queue + ".dlq" }

// RabbitMQ owns one connection and channel.
type RabbitMQ struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
}

func Dial(url string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return &RabbitMQ{Conn: conn, Channel: ch}, nil
}

// Setup declares the durable exchange, the work queue bound to every
// routing key and the dead-letter pair.
func (r *RabbitMQ) Setup(t Topology) error {
	if err := r.Channel.ExchangeDeclare(t.deadLetterExchange(), "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dead-letter exchange: %w", err)
	}
	if _, err := r.Channel.QueueDeclare(t.deadLetterQueue(), true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dead-letter queue: %w", err)
	}
	if err := r.Channel.QueueBind(t.deadLetterQueue(), "", t.deadLetterExchange(), false, nil); err != nil {
		return fmt.Errorf("bind dead-letter queue: %w", err)
	}

	if err := r.Channel.ExchangeDeclare(t.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	_, err := r.Channel.QueueDeclare(
		t.Queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-dead-letter-exchange": t.deadLetterExchange(),
		},
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := r.Channel.QueueBind(t.Queue, "#", t.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

func (r *RabbitMQ) Close() error {
	if r.Channel != nil {
		_ = r.Channel.Close()
	}
	if r.Conn != nil {
		return r.Conn.Close()
	}
	return nil
}

type channelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher sends envelopes to the exchange, routed by event name.
type Publisher struct {
	ch       channelPublisher
	exchange string
}

func NewPublisher(ch *amqp.Channel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange}
}

func (p *Publisher) Publish(ctx context.Context, id, name string, body []byte) error {
	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		ContentType:  "application/json",
		MessageId:    id,
		Type:         name,
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, name, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}
