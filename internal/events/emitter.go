package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Publisher delivers one encoded envelope to the event bus. id and name are
// the envelope's own fields, passed alongside so transports can key and tag
// messages without decoding. A nil error means the bus accepted the message,
// not that any consumer processed it.
type Publisher interface {
	Publish(ctx context.Context, id, name string, body []byte) error
}

// Emitter packages payloads into envelopes and hands them to a Publisher.
type Emitter struct {
	pub     Publisher
	newID   func() string
	nowFunc func() time.Time
}

func NewEmitter(pub Publisher) *Emitter {
	return &Emitter{
		pub:     pub,
		newID:   uuid.NewString,
		nowFunc: time.Now,
	}
}

// OrderCreated publishes an order/created event and returns the envelope
// that was sent. Failures are returned as-is; there is no redelivery.
func (e *Emitter) OrderCreated(ctx context.Context, data OrderCreated) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal order event: %w", err)
	}
	env := Envelope{
		ID:   e.newID(),
		Name: OrderCreatedName,
		Data: raw,
		TS:   e.nowFunc().UnixMilli(),
	}
	body, err := json.Marshal(env)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal envelope: %w", err)
	}
	if err := e.pub.Publish(ctx, env.ID, env.Name, body); err != nil {
		return Envelope{}, fmt.Errorf("publish %s: %w", OrderCreatedName, err)
	}
	return env, nil
}
