package events

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/imrishuroy/quickcart/internal/orders"
)

// OrderCreatedName is the bus name of the event emitted on checkout.
const OrderCreatedName = "order/created"

var (
	ErrUnknownEvent = errors.New("unknown event name")
	ErrMalformed    = errors.New("malformed event")
)

// Envelope is the wire shape of every message on the bus.
type Envelope struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
	TS   int64           `json:"ts"` // epoch millis
}

// OrderCreated is the payload of an order/created event. It is the only
// contract with the order persistence consumer.
type OrderCreated struct {
	UserID  string         `json:"userId"`
	Address orders.Address `json:"address"`
	Items   []orders.Item  `json:"items"`
	Amount  float64        `json:"amount"`
	Date    int64          `json:"date"` // epoch millis at submission
}

// Decode parses a raw bus message into an envelope.
func Decode(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.ID == "" || env.Name == "" {
		return Envelope{}, fmt.Errorf("%w: missing id or name", ErrMalformed)
	}
	return env, nil
}

// OrderCreated returns the typed payload when the envelope carries an
// order/created event.
func (e Envelope) OrderCreated() (OrderCreated, error) {
	if e.Name != OrderCreatedName {
		return OrderCreated{}, fmt.Errorf("%w: %s", ErrUnknownEvent, e.Name)
	}
	var data OrderCreated
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return OrderCreated{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return data, nil
}
