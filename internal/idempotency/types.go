package idempotency

import (
	"errors"
	"time"
)

// Status values for idempotency entries
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
)

// ErrDuplicateDelivery reports that an event id has already been recorded,
// so the message is a redelivery and must not produce a second order.
var ErrDuplicateDelivery = errors.New("event already processed")

// Record is the shape persisted in the idempotency DynamoDB table. One record
// exists per consumed event.
type Record struct {
	EventID   string    `dynamodbav:"event_id"` // PK
	Status    string    `dynamodbav:"status"`
	OrderID   string    `dynamodbav:"order_id,omitempty"`
	EventName string    `dynamodbav:"event_name,omitempty"`
	CreatedAt time.Time `dynamodbav:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
	ExpiresAt int64     `dynamodbav:"expires_at"` // TTL epoch seconds
}
