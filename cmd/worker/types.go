package main

import (
	"context"

	"github.com/imrishuroy/quickcart/internal/idempotency"
	"github.com/imrishuroy/quickcart/internal/orders"
)

// OrderWriter persists an order together with its delivery record.
type OrderWriter interface {
	CreateWithIdempotencyTransaction(ctx context.Context, idempotencyTable string, rec idempotency.Record, order orders.Order) error
}

// DeliveryLog tracks which events have been applied.
type DeliveryLog interface {
	TableName() string
	NewRecord(eventID, eventName, orderID string) idempotency.Record
	Get(ctx context.Context, eventID string) (*idempotency.Record, error)
	MarkDone(ctx context.Context, eventID string) error
}

// Counter emits worker metrics.
type Counter interface {
	Count(ctx context.Context, name string, value float64, dims ...string) error
}
