package main

import (
	"context"
	"errors"
	"fmt"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"

	"github.com/imrishuroy/quickcart/internal/events"
	"github.com/imrishuroy/quickcart/internal/idempotency"
	"github.com/imrishuroy/quickcart/internal/metrics"
	"github.com/imrishuroy/quickcart/internal/orders"
)

// Processor turns order/created events into persisted orders. Each event id
// yields at most one order, however often the bus redelivers it.
type Processor struct {
	orders     OrderWriter
	deliveries DeliveryLog
	metrics    Counter
	bus        string
	logger     zerolog.Logger
}

// NewProcessor creates a worker processor.
func NewProcessor(ow OrderWriter, dl DeliveryLog, m Counter, bus string, logger zerolog.Logger) *Processor {
	return &Processor{orders: ow, deliveries: dl, metrics: m, bus: bus, logger: logger}
}

// HandleSQS processes a Lambda SQS batch and reports failed records so only
// those are retried (and eventually dead-lettered).
func (p *Processor) HandleSQS(ctx context.Context, ev lambdaevents.SQSEvent) (lambdaevents.SQSEventResponse, error) {
	var resp lambdaevents.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.Process(ctx, []byte(rec.Body)); err != nil {
			p.logger.Error().Err(err).Str("message_id", rec.MessageId).Msg("worker error")
			resp.BatchItemFailures = append(resp.BatchItemFailures, lambdaevents.SQSBatchItemFailure{
				ItemIdentifier: rec.MessageId,
			})
		}
	}
	return resp, nil
}

// Process applies one encoded envelope. Unknown event names and redeliveries
// are acknowledged without side effects; malformed bodies are errors.
func (p *Processor) Process(ctx context.Context, body []byte) error {
	env, err := events.Decode(body)
	if err != nil {
		return err
	}
	log := p.logger.With().Str("event_id", env.ID).Str("event_name", env.Name).Logger()

	data, err := env.OrderCreated()
	if errors.Is(err, events.ErrUnknownEvent) {
		log.Info().Msg("skipping unhandled event")
		p.count(ctx, metrics.MetricEventsSkipped)
		return nil
	}
	if err != nil {
		return err
	}

	order := orders.Order{
		OrderID:       env.ID,
		UserID:        data.UserID,
		Items:         data.Items,
		Address:       data.Address,
		Amount:        data.Amount,
		Date:          data.Date,
		Status:        orders.StatusPlaced,
		PaymentType:   orders.PaymentTypeCOD,
		PaymentStatus: orders.PaymentStatusPending,
	}
	if order.UserID == "" || len(order.Items) == 0 {
		return fmt.Errorf("%w: order event %s has no user or items", events.ErrMalformed, env.ID)
	}

	rec := p.deliveries.NewRecord(env.ID, env.Name, order.OrderID)
	err = p.orders.CreateWithIdempotencyTransaction(ctx, p.deliveries.TableName(), rec, order)
	if errors.Is(err, idempotency.ErrDuplicateDelivery) {
		log.Info().Msg("duplicate delivery")
		p.count(ctx, metrics.MetricDuplicateDelivery)
		return p.finishDuplicate(ctx, env.ID)
	}
	if err != nil {
		metrics.RecordOrderOperation(metrics.OpPersist, false)
		return fmt.Errorf("persist order %s: %w", env.ID, err)
	}

	if err := p.deliveries.MarkDone(ctx, env.ID); err != nil {
		return fmt.Errorf("mark delivery %s done: %w", env.ID, err)
	}
	metrics.RecordOrderOperation(metrics.OpPersist, true)
	p.count(ctx, metrics.MetricOrdersPersisted)
	log.Info().Str("user_id", order.UserID).Float64("amount", order.Amount).Msg("order persisted")
	return nil
}

// finishDuplicate completes a delivery whose order was written by an
// earlier attempt that failed before marking the record DONE.
func (p *Processor) finishDuplicate(ctx context.Context, eventID string) error {
	rec, err := p.deliveries.Get(ctx, eventID)
	if err != nil {
		return err
	}
	if rec != nil && rec.Status == idempotency.StatusInProgress {
		return p.deliveries.MarkDone(ctx, eventID)
	}
	return nil
}

func (p *Processor) count(ctx context.Context, name string) {
	if p.metrics == nil {
		return
	}
	if err := p.metrics.Count(ctx, name, 1, "Bus", p.bus); err != nil {
		p.logger.Warn().Err(err).Str("metric", name).Msg("metric not published")
	}
}
