package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/quickcart/internal/aws"
)

// KeyAttribute is the partition key of the idempotency table.
const KeyAttribute = "event_id"

// Store encapsulates idempotency operations against DynamoDB.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration // how long a record is kept before DynamoDB TTL expires it
	nowFunc   func() time.Time
}

// NewStore returns a configured Store.
// ttlWindow: default TTL window (e.g., 48*time.Hour)
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// TableName returns the idempotency table, for callers that write the
// record inside their own transaction.
func (s *Store) TableName() string { return s.tableName }

// NewRecord builds an IN_PROGRESS record for an event about to be applied.
func (s *Store) NewRecord(eventID, eventName, orderID string) Record {
	now := s.nowFunc()
	return Record{
		EventID:   eventID,
		Status:    StatusInProgress,
		OrderID:   orderID,
		EventName: eventName,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.ttlWindow).Unix(),
	}
}

// Get retrieves an idempotency record by event id. If not found, returns (nil, nil).
func (s *Store) Get(ctx context.Context, eventID string) (*Record, error) {
	input := &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			KeyAttribute: &types.AttributeValueMemberS{Value: eventID},
		},
	}
	out, err := s.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &rec, nil
}

// MarkDone moves an existing record to DONE. A missing record is reported
// as an error rather than silently created.
func (s *Store) MarkDone(ctx context.Context, eventID string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			KeyAttribute: &types.AttributeValueMemberS{Value: eventID},
		},
		UpdateExpression:    awsString("SET #s = :done, updated_at = :ua"),
		ConditionExpression: awsString("attribute_exists(" + KeyAttribute + ")"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":done": &types.AttributeValueMemberS{Value: StatusDone},
			":ua":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	}
	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException" {
			return fmt.Errorf("mark done %s: record not found", eventID)
		}
		return fmt.Errorf("update item (mark done): %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
