// Package contact stores messages sent through the storefront contact form.
package contact

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"

	"github.com/imrishuroy/quickcart/internal/aws"
)

// Message is a stored contact form submission.
type Message struct {
	ContactID string `json:"_id" dynamodbav:"contact_id"` // PK
	Name      string `json:"name" dynamodbav:"name"`
	Email     string `json:"email" dynamodbav:"email"`
	Subject   string `json:"subject,omitempty" dynamodbav:"subject,omitempty"`
	Message   string `json:"message" dynamodbav:"message"`
	CreatedAt int64  `json:"createdAt" dynamodbav:"created_at"` // epoch millis
}

type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	newID     func() string
	nowFunc   func() time.Time
}

func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		newID:     uuid.NewString,
		nowFunc:   time.Now,
	}
}

// Create assigns an id and timestamp to m and persists it.
func (s *Store) Create(ctx context.Context, m Message) (Message, error) {
	m.ContactID = s.newID()
	m.CreatedAt = s.nowFunc().UnixMilli()

	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return Message{}, fmt.Errorf("marshal contact: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(contact_id)"),
	}); err != nil {
		return Message{}, fmt.Errorf("put contact: %w", err)
	}
	return m, nil
}
