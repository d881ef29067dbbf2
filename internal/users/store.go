package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/quickcart/internal/aws"
)

// ErrUserExists is returned by Create when a record with the same id exists.
var ErrUserExists = errors.New("user already exists")

// Store encapsulates operations on the users table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
}

func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{client: client, tableName: tableName}
}

// FindByID returns the user, or (nil, nil) when no record exists.
func (s *Store) FindByID(ctx context.Context, userID string) (*User, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
		ConsistentRead: boolPtr(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var u User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	if u.CartItems == nil {
		u.CartItems = map[string]int{}
	}
	return &u, nil
}

// Create inserts a new user. It never overwrites an existing record.
func (s *Store) Create(ctx context.Context, u *User) error {
	item, err := s.marshal(u)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(user_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Save replaces the stored user with u.
func (s *Store) Save(ctx context.Context, u *User) error {
	item, err := s.marshal(u)
	if err != nil {
		return err
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *Store) marshal(u *User) (map[string]types.AttributeValue, error) {
	if u == nil || u.UserID == "" {
		return nil, errors.New("user id is required")
	}
	if u.CartItems == nil {
		u.CartItems = map[string]int{}
	}
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return nil, fmt.Errorf("marshal user: %w", err)
	}
	return item, nil
}

func boolPtr(b bool) *bool { return &b }
