package products

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/quickcart/internal/aws"
)

// batchGetLimit is DynamoDB's per-request key limit for BatchGetItem.
const batchGetLimit = 100

// maxUnprocessedRounds bounds the re-requests of throttled keys.
const maxUnprocessedRounds = 5

// snapshotProjection selects only the display fields. "name" is a reserved word.
const snapshotProjection = "product_id, #n, offer_price, image"

// Store encapsulates read operations on the products table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
}

// NewStore creates a new products Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
	}
}

// FindByID fetches a product by product_id. Returns (nil, nil) if not found.
func (s *Store) FindByID(ctx context.Context, productID string) (*Product, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var p Product
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, fmt.Errorf("unmarshal product: %w", err)
	}
	return &p, nil
}

// FindSnapshots fetches display snapshots for the given ids with
// BatchGetItem, one request per 100 distinct ids. Ids with no product are
// simply absent from the result.
func (s *Store) FindSnapshots(ctx context.Context, productIDs []string) (map[string]Snapshot, error) {
	result := make(map[string]Snapshot, len(productIDs))

	seen := make(map[string]struct{}, len(productIDs))
	keys := make([]map[string]types.AttributeValue, 0, len(productIDs))
	for _, id := range productIDs {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: id},
		})
	}

	for start := 0; start < len(keys); start += batchGetLimit {
		end := min(start+batchGetLimit, len(keys))
		if err := s.batchGet(ctx, keys[start:end], result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *Store) batchGet(ctx context.Context, keys []map[string]types.AttributeValue, into map[string]Snapshot) error {
	request := map[string]types.KeysAndAttributes{
		s.tableName: {
			Keys:                     keys,
			ProjectionExpression:     aws.String(snapshotProjection),
			ExpressionAttributeNames: map[string]string{"#n": "name"},
		},
	}

	for round := 0; len(request) > 0; round++ {
		if round == maxUnprocessedRounds {
			return fmt.Errorf("batch get: keys still unprocessed after %d rounds", round)
		}
		out, err := s.client.BatchGetItem(ctx, &dyn.BatchGetItemInput{RequestItems: request})
		if err != nil {
			return fmt.Errorf("batch get item: %w", err)
		}
		for _, item := range out.Responses[s.tableName] {
			var snap Snapshot
			if err := attributevalue.UnmarshalMap(item, &snap); err != nil {
				return fmt.Errorf("unmarshal snapshot: %w", err)
			}
			into[snap.ID] = snap
		}
		request = out.UnprocessedKeys
	}
	return nil
}

// List returns every product in the table.
func (s *Store) List(ctx context.Context) ([]Product, error) {
	var (
		all       []Product
		startKey  map[string]types.AttributeValue
		firstPage = true
	)
	for firstPage || startKey != nil {
		firstPage = false
		out, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:         &s.tableName,
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var page []Product
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal products: %w", err)
		}
		all = append(all, page...)
		startKey = out.LastEvaluatedKey
	}
	if all == nil {
		all = []Product{}
	}
	return all, nil
}
