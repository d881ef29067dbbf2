package awsmock

import (
	"context"
	"testing"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func s(v string) *types.AttributeValueMemberS { return &types.AttributeValueMemberS{Value: v} }
func n(v string) *types.AttributeValueMemberN { return &types.AttributeValueMemberN{Value: v} }

func TestDynamo_ConditionalPut(t *testing.T) {
	m := NewDynamo()
	m.CreateTable("t", "id")
	ctx := context.Background()
	in := &dyn.PutItemInput{
		TableName:           str("t"),
		Item:                map[string]types.AttributeValue{"id": s("a")},
		ConditionExpression: str("attribute_not_exists(id)"),
	}

	_, err := m.PutItem(ctx, in)
	require.NoError(t, err)

	_, err = m.PutItem(ctx, in)
	var ccf *types.ConditionalCheckFailedException
	assert.ErrorAs(t, err, &ccf)
	assert.Equal(t, 2, m.Calls["PutItem"])
}

func TestDynamo_QueryIndexDescending(t *testing.T) {
	m := NewDynamo()
	m.CreateTable("orders", "order_id")
	m.AddIndex("orders", "by-user", "user_id", "date")
	m.Seed("orders", map[string]types.AttributeValue{"order_id": s("o1"), "user_id": s("u"), "date": n("5")})
	m.Seed("orders", map[string]types.AttributeValue{"order_id": s("o2"), "user_id": s("u"), "date": n("20")})
	m.Seed("orders", map[string]types.AttributeValue{"order_id": s("o3"), "user_id": s("x"), "date": n("30")})

	forward := false
	out, err := m.Query(context.Background(), &dyn.QueryInput{
		TableName:                 str("orders"),
		IndexName:                 str("by-user"),
		KeyConditionExpression:    str("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":uid": s("u")},
		ScanIndexForward:          &forward,
	})
	require.NoError(t, err)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "o2", out.Items[0]["order_id"].(*types.AttributeValueMemberS).Value)
	assert.Equal(t, "o1", out.Items[1]["order_id"].(*types.AttributeValueMemberS).Value)
}

func TestDynamo_BatchGetProjection(t *testing.T) {
	m := NewDynamo()
	m.CreateTable("p", "product_id")
	m.Seed("p", map[string]types.AttributeValue{"product_id": s("p1"), "name": s("Mouse"), "description": s("long")})

	out, err := m.BatchGetItem(context.Background(), &dyn.BatchGetItemInput{
		RequestItems: map[string]types.KeysAndAttributes{
			"p": {
				Keys: []map[string]types.AttributeValue{
					{"product_id": s("p1")},
					{"product_id": s("gone")},
				},
				ProjectionExpression:     str("product_id, #n"),
				ExpressionAttributeNames: map[string]string{"#n": "name"},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, out.Responses["p"], 1)
	item := out.Responses["p"][0]
	assert.Contains(t, item, "name")
	assert.NotContains(t, item, "description")
	assert.Equal(t, []int{2}, m.BatchGetKeys)
}
