// Package awsmock provides an in-memory DynamoDB double for store tests.
//
// It understands the small expression dialect the stores emit:
// "attribute_not_exists(x)", "attribute_exists(x)", "a = :v" conditions,
// "SET a = :v, #b = :w" updates and "k = :v" key conditions. Anything else
// is ignored, which is enough for unit tests and nothing more.
package awsmock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/quickcart/internal/aws"
)

type index struct {
	hashKey  string
	rangeKey string
}

type table struct {
	pk      string
	items   map[string]map[string]types.AttributeValue
	indexes map[string]index
}

// Dynamo is a goroutine-safe fake of aws.DynamoDBAPI.
type Dynamo struct {
	mu     sync.Mutex
	tables map[string]*table

	// FailOn makes the named operation ("PutItem", "Query", ...) return the error.
	FailOn map[string]error

	// Calls counts invocations per operation name.
	Calls map[string]int
	// BatchGetKeys records the number of keys requested by each BatchGetItem call.
	BatchGetKeys []int
}

var _ aws.DynamoDBAPI = (*Dynamo)(nil)

func NewDynamo() *Dynamo {
	return &Dynamo{
		tables: map[string]*table{},
		FailOn: map[string]error{},
		Calls:  map[string]int{},
	}
}

// CreateTable registers a table keyed by a string partition key.
func (m *Dynamo) CreateTable(name, pk string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[name] = &table{
		pk:      pk,
		items:   map[string]map[string]types.AttributeValue{},
		indexes: map[string]index{},
	}
}

// AddIndex registers a secondary index usable by Query.
func (m *Dynamo) AddIndex(tableName, indexName, hashKey, rangeKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mustTable(tableName).indexes[indexName] = index{hashKey: hashKey, rangeKey: rangeKey}
}

// Seed stores an item directly, bypassing conditions.
func (m *Dynamo) Seed(tableName string, item map[string]types.AttributeValue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.mustTable(tableName)
	t.items[keyOf(item, t.pk)] = clone(item)
}

// Item returns a copy of the stored item, or nil.
func (m *Dynamo) Item(tableName, key string) map[string]types.AttributeValue {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.mustTable(tableName).items[key]
	if !ok {
		return nil
	}
	return clone(it)
}

// Len returns the number of items in a table.
func (m *Dynamo) Len(tableName string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.mustTable(tableName).items)
}

func (m *Dynamo) mustTable(name string) *table {
	t, ok := m.tables[name]
	if !ok {
		panic(fmt.Sprintf("awsmock: table %q not created", name))
	}
	return t
}

func (m *Dynamo) enter(op string) error {
	m.Calls[op]++
	return m.FailOn[op]
}

func (m *Dynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("PutItem"); err != nil {
		return nil, err
	}
	t := m.mustTable(*params.TableName)
	k := keyOf(params.Item, t.pk)
	if k == "" {
		return nil, errors.New("awsmock: missing partition key " + t.pk)
	}
	if !conditionHolds(params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, t.items[k]) {
		return nil, &types.ConditionalCheckFailedException{Message: str("The conditional request failed")}
	}
	t.items[k] = clone(params.Item)
	return &dyn.PutItemOutput{}, nil
}

func (m *Dynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetItem"); err != nil {
		return nil, err
	}
	t := m.mustTable(*params.TableName)
	it, ok := t.items[keyOf(params.Key, t.pk)]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: project(it, params.ProjectionExpression, params.ExpressionAttributeNames)}, nil
}

func (m *Dynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdateItem"); err != nil {
		return nil, err
	}
	t := m.mustTable(*params.TableName)
	k := keyOf(params.Key, t.pk)
	existing := t.items[k]
	if !conditionHolds(params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, existing) {
		return nil, &types.ConditionalCheckFailedException{Message: str("The conditional request failed")}
	}
	item := clone(existing)
	if item == nil {
		item = clone(params.Key)
	}
	if params.UpdateExpression != nil {
		expr := strings.TrimSpace(*params.UpdateExpression)
		expr = strings.TrimPrefix(expr, "SET ")
		for _, assign := range strings.Split(expr, ",") {
			lhs, rhs, ok := strings.Cut(assign, "=")
			if !ok {
				continue
			}
			name := resolveName(strings.TrimSpace(lhs), params.ExpressionAttributeNames)
			if v, ok := params.ExpressionAttributeValues[strings.TrimSpace(rhs)]; ok {
				item[name] = v
			}
		}
	}
	t.items[k] = item
	return &dyn.UpdateItemOutput{Attributes: clone(item)}, nil
}

func (m *Dynamo) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Query"); err != nil {
		return nil, err
	}
	t := m.mustTable(*params.TableName)
	idx := index{hashKey: t.pk}
	if params.IndexName != nil {
		var ok bool
		idx, ok = t.indexes[*params.IndexName]
		if !ok {
			return nil, fmt.Errorf("awsmock: unknown index %s", *params.IndexName)
		}
	}
	if params.KeyConditionExpression == nil {
		return nil, errors.New("awsmock: missing key condition")
	}
	lhs, rhs, _ := strings.Cut(*params.KeyConditionExpression, "=")
	name := resolveName(strings.TrimSpace(lhs), params.ExpressionAttributeNames)
	want := params.ExpressionAttributeValues[strings.TrimSpace(rhs)]
	if name != idx.hashKey {
		return nil, fmt.Errorf("awsmock: key condition on %s, index hash key is %s", name, idx.hashKey)
	}

	var out []map[string]types.AttributeValue
	for _, k := range sortedKeys(t.items) {
		it := t.items[k]
		if equal(it[name], want) {
			out = append(out, clone(it))
		}
	}
	if idx.rangeKey != "" {
		forward := params.ScanIndexForward == nil || *params.ScanIndexForward
		sort.SliceStable(out, func(i, j int) bool {
			if forward {
				return less(out[i][idx.rangeKey], out[j][idx.rangeKey])
			}
			return less(out[j][idx.rangeKey], out[i][idx.rangeKey])
		})
	}
	return &dyn.QueryOutput{Items: out, Count: int32(len(out))}, nil
}

func (m *Dynamo) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Scan"); err != nil {
		return nil, err
	}
	t := m.mustTable(*params.TableName)
	out := make([]map[string]types.AttributeValue, 0, len(t.items))
	for _, k := range sortedKeys(t.items) {
		out = append(out, project(t.items[k], params.ProjectionExpression, params.ExpressionAttributeNames))
	}
	return &dyn.ScanOutput{Items: out, Count: int32(len(out))}, nil
}

func (m *Dynamo) BatchGetItem(ctx context.Context, params *dyn.BatchGetItemInput, optFns ...func(*dyn.Options)) (*dyn.BatchGetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("BatchGetItem"); err != nil {
		return nil, err
	}
	resp := map[string][]map[string]types.AttributeValue{}
	total := 0
	for name, ka := range params.RequestItems {
		t := m.mustTable(name)
		total += len(ka.Keys)
		if len(ka.Keys) > 100 {
			return nil, errors.New("awsmock: too many keys in BatchGetItem")
		}
		for _, key := range ka.Keys {
			if it, ok := t.items[keyOf(key, t.pk)]; ok {
				resp[name] = append(resp[name], project(it, ka.ProjectionExpression, ka.ExpressionAttributeNames))
			}
		}
	}
	m.BatchGetKeys = append(m.BatchGetKeys, total)
	return &dyn.BatchGetItemOutput{Responses: resp}, nil
}

func (m *Dynamo) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("TransactWriteItems"); err != nil {
		return nil, err
	}
	reasons := make([]types.CancellationReason, len(params.TransactItems))
	canceled := false
	for i, it := range params.TransactItems {
		p := it.Put
		if p == nil {
			return nil, errors.New("awsmock: only Put is supported in transactions")
		}
		t := m.mustTable(*p.TableName)
		if !conditionHolds(p.ConditionExpression, p.ExpressionAttributeNames, p.ExpressionAttributeValues, t.items[keyOf(p.Item, t.pk)]) {
			reasons[i] = types.CancellationReason{Code: str("ConditionalCheckFailed")}
			canceled = true
		} else {
			reasons[i] = types.CancellationReason{Code: str("None")}
		}
	}
	if canceled {
		return nil, &types.TransactionCanceledException{
			Message:             str("Transaction cancelled"),
			CancellationReasons: reasons,
		}
	}
	for _, it := range params.TransactItems {
		t := m.mustTable(*it.Put.TableName)
		t.items[keyOf(it.Put.Item, t.pk)] = clone(it.Put.Item)
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}

func conditionHolds(cond *string, names map[string]string, values map[string]types.AttributeValue, existing map[string]types.AttributeValue) bool {
	if cond == nil || *cond == "" {
		return true
	}
	c := strings.TrimSpace(*cond)
	switch {
	case strings.HasPrefix(c, "attribute_not_exists("):
		attr := resolveName(strings.TrimSuffix(strings.TrimPrefix(c, "attribute_not_exists("), ")"), names)
		_, ok := existing[attr]
		return existing == nil || !ok
	case strings.HasPrefix(c, "attribute_exists("):
		attr := resolveName(strings.TrimSuffix(strings.TrimPrefix(c, "attribute_exists("), ")"), names)
		_, ok := existing[attr]
		return existing != nil && ok
	default:
		lhs, rhs, ok := strings.Cut(c, "=")
		if !ok {
			return true
		}
		if existing == nil {
			return false
		}
		name := resolveName(strings.TrimSpace(lhs), names)
		return equal(existing[name], values[strings.TrimSpace(rhs)])
	}
}

func project(item map[string]types.AttributeValue, expr *string, names map[string]string) map[string]types.AttributeValue {
	if expr == nil || *expr == "" {
		return clone(item)
	}
	out := map[string]types.AttributeValue{}
	for _, p := range strings.Split(*expr, ",") {
		name := resolveName(strings.TrimSpace(p), names)
		if v, ok := item[name]; ok {
			out[name] = v
		}
	}
	return out
}

func resolveName(s string, names map[string]string) string {
	if strings.HasPrefix(s, "#") {
		if n, ok := names[s]; ok {
			return n
		}
	}
	return s
}

func keyOf(item map[string]types.AttributeValue, pk string) string {
	if v, ok := item[pk].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func equal(a, b types.AttributeValue) bool {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberBOOL:
		bv, ok := b.(*types.AttributeValueMemberBOOL)
		return ok && av.Value == bv.Value
	}
	return false
}

func less(a, b types.AttributeValue) bool {
	if an, ok := a.(*types.AttributeValueMemberN); ok {
		if bn, ok := b.(*types.AttributeValueMemberN); ok {
			af, _ := strconv.ParseFloat(an.Value, 64)
			bf, _ := strconv.ParseFloat(bn.Value, 64)
			return af < bf
		}
	}
	as, _ := a.(*types.AttributeValueMemberS)
	bs, _ := b.(*types.AttributeValueMemberS)
	if as == nil || bs == nil {
		return false
	}
	return as.Value < bs.Value
}

func sortedKeys(m map[string]map[string]types.AttributeValue) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func clone(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func str(s string) *string { return &s }
