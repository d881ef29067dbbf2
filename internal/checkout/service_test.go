package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/quickcart/internal/auth"
	"github.com/imrishuroy/quickcart/internal/aws/awsmock"
	"github.com/imrishuroy/quickcart/internal/events"
	"github.com/imrishuroy/quickcart/internal/orders"
	"github.com/imrishuroy/quickcart/internal/products"
	"github.com/imrishuroy/quickcart/internal/users"
	"github.com/imrishuroy/quickcart/internal/validation"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) OrderCreated(ctx context.Context, data events.OrderCreated) (events.Envelope, error) {
	args := m.Called(ctx, data)
	return args.Get(0).(events.Envelope), args.Error(1)
}

type fixture struct {
	svc    *Service
	dynamo *awsmock.Dynamo
	users  *users.Store
	pub    *mockPublisher
}

func newFixture(t *testing.T, catalogue ...products.Product) *fixture {
	t.Helper()
	d := awsmock.NewDynamo()
	d.CreateTable("users", "user_id")
	d.CreateTable("products", "product_id")
	d.CreateTable("orders", "order_id")
	d.AddIndex("orders", "user_id-date-index", "user_id", "date")
	for _, p := range catalogue {
		item, err := attributevalue.MarshalMap(p)
		require.NoError(t, err)
		d.Seed("products", item)
	}

	us := users.NewStore(d, "users")
	pub := new(mockPublisher)
	svc := NewService(us, products.NewStore(d, "products"), orders.NewStore(d, "orders", "user_id-date-index"), pub)
	svc.nowFunc = func() time.Time { return time.UnixMilli(1700000000000) }
	return &fixture{svc: svc, dynamo: d, users: us, pub: pub}
}

func (f *fixture) seedOrder(t *testing.T, o orders.Order) {
	t.Helper()
	item, err := attributevalue.MarshalMap(o)
	require.NoError(t, err)
	f.dynamo.Seed("orders", item)
}

var caller = auth.Identity{UserID: "user_1", Name: "Jane", Email: "jane@example.com"}

func address() *orders.Address {
	return &orders.Address{FullName: "Jane Doe", PhoneNumber: "9999999999", Area: "MG Road", City: "Pune", State: "MH"}
}

func TestPlaceOrder_PublishesAndClearsCart(t *testing.T) {
	f := newFixture(t, products.Product{ProductID: "p1", Name: "Headphones", OfferPrice: 100})
	ctx := context.Background()
	require.NoError(t, f.users.Save(ctx, &users.User{UserID: caller.UserID, Name: "Jane", CartItems: map[string]int{"p1": 2, "p9": 1}}))

	req := validation.CreateOrderRequest{Address: address(), Items: []orders.Item{{Product: "p1", Quantity: 2}}}
	f.pub.On("OrderCreated", mock.Anything, events.OrderCreated{
		UserID:  caller.UserID,
		Address: *req.Address,
		Items:   req.Items,
		Amount:  204,
		Date:    1700000000000,
	}).Return(events.Envelope{ID: "evt-1", Name: events.OrderCreatedName}, nil).Once()

	env, err := f.svc.PlaceOrder(ctx, caller, req)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", env.ID)
	f.pub.AssertExpectations(t)

	u, err := f.users.FindByID(ctx, caller.UserID)
	require.NoError(t, err)
	assert.Empty(t, u.CartItems)
}

func TestPlaceOrder_CreatesUserOnFirstOrder(t *testing.T) {
	f := newFixture(t, products.Product{ProductID: "p1", OfferPrice: 50})
	f.pub.On("OrderCreated", mock.Anything, mock.Anything).Return(events.Envelope{ID: "evt-1"}, nil)

	_, err := f.svc.PlaceOrder(context.Background(), caller, validation.CreateOrderRequest{
		Address: address(),
		Items:   []orders.Item{{Product: "p1", Quantity: 1}, {Product: "deleted", Quantity: 5}},
	})
	require.NoError(t, err)

	published := f.pub.Calls[0].Arguments.Get(1).(events.OrderCreated)
	assert.Equal(t, float64(51), published.Amount)

	u, err := f.users.FindByID(context.Background(), caller.UserID)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Jane", u.Name)
}

func TestPlaceOrder_InvalidRequestPublishesNothing(t *testing.T) {
	f := newFixture(t, products.Product{ProductID: "p1", OfferPrice: 100})

	cases := map[string]validation.CreateOrderRequest{
		"empty items":     {Address: address()},
		"missing address": {Items: []orders.Item{{Product: "p1", Quantity: 1}}},
		"zero quantity":   {Address: address(), Items: []orders.Item{{Product: "p1"}}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.PlaceOrder(context.Background(), caller, req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
	f.pub.AssertNotCalled(t, "OrderCreated", mock.Anything, mock.Anything)
	assert.Zero(t, f.dynamo.Len("users"))
}

func TestPlaceOrder_PublishFailureKeepsCart(t *testing.T) {
	f := newFixture(t, products.Product{ProductID: "p1", OfferPrice: 100})
	ctx := context.Background()
	require.NoError(t, f.users.Save(ctx, &users.User{UserID: caller.UserID, CartItems: map[string]int{"p1": 1}}))
	f.pub.On("OrderCreated", mock.Anything, mock.Anything).Return(events.Envelope{}, errors.New("queue unavailable"))

	_, err := f.svc.PlaceOrder(ctx, caller, validation.CreateOrderRequest{Address: address(), Items: []orders.Item{{Product: "p1", Quantity: 1}}})
	assert.ErrorContains(t, err, "queue unavailable")
	assert.NotErrorIs(t, err, ErrInvalidRequest)

	u, err := f.users.FindByID(ctx, caller.UserID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"p1": 1}, u.CartItems)
}

func TestPlaceOrder_CartSaveFailureAfterPublish(t *testing.T) {
	f := newFixture(t, products.Product{ProductID: "p1", OfferPrice: 100})
	ctx := context.Background()
	require.NoError(t, f.users.Save(ctx, &users.User{UserID: caller.UserID}))
	f.pub.On("OrderCreated", mock.Anything, mock.Anything).Return(events.Envelope{ID: "evt-9"}, nil)
	f.dynamo.FailOn["PutItem"] = errors.New("write throttled")

	env, err := f.svc.PlaceOrder(ctx, caller, validation.CreateOrderRequest{Address: address(), Items: []orders.Item{{Product: "p1", Quantity: 1}}})
	assert.ErrorContains(t, err, "write throttled")
	assert.Equal(t, "evt-9", env.ID)
}

func TestListOrders_NewestFirstWithSingleLookup(t *testing.T) {
	f := newFixture(t,
		products.Product{ProductID: "p1", Name: "Headphones", OfferPrice: 100, Image: []string{"h.png"}},
		products.Product{ProductID: "p2", Name: "Speaker", OfferPrice: 50},
	)
	f.seedOrder(t, orders.Order{OrderID: "o1", UserID: caller.UserID, Date: 1000, Items: []orders.Item{{Product: "p1", Quantity: 1}}})
	f.seedOrder(t, orders.Order{OrderID: "o2", UserID: caller.UserID, Date: 3000, Items: []orders.Item{{Product: "p1", Quantity: 2}, {Product: "gone", Quantity: 1}}})
	f.seedOrder(t, orders.Order{OrderID: "o3", UserID: caller.UserID, Date: 2000, Items: []orders.Item{{Product: "p2", Quantity: 1}}})
	f.seedOrder(t, orders.Order{OrderID: "x", UserID: "someone-else", Date: 9000, Items: []orders.Item{{Product: "p2", Quantity: 1}}})

	got, err := f.svc.ListOrders(context.Background(), caller)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"o2", "o3", "o1"}, []string{got[0].OrderID, got[1].OrderID, got[2].OrderID})
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Date, got[i].Date)
	}

	assert.Equal(t, 1, f.dynamo.Calls["BatchGetItem"])
	assert.Equal(t, []int{3}, f.dynamo.BatchGetKeys)

	require.NotNil(t, got[0].Items[0].Product.Snapshot)
	assert.Equal(t, "Headphones", got[0].Items[0].Product.Snapshot.Name)
	assert.Nil(t, got[0].Items[1].Product.Snapshot)
	assert.Equal(t, "gone", got[0].Items[1].Product.ID)
}

func TestListOrders_Empty(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.ListOrders(context.Background(), caller)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Zero(t, f.dynamo.Calls["BatchGetItem"])
	assert.Zero(t, f.dynamo.Len("users"))
}

func TestListOrders_Unauthenticated(t *testing.T) {
	_, err := newFixture(t).svc.ListOrders(context.Background(), auth.Identity{})
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestUpdateCart(t *testing.T) {
	f := newFixture(t, products.Product{ProductID: "p1"}, products.Product{ProductID: "p2"})
	ctx := context.Background()

	cart, err := f.svc.UpdateCart(ctx, caller, map[string]int{"p1": 3, "p2": 0, "gone": -1})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"p1": 3}, cart)

	got, err := f.svc.Cart(ctx, caller)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"p1": 3}, got)

	_, err = f.svc.UpdateCart(ctx, caller, map[string]int{"p1": 1, "unknown": 2})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	got, err = f.svc.Cart(ctx, caller)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"p1": 3}, got)
}

func TestProfileAndCatalog(t *testing.T) {
	f := newFixture(t, products.Product{ProductID: "p1", Name: "Headphones"})
	ctx := context.Background()

	u, err := f.svc.Profile(ctx, caller)
	require.NoError(t, err)
	assert.Equal(t, caller.UserID, u.UserID)
	assert.Equal(t, 1, f.dynamo.Len("users"))

	list, err := f.svc.Catalog(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Headphones", list[0].Name)
}
