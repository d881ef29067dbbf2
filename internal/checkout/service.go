// Package checkout implements the shopper-facing workflows: placing an
// order, listing past orders and maintaining the cart.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/imrishuroy/quickcart/internal/auth"
	"github.com/imrishuroy/quickcart/internal/events"
	"github.com/imrishuroy/quickcart/internal/orders"
	"github.com/imrishuroy/quickcart/internal/pricing"
	"github.com/imrishuroy/quickcart/internal/products"
	"github.com/imrishuroy/quickcart/internal/users"
	"github.com/imrishuroy/quickcart/internal/validation"
)

// ErrInvalidRequest marks input the caller must fix. Nothing is published or
// written when it is returned.
var ErrInvalidRequest = errors.New("invalid request")

// UserStore persists user records.
type UserStore interface {
	users.Repository
	Save(ctx context.Context, u *users.User) error
}

// ProductStore reads the catalogue.
type ProductStore interface {
	FindSnapshots(ctx context.Context, ids []string) (map[string]products.Snapshot, error)
	List(ctx context.Context) ([]products.Product, error)
}

// OrderStore reads persisted orders.
type OrderStore interface {
	FindByUser(ctx context.Context, userID string) ([]orders.Order, error)
}

// Publisher emits the order/created event.
type Publisher interface {
	OrderCreated(ctx context.Context, data events.OrderCreated) (events.Envelope, error)
}

type Service struct {
	users     UserStore
	resolver  *users.Resolver
	products  ProductStore
	orders    OrderStore
	pricer    *pricing.Aggregator
	publisher Publisher
	validate  *validatorv10.Validate
	nowFunc   func() time.Time
}

func NewService(us UserStore, ps ProductStore, ords OrderStore, pub Publisher) *Service {
	return &Service{
		users:     us,
		resolver:  users.NewResolver(us),
		products:  ps,
		orders:    ords,
		pricer:    pricing.NewAggregator(ps),
		publisher: pub,
		validate:  validation.Default(),
		nowFunc:   time.Now,
	}
}

// PlaceOrder prices the request, publishes order/created and empties the
// caller's cart. The order itself is persisted asynchronously by the event
// consumer. A publish failure aborts before the cart is touched; a cart
// save failure after a successful publish is reported but not compensated.
func (s *Service) PlaceOrder(ctx context.Context, id auth.Identity, req validation.CreateOrderRequest) (events.Envelope, error) {
	if err := s.validate.Struct(req); err != nil {
		return events.Envelope{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	user, err := s.resolver.Resolve(ctx, id)
	if err != nil {
		return events.Envelope{}, err
	}

	total, err := s.pricer.Total(ctx, req.Items)
	if err != nil {
		return events.Envelope{}, err
	}

	env, err := s.publisher.OrderCreated(ctx, events.OrderCreated{
		UserID:  user.UserID,
		Address: *req.Address,
		Items:   req.Items,
		Amount:  total.InexactFloat64(),
		Date:    s.nowFunc().UnixMilli(),
	})
	if err != nil {
		return events.Envelope{}, err
	}

	user.CartItems = map[string]int{}
	if err := s.users.Save(ctx, user); err != nil {
		return env, fmt.Errorf("clear cart after order %s: %w", env.ID, err)
	}

	zerolog.Ctx(ctx).Info().
		Str("event_id", env.ID).
		Str("user_id", user.UserID).
		Str("amount", total.String()).
		Int("items", len(req.Items)).
		Msg("order submitted")
	return env, nil
}

// ListOrders returns the caller's orders newest first, with each line's
// product replaced by its current snapshot. All referenced products are
// fetched in a single lookup.
func (s *Service) ListOrders(ctx context.Context, id auth.Identity) ([]orders.EnrichedOrder, error) {
	if id.UserID == "" {
		return nil, auth.ErrUnauthenticated
	}
	list, err := s.orders.FindByUser(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	var snaps map[string]products.Snapshot
	if ids := orders.ProductIDs(list); len(ids) > 0 {
		snaps, err = s.products.FindSnapshots(ctx, ids)
		if err != nil {
			return nil, err
		}
	}
	return orders.Enrich(list, snaps), nil
}

// Profile returns the caller's user record, creating it on first use.
func (s *Service) Profile(ctx context.Context, id auth.Identity) (*users.User, error) {
	return s.resolver.Resolve(ctx, id)
}

// Cart returns the caller's cart.
func (s *Service) Cart(ctx context.Context, id auth.Identity) (map[string]int, error) {
	u, err := s.resolver.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.CartItems, nil
}

// UpdateCart replaces the caller's cart. Entries with a non-positive
// quantity are dropped; every remaining key must name an existing product.
func (s *Service) UpdateCart(ctx context.Context, id auth.Identity, cart map[string]int) (map[string]int, error) {
	next := make(map[string]int, len(cart))
	ids := make([]string, 0, len(cart))
	for productID, qty := range cart {
		if qty <= 0 {
			continue
		}
		next[productID] = qty
		ids = append(ids, productID)
	}

	if len(ids) > 0 {
		snaps, err := s.products.FindSnapshots(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, pid := range ids {
			if _, ok := snaps[pid]; !ok {
				return nil, fmt.Errorf("%w: unknown product %s", ErrInvalidRequest, pid)
			}
		}
	}

	u, err := s.resolver.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	u.CartItems = next
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}
	return next, nil
}

// Catalog lists every product.
func (s *Service) Catalog(ctx context.Context) ([]products.Product, error) {
	return s.products.List(ctx)
}
