// Package pricing computes order totals from current product offer prices.
package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/quickcart/internal/orders"
	"github.com/imrishuroy/quickcart/internal/products"
)

// FeeRate is the platform fee applied to the subtotal, rounded down.
var FeeRate = decimal.New(2, -2)

// ProductLookup resolves product ids to their current snapshot.
type ProductLookup interface {
	FindSnapshots(ctx context.Context, ids []string) (map[string]products.Snapshot, error)
}

// Aggregator prices a list of order items.
type Aggregator struct {
	products ProductLookup
}

func NewAggregator(p ProductLookup) *Aggregator {
	return &Aggregator{products: p}
}

// Total returns subtotal + floor(FeeRate * subtotal), where the subtotal is
// the sum of quantity * offerPrice. Items whose product no longer exists
// contribute nothing.
func (a *Aggregator) Total(ctx context.Context, items []orders.Item) (decimal.Decimal, error) {
	if len(items) == 0 {
		return decimal.Zero, nil
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.Product)
	}
	snaps, err := a.products.FindSnapshots(ctx, ids)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price items: %w", err)
	}

	subtotal := decimal.Zero
	for _, it := range items {
		p, ok := snaps[it.Product]
		if !ok {
			continue
		}
		line := decimal.NewFromFloat(p.OfferPrice).Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(line)
	}
	return subtotal.Add(subtotal.Mul(FeeRate).Floor()), nil
}
