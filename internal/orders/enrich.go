package orders

import (
	"encoding/json"

	"github.com/imrishuroy/quickcart/internal/products"
)

// ProductRef is an order line's product: the stored snapshot when the
// product still exists, otherwise the bare product id.
type ProductRef struct {
	ID       string
	Snapshot *products.Snapshot
}

func (r ProductRef) MarshalJSON() ([]byte, error) {
	if r.Snapshot != nil {
		return json.Marshal(r.Snapshot)
	}
	return json.Marshal(r.ID)
}

// EnrichedItem is an order line with its product resolved.
type EnrichedItem struct {
	Product  ProductRef `json:"product"`
	Quantity int        `json:"quantity"`
}

// EnrichedOrder is an Order as returned to its owner.
type EnrichedOrder struct {
	OrderID       string         `json:"_id"`
	UserID        string         `json:"userId"`
	Items         []EnrichedItem `json:"items"`
	Address       Address        `json:"address"`
	Amount        float64        `json:"amount"`
	Date          int64          `json:"date"`
	Status        string         `json:"status"`
	PaymentType   string         `json:"paymentType"`
	PaymentStatus string         `json:"paymentStatus"`
}

// ProductIDs returns the distinct product ids referenced by the orders, in
// first-seen order.
func ProductIDs(list []Order) []string {
	seen := map[string]struct{}{}
	var ids []string
	for _, o := range list {
		for _, it := range o.Items {
			if _, ok := seen[it.Product]; ok {
				continue
			}
			seen[it.Product] = struct{}{}
			ids = append(ids, it.Product)
		}
	}
	return ids
}

// Enrich attaches product snapshots to every order line. Order and line
// ordering are preserved.
func Enrich(list []Order, snapshots map[string]products.Snapshot) []EnrichedOrder {
	out := make([]EnrichedOrder, 0, len(list))
	for _, o := range list {
		items := make([]EnrichedItem, 0, len(o.Items))
		for _, it := range o.Items {
			ref := ProductRef{ID: it.Product}
			if snap, ok := snapshots[it.Product]; ok {
				snap := snap
				ref.Snapshot = &snap
			}
			items = append(items, EnrichedItem{Product: ref, Quantity: it.Quantity})
		}
		out = append(out, EnrichedOrder{
			OrderID:       o.OrderID,
			UserID:        o.UserID,
			Items:         items,
			Address:       o.Address,
			Amount:        o.Amount,
			Date:          o.Date,
			Status:        o.Status,
			PaymentType:   o.PaymentType,
			PaymentStatus: o.PaymentStatus,
		})
	}
	return out
}
