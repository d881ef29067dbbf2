package validation

import "github.com/imrishuroy/quickcart/internal/orders"

// CreateOrderRequest is the payload for POST /api/order/create
type CreateOrderRequest struct {
	Address *orders.Address `json:"address" validate:"required"`          // every field but pincode
	Items   []orders.Item   `json:"items" validate:"required,min=1,dive"` // at least one line, quantity >= 1
}

// CartUpdateRequest is the payload for POST /api/cart/update
type CartUpdateRequest struct {
	CartData map[string]int `json:"cartData" validate:"required,dive,keys,required,endkeys"`
}

// ContactRequest is the payload for POST /api/contact
type ContactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required"`
	Subject string `json:"subject"`
	Message string `json:"message" validate:"required"`
}
