// Package handlers exposes the storefront workflows over HTTP.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/quickcart/internal/auth"
	"github.com/imrishuroy/quickcart/internal/contact"
	"github.com/imrishuroy/quickcart/internal/events"
	"github.com/imrishuroy/quickcart/internal/orders"
	"github.com/imrishuroy/quickcart/internal/products"
	"github.com/imrishuroy/quickcart/internal/users"
	"github.com/imrishuroy/quickcart/internal/validation"
)

// Storefront is the workflow surface the handlers drive.
type Storefront interface {
	PlaceOrder(ctx context.Context, id auth.Identity, req validation.CreateOrderRequest) (events.Envelope, error)
	ListOrders(ctx context.Context, id auth.Identity) ([]orders.EnrichedOrder, error)
	Profile(ctx context.Context, id auth.Identity) (*users.User, error)
	Cart(ctx context.Context, id auth.Identity) (map[string]int, error)
	UpdateCart(ctx context.Context, id auth.Identity, cart map[string]int) (map[string]int, error)
	Catalog(ctx context.Context) ([]products.Product, error)
}

// ContactStore persists contact form messages.
type ContactStore interface {
	Create(ctx context.Context, m contact.Message) (contact.Message, error)
}

// HandlerConfig groups dependencies for the API routes.
type HandlerConfig struct {
	Storefront Storefront
	Contacts   ContactStore
	Verifier   *auth.Verifier
}

type handler struct {
	shop     Storefront
	contacts ContactStore
	validate *validatorv10.Validate
}

// RegisterRoutes registers the /api routes.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	h := &handler{
		shop:     cfg.Storefront,
		contacts: cfg.Contacts,
		validate: validation.Default(),
	}

	api := r.Group("/api")
	api.GET("/product/list", h.listProducts)
	api.POST("/contact", h.createContact)

	authed := api.Group("", auth.RequireIdentity(cfg.Verifier))
	authed.POST("/order/create", h.createOrder)
	authed.GET("/order/list", h.listOrders)
	authed.GET("/user/data", h.userData)
	authed.GET("/cart/get", h.getCart)
	authed.POST("/cart/update", h.updateCart)
}
