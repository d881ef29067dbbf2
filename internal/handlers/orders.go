package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/quickcart/internal/metrics"
	"github.com/imrishuroy/quickcart/internal/validation"
)

func (h *handler) createOrder(c *gin.Context) {
	id, found := identity(c)
	if !found {
		return
	}

	var req validation.CreateOrderRequest
	if err := validation.BindAndValidate(c, &req, h.validate, validation.MsgInvalidData); err != nil {
		metrics.RecordOrderOperation(metrics.OpCreate, false)
		return
	}

	if _, err := h.shop.PlaceOrder(c.Request.Context(), id, req); err != nil {
		metrics.RecordOrderOperation(metrics.OpCreate, false)
		respondError(c, err)
		return
	}
	metrics.RecordOrderOperation(metrics.OpCreate, true)
	ok(c, gin.H{"message": "Order Placed"})
}

func (h *handler) listOrders(c *gin.Context) {
	id, found := identity(c)
	if !found {
		return
	}

	list, err := h.shop.ListOrders(c.Request.Context(), id)
	if err != nil {
		metrics.RecordOrderOperation(metrics.OpList, false)
		respondError(c, err)
		return
	}
	metrics.RecordOrderOperation(metrics.OpList, true)
	ok(c, gin.H{"orders": list})
}
