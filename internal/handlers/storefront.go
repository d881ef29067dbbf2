package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/quickcart/internal/contact"
	"github.com/imrishuroy/quickcart/internal/validation"
)

const contactReceived = "Thanks — your message was received. We'll get back to you soon."

func (h *handler) listProducts(c *gin.Context) {
	list, err := h.shop.Catalog(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"products": list})
}

func (h *handler) userData(c *gin.Context) {
	id, found := identity(c)
	if !found {
		return
	}
	u, err := h.shop.Profile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"user": u})
}

func (h *handler) getCart(c *gin.Context) {
	id, found := identity(c)
	if !found {
		return
	}
	cart, err := h.shop.Cart(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"cartItems": cart})
}

func (h *handler) updateCart(c *gin.Context) {
	id, found := identity(c)
	if !found {
		return
	}
	var req validation.CartUpdateRequest
	if err := validation.BindAndValidate(c, &req, h.validate, validation.MsgInvalidData); err != nil {
		return
	}
	cart, err := h.shop.UpdateCart(c.Request.Context(), id, req.CartData)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"message": "Cart Updated", "cartItems": cart})
}

func (h *handler) createContact(c *gin.Context) {
	var req validation.ContactRequest
	if err := validation.BindAndValidate(c, &req, h.validate, validation.MsgMissingFields); err != nil {
		return
	}
	msg, err := h.contacts.Create(c.Request.Context(), contact.Message{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"message": contactReceived, "contactId": msg.ContactID})
}
