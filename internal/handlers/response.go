package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/imrishuroy/quickcart/internal/auth"
	"github.com/imrishuroy/quickcart/internal/checkout"
	"github.com/imrishuroy/quickcart/internal/validation"
)

const msgNotAuthenticated = "Not authenticated"

// ok writes a success envelope merged with payload.
func ok(c *gin.Context, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// respondError maps workflow errors onto the envelope. Unclassified errors
// are returned as 500 with their message.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		fail(c, http.StatusUnauthorized, msgNotAuthenticated)
	case errors.Is(err, checkout.ErrInvalidRequest):
		fail(c, http.StatusBadRequest, validation.MsgInvalidData)
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("route", c.FullPath()).Msg("request failed")
		fail(c, http.StatusInternalServerError, err.Error())
	}
}

// identity returns the caller verified by auth.RequireIdentity, writing a
// 401 when there is none.
func identity(c *gin.Context) (auth.Identity, bool) {
	id, found := auth.IdentityFrom(c)
	if !found {
		fail(c, http.StatusUnauthorized, msgNotAuthenticated)
	}
	return id, found
}
