package validation

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Messages written for rejected bodies.
const (
	MsgInvalidData   = "Invalid data"
	MsgMissingFields = "Missing required fields."
)

// BindAndValidate binds JSON body into `out` and runs validation.
// If either step fails, it writes a 400 `{success:false, message}` response
// and returns the error for the handler to short-circuit.
func BindAndValidate(c *gin.Context, out interface{}, v *validatorv10.Validate, message string) error {
	if err := c.ShouldBindJSON(out); err != nil {
		reject(c, message, err)
		return err
	}
	if err := v.Struct(out); err != nil {
		reject(c, message, err)
		return err
	}
	return nil
}

func reject(c *gin.Context, message string, err error) {
	zerolog.Ctx(c.Request.Context()).Debug().
		Interface("fields", FieldErrors(err)).
		Msg("request body rejected")
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": message,
	})
}

// FieldErrors flattens validator errors to namespace -> failed tag.
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	if ve, ok := err.(validatorv10.ValidationErrors); ok {
		for _, fe := range ve {
			out[fe.Namespace()] = fe.Tag()
		}
	} else {
		out["body"] = err.Error()
	}
	return out
}
