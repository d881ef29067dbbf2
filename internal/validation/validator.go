package validation

import (
	"reflect"
	"strings"
	"sync"

	validatorv10 "github.com/go-playground/validator/v10"
)

var (
	defaultOnce sync.Once
	defaultV    *validatorv10.Validate
)

// New returns a configured validator. Field errors are reported under their
// JSON names.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(createOrderStructValidation, CreateOrderRequest{})
	return v
}

// Default returns a process-wide validator. Validate instances cache struct
// metadata and are safe for concurrent use.
func Default() *validatorv10.Validate {
	defaultOnce.Do(func() { defaultV = New() })
	return defaultV
}

// createOrderStructValidation rejects lines whose product id is only whitespace.
func createOrderStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CreateOrderRequest)
	for _, it := range req.Items {
		if it.Product != "" && strings.TrimSpace(it.Product) == "" {
			sl.ReportError(req.Items, "items", "Items", "product_blank", "")
			return
		}
	}
}
