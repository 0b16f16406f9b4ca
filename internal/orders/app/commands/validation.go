package commands

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/wannai/orderbridge/internal/orders/domain"
)

// newValidator reports fields by their JSON names and understands decimal amounts.
func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		switch d := field.Interface().(type) {
		case decimal.Decimal:
			return d.InexactFloat64()
		case decimal.NullDecimal:
			if !d.Valid {
				return nil
			}
			return d.Decimal.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{}, decimal.NullDecimal{})

	_ = v.RegisterValidation("address_type", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return strings.EqualFold(value, string(domain.AddressBilling)) ||
			strings.EqualFold(value, string(domain.AddressShipping))
	})

	return v
}
