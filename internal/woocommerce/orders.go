package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/wannai/orderbridge/internal/orders/domain"
)

const (
	paymentMethod      = "bacs"
	paymentMethodTitle = "Bank Transfer"
)

type orderPayload struct {
	PaymentMethod      string           `json:"payment_method"`
	PaymentMethodTitle string           `json:"payment_method_title"`
	SetPaid            bool             `json:"set_paid"`
	Currency           string           `json:"currency"`
	Billing            *billingAddress  `json:"billing,omitempty"`
	Shipping           *shippingAddress `json:"shipping,omitempty"`
	LineItems          []lineItem       `json:"line_items"`
}

type billingAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address_1"`
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type shippingAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address_1"`
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
}

// lineItem omits totals when the local item has no price so the store's catalog price applies.
type lineItem struct {
	ProductID *int64 `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal,omitempty"`
	Total     string `json:"total,omitempty"`
}

func buildOrderPayload(order domain.Order) orderPayload {
	payload := orderPayload{
		PaymentMethod:      paymentMethod,
		PaymentMethodTitle: paymentMethodTitle,
		SetPaid:            false,
		Currency:           order.Currency,
		LineItems:          make([]lineItem, 0, len(order.Items)),
	}

	if addr, ok := order.FirstAddress(domain.AddressBilling); ok {
		payload.Billing = &billingAddress{
			FirstName: addr.FirstName,
			LastName:  addr.LastName,
			Address1:  addr.Address1,
			City:      addr.City,
			Postcode:  addr.Postcode,
			Country:   addr.Country,
			Email:     addr.Email,
			Phone:     addr.Phone,
		}
	}

	if addr, ok := order.FirstAddress(domain.AddressShipping); ok {
		payload.Shipping = &shippingAddress{
			FirstName: addr.FirstName,
			LastName:  addr.LastName,
			Address1:  addr.Address1,
			City:      addr.City,
			Postcode:  addr.Postcode,
			Country:   addr.Country,
		}
	}

	for _, item := range order.Items {
		li := lineItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
		if total, ok := item.LineTotal(); ok {
			li.Subtotal = total.String()
			li.Total = total.String()
		}
		payload.LineItems = append(payload.LineItems, li)
	}

	return payload
}

// CreateOrder submits the order to WooCommerce and returns the id the store assigned.
func (c *Client) CreateOrder(ctx context.Context, order domain.Order) (int64, error) {
	body, err := json.Marshal(buildOrderPayload(order))
	if err != nil {
		return 0, fmt.Errorf("encode order payload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}

	var created map[string]any
	if _, err := c.do(req, &created); err != nil {
		return 0, fmt.Errorf("create woocommerce order: %w", err)
	}

	number, ok := created["id"].(json.Number)
	if !ok {
		return 0, ErrMissingOrderID
	}
	id, ok := integralID(number)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingOrderID, number)
	}

	return id, nil
}

// integralID accepts any JSON number holding a whole value, such as 727 or 727.0.
func integralID(number json.Number) (int64, bool) {
	if id, err := number.Int64(); err == nil {
		return id, true
	}
	f, err := number.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
