package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices and totals travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// OrderStatus captures where an order is in its hand-off to the catalog system.
type OrderStatus string

const (
	StatusPending OrderStatus = "pending"
	StatusSent    OrderStatus = "sent"
	StatusFailed  OrderStatus = "failed"
)

// IsValid reports whether s is a known status.
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusFailed:
		return true
	default:
		return false
	}
}

// CanSend reports whether an order in this status may be submitted to the catalog system.
func (s OrderStatus) CanSend() bool {
	return s == StatusPending || s == StatusFailed
}

// AddressType distinguishes billing from shipping addresses.
type AddressType string

const (
	AddressBilling  AddressType = "billing"
	AddressShipping AddressType = "shipping"
)

// Order is a customer order recorded locally and optionally forwarded to WooCommerce.
type Order struct {
	ID                 int64           `json:"id"`
	Source             string          `json:"source"`
	CustomerName       string          `json:"customerName"`
	CustomerEmail      string          `json:"customerEmail"`
	CustomerPhone      string          `json:"customerPhone"`
	Total              decimal.Decimal `json:"total"`
	Currency           string          `json:"currency"`
	Status             OrderStatus     `json:"status"`
	WooCommerceOrderID *int64          `json:"woocommerceOrderId"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
	Items              []OrderItem     `json:"items"`
	Addresses          []OrderAddress  `json:"addresses"`
}

// OrderItem is a single line of an order. Name is a display value refreshed
// from the catalog and is never authoritative.
type OrderItem struct {
	ID        int64               `json:"id"`
	OrderID   int64               `json:"orderId"`
	ProductID *int64              `json:"productId"`
	Quantity  int                 `json:"quantity"`
	Price     decimal.NullDecimal `json:"price"`
	Name      string              `json:"name,omitempty"`
}

// LineTotal returns price × quantity, and false when the item carries no price.
func (i OrderItem) LineTotal() (decimal.Decimal, bool) {
	if !i.Price.Valid {
		return decimal.Zero, false
	}
	return i.Price.Decimal.Mul(decimal.NewFromInt(int64(i.Quantity))), true
}

// OrderAddress is a billing or shipping address owned by one order.
type OrderAddress struct {
	ID        int64       `json:"id"`
	OrderID   int64       `json:"orderId"`
	Type      AddressType `json:"type"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Company   string      `json:"company"`
	Address1  string      `json:"address1"`
	Address2  string      `json:"address2"`
	City      string      `json:"city"`
	State     string      `json:"state"`
	Postcode  string      `json:"postcode"`
	Country   string      `json:"country"`
	Phone     string      `json:"phone"`
	Email     string      `json:"email"`
}

// FirstAddress returns the first address of the given type. Later duplicates are ignored.
func (o Order) FirstAddress(t AddressType) (OrderAddress, bool) {
	for _, addr := range o.Addresses {
		if strings.EqualFold(string(addr.Type), string(t)) {
			return addr, true
		}
	}
	return OrderAddress{}, false
}

// CollectProductIDs returns the distinct non-nil product ids referenced by the orders' items.
func CollectProductIDs(orders []Order) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, order := range orders {
		for _, item := range order.Items {
			if item.ProductID == nil {
				continue
			}
			if _, ok := seen[*item.ProductID]; ok {
				continue
			}
			seen[*item.ProductID] = struct{}{}
			ids = append(ids, *item.ProductID)
		}
	}
	return ids
}

// ApplyProductNames overwrites item names with the catalog names. Blank
// catalog names leave the stored name untouched.
func ApplyProductNames(orders []Order, names map[int64]string) {
	for oi := range orders {
		items := orders[oi].Items
		for ii := range items {
			if items[ii].ProductID == nil {
				continue
			}
			name, ok := names[*items[ii].ProductID]
			if !ok || strings.TrimSpace(name) == "" {
				continue
			}
			items[ii].Name = name
		}
	}
}

// AttachChildren sets the parent foreign key on every child of the order.
func (o *Order) AttachChildren() {
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	for i := range o.Addresses {
		o.Addresses[i].OrderID = o.ID
	}
}
