package queries

import (
	"context"
	"errors"
	"fmt"

	"github.com/wannai/orderbridge/internal/orders/ports"
)

// ErrProductNotFound is returned when the catalog has no product with the requested id.
var ErrProductNotFound = errors.New("product not found")

type GetProductQuery struct {
	ProductID int64
}

// Product is the catalog view exposed by the API.
type Product struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type GetProductQueryHandler struct {
	catalog ports.Catalog
}

func NewGetProductQueryHandler(catalog ports.Catalog) *GetProductQueryHandler {
	return &GetProductQueryHandler{catalog: catalog}
}

func (h *GetProductQueryHandler) Handle(ctx context.Context, query GetProductQuery) (*Product, error) {
	if query.ProductID <= 0 {
		return nil, fmt.Errorf("%w: product id must be positive", ErrInvalidQuery)
	}

	name, found, err := h.catalog.FetchProductName(ctx, query.ProductID)
	if err != nil {
		return nil, fmt.Errorf("fetch product %d: %w", query.ProductID, err)
	}
	if !found {
		return nil, ErrProductNotFound
	}

	return &Product{ID: query.ProductID, Name: name}, nil
}
