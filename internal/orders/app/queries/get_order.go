package queries

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wannai/orderbridge/internal/orders/domain"
	"github.com/wannai/orderbridge/internal/orders/metrics"
	"github.com/wannai/orderbridge/internal/orders/ports"
)

// ErrInvalidQuery wraps malformed query parameters.
var ErrInvalidQuery = errors.New("invalid query")

// GetOrderQuery represents a request to retrieve an order by its ID.
type GetOrderQuery struct {
	OrderID int64
}

// Validate ensures the query has valid parameters.
func (q GetOrderQuery) Validate() error {
	if q.OrderID <= 0 {
		return fmt.Errorf("%w: order id must be positive", ErrInvalidQuery)
	}
	return nil
}

// GetOrderQueryHandler executes GetOrderQuery and returns the order with refreshed item names.
type GetOrderQueryHandler struct {
	repo     ports.OrderRepository
	enricher nameEnricher
}

func NewGetOrderQueryHandler(repo ports.OrderRepository, catalog ports.Catalog, logger *slog.Logger, metrics *metrics.Metrics) *GetOrderQueryHandler {
	return &GetOrderQueryHandler{
		repo:     repo,
		enricher: nameEnricher{catalog: catalog, logger: logger, metrics: metrics},
	}
}

func (h *GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (*domain.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	order, err := h.repo.GetByID(ctx, query.OrderID)
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", query.OrderID, err)
	}

	orders := []domain.Order{*order}
	h.enricher.enrich(ctx, orders)
	return &orders[0], nil
}
