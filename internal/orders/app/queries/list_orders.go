package queries

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/wannai/orderbridge/internal/orders/domain"
	"github.com/wannai/orderbridge/internal/orders/metrics"
	"github.com/wannai/orderbridge/internal/orders/ports"
)

// MaxPageSize bounds page_size on paginated listings.
const MaxPageSize = 100

// ListOrdersQuery selects orders by status and page. A zero PageSize lists everything.
type ListOrdersQuery struct {
	Status   *domain.OrderStatus
	Page     int
	PageSize int
}

func (q ListOrdersQuery) Validate() error {
	if q.Status != nil && !q.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidQuery, *q.Status)
	}
	if q.Page < 0 || q.PageSize < 0 {
		return fmt.Errorf("%w: page and page_size must not be negative", ErrInvalidQuery)
	}
	if q.PageSize > MaxPageSize {
		return fmt.Errorf("%w: page_size must not exceed %d", ErrInvalidQuery, MaxPageSize)
	}
	if q.PageSize > 0 && q.Page > 1 && q.Page-1 > math.MaxInt/q.PageSize {
		return fmt.Errorf("%w: page %d is out of range", ErrInvalidQuery, q.Page)
	}
	return nil
}

type ListOrdersQueryHandler struct {
	repo     ports.OrderRepository
	enricher nameEnricher
}

func NewListOrdersQueryHandler(repo ports.OrderRepository, catalog ports.Catalog, logger *slog.Logger, metrics *metrics.Metrics) *ListOrdersQueryHandler {
	return &ListOrdersQueryHandler{
		repo:     repo,
		enricher: nameEnricher{catalog: catalog, logger: logger, metrics: metrics},
	}
}

// Handle loads the orders and refreshes item names with one catalog lookup for the whole page.
func (h *ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]domain.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	orders, err := h.repo.List(ctx, ports.ListFilter{
		Status:   query.Status,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	h.enricher.enrich(ctx, orders)
	return orders, nil
}
