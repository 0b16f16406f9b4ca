package queries

import (
	"context"
	"log/slog"

	"github.com/wannai/orderbridge/internal/orders/domain"
	"github.com/wannai/orderbridge/internal/orders/metrics"
	"github.com/wannai/orderbridge/internal/orders/ports"
)

// nameEnricher refreshes item names from the catalog. Lookup failures are
// logged and counted; the orders keep whatever names they already had.
type nameEnricher struct {
	catalog ports.Catalog
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func (e nameEnricher) enrich(ctx context.Context, orders []domain.Order) {
	ids := domain.CollectProductIDs(orders)
	if len(ids) == 0 {
		return
	}

	names, err := e.catalog.FetchNamesByIDs(ctx, ids)
	if err != nil {
		e.metrics.RecordEnrichmentFailure(ctx)
		e.logger.WarnContext(ctx, "failed to fetch product names from woocommerce",
			"product_ids", len(ids),
			"error", err,
		)
		return
	}

	domain.ApplyProductNames(orders, names)
}
