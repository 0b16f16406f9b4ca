package adapters

import (
	"context"
	"time"

	"github.com/wannai/orderbridge/internal/orders/domain"
	"github.com/wannai/orderbridge/internal/orders/ports"
	"github.com/wannai/orderbridge/internal/telemetry"
	"github.com/wannai/orderbridge/internal/woocommerce"
	"go.opentelemetry.io/otel/attribute"
)

// ObservableCatalog wraps the WooCommerce client with spans and request latency.
type ObservableCatalog struct {
	catalog ports.Catalog
	metrics *woocommerce.Metrics
}

func NewObservableCatalog(catalog ports.Catalog, metrics *woocommerce.Metrics) *ObservableCatalog {
	return &ObservableCatalog{
		catalog: catalog,
		metrics: metrics,
	}
}

func (c *ObservableCatalog) FetchNamesByIDs(ctx context.Context, ids []int64) (map[int64]string, error) {
	ctx, span := telemetry.StartSpan(ctx, "Catalog.FetchNamesByIDs")
	defer span.End()

	telemetry.AddSpanAttributes(span, attribute.Int("product.ids", len(ids)))

	start := time.Now()
	names, err := c.catalog.FetchNamesByIDs(ctx, ids)
	c.metrics.RecordRequest(ctx, "fetch_names", time.Since(start).Seconds(), err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.AddSpanAttributes(span, attribute.Int("product.found", len(names)))
	telemetry.SetSpanSuccess(span)
	return names, nil
}

func (c *ObservableCatalog) FetchProductName(ctx context.Context, id int64) (string, bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "Catalog.FetchProductName")
	defer span.End()

	telemetry.AddSpanAttributes(span, attribute.Int64("product.id", id))

	start := time.Now()
	name, found, err := c.catalog.FetchProductName(ctx, id)
	c.metrics.RecordRequest(ctx, "fetch_product", time.Since(start).Seconds(), err == nil)

	telemetry.AddSpanAttributes(span, attribute.Bool("product.found", found))
	telemetry.FinishSpan(span, err)
	return name, found, err
}

func (c *ObservableCatalog) CreateOrder(ctx context.Context, order domain.Order) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "Catalog.CreateOrder")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.Int64("order.id", order.ID),
		attribute.Int("order.items", len(order.Items)),
	)

	start := time.Now()
	externalID, err := c.catalog.CreateOrder(ctx, order)
	c.metrics.RecordRequest(ctx, "create_order", time.Since(start).Seconds(), err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return 0, err
	}

	telemetry.AddSpanAttributes(span, attribute.Int64("woocommerce.order_id", externalID))
	telemetry.SetSpanSuccess(span)
	return externalID, nil
}
