package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Send outcomes recorded on order_sends_total.
const (
	SendSent     = "sent"
	SendFailed   = "failed"
	SendRejected = "rejected"
)

type Metrics struct {
	ordersCreatedTotal    metric.Int64Counter
	orderCreationDuration metric.Float64Histogram
	orderSendsTotal       metric.Int64Counter
	orderSendDuration     metric.Float64Histogram
	enrichmentFailures    metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.ordersCreatedTotal, err = meter.Int64Counter(
		"orders_created_total",
		metric.WithDescription("Total number of orders created"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders_created_total counter: %w", err)
	}

	m.orderCreationDuration, err = meter.Float64Histogram(
		"order_creation_duration_seconds",
		metric.WithDescription("Duration of order creation operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_creation_duration histogram: %w", err)
	}

	m.orderSendsTotal, err = meter.Int64Counter(
		"order_sends_total",
		metric.WithDescription("Order submissions to WooCommerce by outcome"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_sends_total counter: %w", err)
	}

	m.orderSendDuration, err = meter.Float64Histogram(
		"order_send_duration_seconds",
		metric.WithDescription("Duration of order send operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_send_duration histogram: %w", err)
	}

	m.enrichmentFailures, err = meter.Int64Counter(
		"catalog_enrichment_failures_total",
		metric.WithDescription("Product name lookups that failed and left stored names in place"),
	)
	if err != nil {
		return nil, fmt.Errorf("create catalog_enrichment_failures_total counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordOrderCreated(ctx context.Context, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.ordersCreatedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))
}

func (m *Metrics) RecordOrderCreationDuration(ctx context.Context, durationSeconds float64) {
	m.orderCreationDuration.Record(ctx, durationSeconds)
}

// RecordOrderSend counts one send attempt. outcome is SendSent, SendFailed or SendRejected.
func (m *Metrics) RecordOrderSend(ctx context.Context, outcome string, durationSeconds float64) {
	attrs := metric.WithAttributes(attribute.String("status", outcome))
	m.orderSendsTotal.Add(ctx, 1, attrs)
	m.orderSendDuration.Record(ctx, durationSeconds, attrs)
}

func (m *Metrics) RecordEnrichmentFailure(ctx context.Context) {
	m.enrichmentFailures.Add(ctx, 1)
}
