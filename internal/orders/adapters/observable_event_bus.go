package adapters

import (
	"context"
	"time"

	"github.com/wannai/orderbridge/internal/events"
	"github.com/wannai/orderbridge/internal/orders/ports"
	"github.com/wannai/orderbridge/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableEventBus struct {
	bus     ports.EventBus
	metrics *events.Metrics
}

func NewObservableEventBus(bus ports.EventBus, metrics *events.Metrics) *ObservableEventBus {
	return &ObservableEventBus{
		bus:     bus,
		metrics: metrics,
	}
}

func (e *ObservableEventBus) PublishOrderCreated(ctx context.Context, orderID int64) error {
	return e.observe(ctx, "EventBus.PublishOrderCreated", events.TypeOrderCreated, orderID, nil,
		func(ctx context.Context) error { return e.bus.PublishOrderCreated(ctx, orderID) })
}

func (e *ObservableEventBus) PublishOrderSent(ctx context.Context, orderID int64, externalID int64) error {
	return e.observe(ctx, "EventBus.PublishOrderSent", events.TypeOrderSent, orderID,
		[]attribute.KeyValue{attribute.Int64("woocommerce.order_id", externalID)},
		func(ctx context.Context) error { return e.bus.PublishOrderSent(ctx, orderID, externalID) })
}

func (e *ObservableEventBus) PublishOrderSendFailed(ctx context.Context, orderID int64, reason string) error {
	return e.observe(ctx, "EventBus.PublishOrderSendFailed", events.TypeOrderSendFailed, orderID,
		[]attribute.KeyValue{attribute.String("failure.reason", reason)},
		func(ctx context.Context) error { return e.bus.PublishOrderSendFailed(ctx, orderID, reason) })
}

func (e *ObservableEventBus) observe(ctx context.Context, spanName, eventType string, orderID int64, extra []attribute.KeyValue, publish func(context.Context) error) error {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.Int64("order.id", orderID),
		attribute.String("event.type", eventType),
	)
	telemetry.AddSpanAttributes(span, extra...)

	start := time.Now()
	err := publish(ctx)
	e.metrics.RecordPublish(ctx, eventType, time.Since(start).Seconds(), err == nil)

	telemetry.FinishSpan(span, err)
	return err
}
