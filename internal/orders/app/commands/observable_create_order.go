package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/wannai/orderbridge/internal/orders/domain"
	"github.com/wannai/orderbridge/internal/orders/metrics"
	"github.com/wannai/orderbridge/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableCommandHandler struct {
	handler CommandHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCommandHandler(handler CommandHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCommandHandler {
	return &ObservableCommandHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "CreateOrderCommand.Handle")
	defer span.End()

	start := time.Now()
	var success bool
	defer func() {
		o.metrics.RecordOrderCreationDuration(ctx, time.Since(start).Seconds())
		o.metrics.RecordOrderCreated(ctx, success)
	}()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.source", cmd.Source),
		attribute.Int("order.items", len(cmd.Items)),
		attribute.Int("order.addresses", len(cmd.Addresses)),
	)

	o.logger.InfoContext(ctx, "creating order",
		"source", cmd.Source,
		"items", len(cmd.Items),
		"currency", cmd.Currency,
	)

	order, err := o.handler.Handle(ctx, cmd)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "failed to create order",
			"error", err,
			"source", cmd.Source,
		)
		return nil, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.Int64("order.id", order.ID),
		attribute.String("order.status", string(order.Status)),
		attribute.String("order.total", order.Total.String()),
	)

	o.logger.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"total", order.Total.String(),
	)

	success = true
	telemetry.SetSpanSuccess(span)

	return order, nil
}
