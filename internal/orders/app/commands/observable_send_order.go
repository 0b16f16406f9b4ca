package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/wannai/orderbridge/internal/orders/domain"
	"github.com/wannai/orderbridge/internal/orders/metrics"
	"github.com/wannai/orderbridge/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableSendOrderHandler struct {
	handler SendOrderHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableSendOrderHandler(handler SendOrderHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableSendOrderHandler {
	return &ObservableSendOrderHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableSendOrderHandler) Handle(ctx context.Context, cmd SendOrderCommand) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "SendOrderCommand.Handle")
	defer span.End()

	telemetry.AddSpanAttributes(span, attribute.Int64("order.id", cmd.OrderID))
	o.logger.InfoContext(ctx, "sending order to woocommerce", "order_id", cmd.OrderID)

	start := time.Now()
	order, err := o.handler.Handle(ctx, cmd)
	duration := time.Since(start).Seconds()

	switch {
	case err == nil:
		o.metrics.RecordOrderSend(ctx, metrics.SendSent, duration)
		telemetry.AddSpanAttributes(span, attribute.Int64("woocommerce.order_id", *order.WooCommerceOrderID))
		telemetry.SetSpanSuccess(span)
		o.logger.InfoContext(ctx, "order sent",
			"order_id", order.ID,
			"woocommerce_order_id", *order.WooCommerceOrderID,
		)
	case errors.Is(err, ErrSendFailed):
		o.metrics.RecordOrderSend(ctx, metrics.SendFailed, duration)
		telemetry.RecordSpanError(span, err)
		o.logger.WarnContext(ctx, "woocommerce rejected order", "order_id", cmd.OrderID, "error", err)
	default:
		o.metrics.RecordOrderSend(ctx, metrics.SendRejected, duration)
		telemetry.RecordSpanError(span, err)
		o.logger.WarnContext(ctx, "order not sent", "order_id", cmd.OrderID, "error", err)
	}

	return order, err
}
