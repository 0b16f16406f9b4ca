package events

import (
	"context"
	"log/slog"
)

// NoopEventBus logs events instead of delivering them. Used when no queue is configured.
type NoopEventBus struct {
	logger *slog.Logger
}

func NewNoopEventBus(logger *slog.Logger) *NoopEventBus {
	return &NoopEventBus{logger: logger}
}

func (n *NoopEventBus) PublishOrderCreated(ctx context.Context, orderID int64) error {
	n.logger.DebugContext(ctx, "event::order_created", "order_id", orderID)
	return nil
}

func (n *NoopEventBus) PublishOrderSent(ctx context.Context, orderID int64, externalID int64) error {
	n.logger.DebugContext(ctx, "event::order_sent", "order_id", orderID, "woocommerce_order_id", externalID)
	return nil
}

func (n *NoopEventBus) PublishOrderSendFailed(ctx context.Context, orderID int64, reason string) error {
	n.logger.DebugContext(ctx, "event::order_send_failed", "order_id", orderID, "reason", reason)
	return nil
}
