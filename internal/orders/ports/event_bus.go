package ports

import "context"

// EventBus defines the contract for publishing order lifecycle events.
type EventBus interface {
	PublishOrderCreated(ctx context.Context, orderID int64) error
	PublishOrderSent(ctx context.Context, orderID int64, externalID int64) error
	PublishOrderSendFailed(ctx context.Context, orderID int64, reason string) error
}
