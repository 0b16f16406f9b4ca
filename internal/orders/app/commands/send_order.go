package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wannai/orderbridge/internal/orders/domain"
	"github.com/wannai/orderbridge/internal/orders/ports"
)

var (
	// ErrAlreadySent is returned when the order has already been accepted by WooCommerce.
	ErrAlreadySent = errors.New("order already sent")
	// ErrSendFailed is returned when WooCommerce rejected the order or could not be reached.
	// The order returned alongside it carries the failed status.
	ErrSendFailed = errors.New("failed to send order to woocommerce")
)

type SendOrderCommand struct {
	OrderID int64
}

type SendOrderHandler interface {
	Handle(ctx context.Context, cmd SendOrderCommand) (*domain.Order, error)
}

// SendOrderCommandHandler forwards a stored order to the catalog system and
// records the outcome. Status writes are compare-and-set against the status
// read before the remote call, so two concurrent sends cannot both win.
type SendOrderCommandHandler struct {
	repo    ports.OrderRepository
	catalog ports.Catalog
	events  ports.EventBus
	logger  *slog.Logger
	now     func() time.Time
}

func NewSendOrderCommandHandler(
	repo ports.OrderRepository,
	catalog ports.Catalog,
	events ports.EventBus,
	logger *slog.Logger,
) *SendOrderCommandHandler {
	return &SendOrderCommandHandler{
		repo:    repo,
		catalog: catalog,
		events:  events,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Handle returns the order together with the error for every outcome except
// a missing order, so callers can render its current state.
func (h *SendOrderCommandHandler) Handle(ctx context.Context, cmd SendOrderCommand) (*domain.Order, error) {
	order, err := h.repo.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", cmd.OrderID, err)
	}

	if !order.Status.CanSend() {
		return order, ErrAlreadySent
	}
	expected := order.Status

	externalID, sendErr := h.catalog.CreateOrder(ctx, *order)
	if sendErr != nil {
		return h.markFailed(ctx, order, expected, sendErr)
	}

	if err := h.repo.UpdateStatus(ctx, order.ID, expected, domain.StatusSent, &externalID); err != nil {
		h.logger.ErrorContext(ctx, "woocommerce accepted order but status update failed",
			"order_id", order.ID,
			"woocommerce_order_id", externalID,
			"error", err,
		)
		return h.current(ctx, order, err)
	}

	order.Status = domain.StatusSent
	order.WooCommerceOrderID = &externalID
	order.UpdatedAt = h.now()

	if err := h.events.PublishOrderSent(ctx, order.ID, externalID); err != nil {
		h.logger.WarnContext(ctx, "failed to publish order sent event", "order_id", order.ID, "error", err)
	}

	return order, nil
}

func (h *SendOrderCommandHandler) markFailed(ctx context.Context, order *domain.Order, expected domain.OrderStatus, sendErr error) (*domain.Order, error) {
	if err := h.repo.UpdateStatus(ctx, order.ID, expected, domain.StatusFailed, nil); err != nil {
		return h.current(ctx, order, err)
	}

	order.Status = domain.StatusFailed
	order.UpdatedAt = h.now()

	if err := h.events.PublishOrderSendFailed(ctx, order.ID, sendErr.Error()); err != nil {
		h.logger.WarnContext(ctx, "failed to publish order send failed event", "order_id", order.ID, "error", err)
	}

	return order, fmt.Errorf("%w: %w", ErrSendFailed, sendErr)
}

// current reloads the order after a failed status write. A reload failure
// falls back to the order as it was read.
func (h *SendOrderCommandHandler) current(ctx context.Context, order *domain.Order, cause error) (*domain.Order, error) {
	wrapped := fmt.Errorf("update order %d status: %w", order.ID, cause)
	if !errors.Is(cause, ports.ErrStatusConflict) {
		return order, wrapped
	}

	latest, err := h.repo.GetByID(ctx, order.ID)
	if err != nil {
		return order, wrapped
	}
	return latest, wrapped
}
