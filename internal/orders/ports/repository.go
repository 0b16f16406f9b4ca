package ports

import (
	"context"
	"errors"

	"github.com/wannai/orderbridge/internal/orders/domain"
)

// OrderRepository exposes persistence operations required by the application layer.
type OrderRepository interface {
	// Save inserts the order when its ID is zero and updates it otherwise.
	// Items and addresses are replaced in the same transaction. Generated ids
	// and timestamps are written back into order.
	Save(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)
	// UpdateStatus moves the order from expected to next. externalID is stored
	// alongside; nil leaves the existing value untouched.
	UpdateStatus(ctx context.Context, id int64, expected, next domain.OrderStatus, externalID *int64) error
}

// ListFilter narrows list queries by status and pagination. A zero PageSize returns every order.
type ListFilter struct {
	Status   *domain.OrderStatus
	Page     int
	PageSize int
}

var (
	// ErrNotFound is returned when the requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrStatusConflict is returned when the order's status no longer matches the expected one.
	ErrStatusConflict = errors.New("order status changed concurrently")
)
