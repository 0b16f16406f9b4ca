package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wannai/orderbridge/internal/orders/domain"
	"github.com/wannai/orderbridge/internal/orders/ports"
)

// Repository provides an in-memory store useful for local development and tests.
type Repository struct {
	mu            sync.RWMutex
	orders        map[int64]domain.Order
	nextOrderID   int64
	nextItemID    int64
	nextAddressID int64
	now           func() time.Time
}

// NewRepository constructs a new in-memory repository.
func NewRepository() *Repository {
	return &Repository{
		orders: make(map[int64]domain.Order),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Save stores the order, assigning ids to the order and any new children.
func (r *Repository) Save(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if order.Status == "" {
		order.Status = domain.StatusPending
	}

	if order.ID == 0 {
		r.nextOrderID++
		order.ID = r.nextOrderID
		order.CreatedAt = now
	} else {
		existing, ok := r.orders[order.ID]
		if !ok {
			return ports.ErrNotFound
		}
		order.CreatedAt = existing.CreatedAt
	}
	order.UpdatedAt = now

	order.AttachChildren()
	for i := range order.Items {
		r.nextItemID++
		order.Items[i].ID = r.nextItemID
	}
	for i := range order.Addresses {
		r.nextAddressID++
		order.Addresses[i].ID = r.nextAddressID
	}

	r.orders[order.ID] = cloneOrder(*order)
	return nil
}

// GetByID fetches a single order by identifier.
func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := cloneOrder(order)
	return &clone, nil
}

// List returns orders newest first. Pagination is 1-based; a zero page size returns everything.
func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []domain.Order{}
	for _, order := range r.orders {
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		result = append(result, order)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if filter.PageSize > 0 {
		skip := max(filter.Page, 1) - 1
		if skip > len(result)/filter.PageSize {
			return []domain.Order{}, nil
		}
		start := skip * filter.PageSize
		if start >= len(result) {
			return []domain.Order{}, nil
		}
		end := min(start+filter.PageSize, len(result))
		result = result[start:end]
	}

	out := make([]domain.Order, len(result))
	for i, order := range result {
		out[i] = cloneOrder(order)
	}
	return out, nil
}

// UpdateStatus moves the order from expected to next when its current status still matches.
func (r *Repository) UpdateStatus(_ context.Context, id int64, expected, next domain.OrderStatus, externalID *int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return ports.ErrNotFound
	}
	if order.Status != expected {
		return ports.ErrStatusConflict
	}

	order.Status = next
	if externalID != nil {
		v := *externalID
		order.WooCommerceOrderID = &v
	}
	order.UpdatedAt = r.now()
	r.orders[id] = order
	return nil
}

func cloneOrder(order domain.Order) domain.Order {
	clone := order
	clone.Items = make([]domain.OrderItem, len(order.Items))
	for i, item := range order.Items {
		if item.ProductID != nil {
			v := *item.ProductID
			item.ProductID = &v
		}
		clone.Items[i] = item
	}
	clone.Addresses = append([]domain.OrderAddress{}, order.Addresses...)
	if order.WooCommerceOrderID != nil {
		v := *order.WooCommerceOrderID
		clone.WooCommerceOrderID = &v
	}
	return clone
}
