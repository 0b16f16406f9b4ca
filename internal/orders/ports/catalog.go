package ports

import (
	"context"

	"github.com/wannai/orderbridge/internal/orders/domain"
)

// Catalog is the external product catalog and order intake the service forwards to.
type Catalog interface {
	FetchNamesByIDs(ctx context.Context, ids []int64) (map[int64]string, error)
	FetchProductName(ctx context.Context, id int64) (string, bool, error)
	CreateOrder(ctx context.Context, order domain.Order) (int64, error)
}
