package adapters

import (
	"context"
	"time"

	"github.com/wannai/orderbridge/internal/database"
	"github.com/wannai/orderbridge/internal/orders/domain"
	"github.com/wannai/orderbridge/internal/orders/ports"
	"github.com/wannai/orderbridge/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// ObservableRepository traces every repository call and records its latency.
type ObservableRepository struct {
	repo    ports.OrderRepository
	metrics *database.Metrics
}

func NewObservableRepository(repo ports.OrderRepository, metrics *database.Metrics) *ObservableRepository {
	return &ObservableRepository{
		repo:    repo,
		metrics: metrics,
	}
}

func (r *ObservableRepository) Save(ctx context.Context, order *domain.Order) error {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.Save")
	defer span.End()

	operation := "update_order"
	if order.ID == 0 {
		operation = "insert_order"
	}
	telemetry.AddSpanAttributes(span,
		attribute.String("operation", operation),
		attribute.Int("order.items", len(order.Items)),
		attribute.Int("order.addresses", len(order.Addresses)),
	)

	start := time.Now()
	err := r.repo.Save(ctx, order)
	r.metrics.RecordQuery(ctx, operation, time.Since(start).Seconds(), err == nil)

	if err == nil {
		telemetry.AddSpanAttributes(span, attribute.Int64("order.id", order.ID))
	}
	telemetry.FinishSpan(span, err)
	return err
}

func (r *ObservableRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.GetByID")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.Int64("order.id", id),
		attribute.String("operation", "get_by_id"),
	)

	start := time.Now()
	order, err := r.repo.GetByID(ctx, id)
	r.metrics.RecordQuery(ctx, "get_order_by_id", time.Since(start).Seconds(), err == nil)

	telemetry.FinishSpan(span, err)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *ObservableRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.List")
	defer span.End()

	attrs := []attribute.KeyValue{
		attribute.String("operation", "list"),
		attribute.Int("page", filter.Page),
		attribute.Int("page_size", filter.PageSize),
	}
	if filter.Status != nil {
		attrs = append(attrs, attribute.String("filter.status", string(*filter.Status)))
	}
	telemetry.AddSpanAttributes(span, attrs...)

	start := time.Now()
	orders, err := r.repo.List(ctx, filter)
	r.metrics.RecordQuery(ctx, "list_orders", time.Since(start).Seconds(), err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.AddSpanAttributes(span, attribute.Int("result.count", len(orders)))
	telemetry.SetSpanSuccess(span)
	return orders, nil
}

func (r *ObservableRepository) UpdateStatus(ctx context.Context, id int64, expected, next domain.OrderStatus, externalID *int64) error {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.UpdateStatus")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.Int64("order.id", id),
		attribute.String("order.expected_status", string(expected)),
		attribute.String("order.new_status", string(next)),
		attribute.String("operation", "update_status"),
	)

	start := time.Now()
	err := r.repo.UpdateStatus(ctx, id, expected, next, externalID)
	r.metrics.RecordQuery(ctx, "update_order_status", time.Since(start).Seconds(), err == nil)

	telemetry.FinishSpan(span, err)
	return err
}
