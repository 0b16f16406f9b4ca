package app

import (
	"context"
	"log/slog"

	"github.com/wannai/orderbridge/internal/orders/app/commands"
	"github.com/wannai/orderbridge/internal/orders/app/queries"
	"github.com/wannai/orderbridge/internal/orders/domain"
	"github.com/wannai/orderbridge/internal/orders/metrics"
	"github.com/wannai/orderbridge/internal/orders/ports"
)

// Service bundles the order use cases exposed over the API.
type Service struct {
	createOrderHandler commands.CommandHandler
	sendOrderHandler   commands.SendOrderHandler
	listOrdersHandler  *queries.ListOrdersQueryHandler
	getOrderHandler    *queries.GetOrderQueryHandler
	getProductHandler  *queries.GetProductQueryHandler
}

// NewService wires required dependencies.
func NewService(
	repo ports.OrderRepository,
	catalog ports.Catalog,
	events ports.EventBus,
	logger *slog.Logger,
	metrics *metrics.Metrics,
) *Service {
	createOrder := commands.NewCreateOrderCommandHandler(repo, events, logger)
	sendOrder := commands.NewSendOrderCommandHandler(repo, catalog, events, logger)

	return &Service{
		createOrderHandler: commands.NewObservableCommandHandler(createOrder, logger, metrics),
		sendOrderHandler:   commands.NewObservableSendOrderHandler(sendOrder, logger, metrics),
		listOrdersHandler:  queries.NewListOrdersQueryHandler(repo, catalog, logger, metrics),
		getOrderHandler:    queries.NewGetOrderQueryHandler(repo, catalog, logger, metrics),
		getProductHandler:  queries.NewGetProductQueryHandler(catalog),
	}
}

// CreateOrder validates and persists a new pending order.
func (s *Service) CreateOrder(ctx context.Context, cmd commands.CreateOrderCommand) (*domain.Order, error) {
	return s.createOrderHandler.Handle(ctx, cmd)
}

// SendOrder forwards an order to WooCommerce. The returned order is non-nil
// for every error except a missing order.
func (s *Service) SendOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return s.sendOrderHandler.Handle(ctx, commands.SendOrderCommand{OrderID: id})
}

// GetOrder retrieves an order by ID with refreshed item names.
func (s *Service) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return s.getOrderHandler.Handle(ctx, queries.GetOrderQuery{OrderID: id})
}

// ListOrders returns orders with refreshed item names.
func (s *Service) ListOrders(ctx context.Context, query queries.ListOrdersQuery) ([]domain.Order, error) {
	return s.listOrdersHandler.Handle(ctx, query)
}

// GetProduct looks up a single catalog product.
func (s *Service) GetProduct(ctx context.Context, id int64) (*queries.Product, error) {
	return s.getProductHandler.Handle(ctx, queries.GetProductQuery{ProductID: id})
}
