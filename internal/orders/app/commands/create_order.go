package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/wannai/orderbridge/internal/orders/domain"
	"github.com/wannai/orderbridge/internal/orders/ports"
)

// ErrInvalidCommand wraps validation failures so callers can map them to a client error.
var ErrInvalidCommand = errors.New("invalid command")

type CreateOrderCommand struct {
	Source        string               `json:"source"`
	CustomerName  string               `json:"customerName"`
	CustomerEmail string               `json:"customerEmail" validate:"omitempty,email"`
	CustomerPhone string               `json:"customerPhone"`
	Total         decimal.Decimal      `json:"total" validate:"gte=0"`
	Currency      string               `json:"currency" validate:"omitempty,len=3"`
	Items         []CreateOrderItem    `json:"items" validate:"dive"`
	Addresses     []CreateOrderAddress `json:"addresses" validate:"dive"`
}

type CreateOrderItem struct {
	ProductID *int64              `json:"productId" validate:"omitempty,gt=0"`
	Quantity  int                 `json:"quantity" validate:"min=1"`
	Price     decimal.NullDecimal `json:"price" validate:"omitempty,gte=0"`
}

type CreateOrderAddress struct {
	Type      string `json:"type" validate:"required,address_type"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Company   string `json:"company"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
	Email     string `json:"email" validate:"omitempty,email"`
}

type CommandHandler interface {
	Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
}

type CreateOrderCommandHandler struct {
	repo      ports.OrderRepository
	events    ports.EventBus
	validator *validator.Validate
	logger    *slog.Logger
}

func NewCreateOrderCommandHandler(
	repo ports.OrderRepository,
	events ports.EventBus,
	logger *slog.Logger,
) *CreateOrderCommandHandler {
	return &CreateOrderCommandHandler{
		repo:      repo,
		events:    events,
		validator: newValidator(),
		logger:    logger,
	}
}

func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	if err := h.validator.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	order := cmd.toOrder()
	if err := h.repo.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}

	// The order is committed; a lost event must not fail the request.
	if err := h.events.PublishOrderCreated(ctx, order.ID); err != nil {
		h.logger.WarnContext(ctx, "failed to publish order created event",
			"order_id", order.ID,
			"error", err,
		)
	}

	return order, nil
}

func (c CreateOrderCommand) toOrder() *domain.Order {
	order := &domain.Order{
		Source:        c.Source,
		CustomerName:  c.CustomerName,
		CustomerEmail: c.CustomerEmail,
		CustomerPhone: c.CustomerPhone,
		Total:         c.Total,
		Currency:      c.Currency,
		Status:        domain.StatusPending,
		Items:         make([]domain.OrderItem, 0, len(c.Items)),
		Addresses:     make([]domain.OrderAddress, 0, len(c.Addresses)),
	}

	for _, item := range c.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	for _, addr := range c.Addresses {
		order.Addresses = append(order.Addresses, domain.OrderAddress{
			Type:      domain.AddressType(strings.ToLower(addr.Type)),
			FirstName: addr.FirstName,
			LastName:  addr.LastName,
			Company:   addr.Company,
			Address1:  addr.Address1,
			Address2:  addr.Address2,
			City:      addr.City,
			State:     addr.State,
			Postcode:  addr.Postcode,
			Country:   addr.Country,
			Phone:     addr.Phone,
			Email:     addr.Email,
		})
	}

	return order
}
