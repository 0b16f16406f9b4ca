package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/wannai/orderbridge/internal/orders/adapters/memory"
	"github.com/wannai/orderbridge/internal/orders/app/commands"
	"github.com/wannai/orderbridge/internal/orders/domain"
	"github.com/wannai/orderbridge/internal/orders/ports"
)

func int64Ptr(v int64) *int64 { return &v }

func validCommand() commands.CreateOrderCommand {
	return commands.CreateOrderCommand{
		Source:        "shopify",
		CustomerName:  "Ada Lovelace",
		CustomerEmail: "ada@example.com",
		Total:         decimal.RequireFromString("20.00"),
		Currency:      "EUR",
		Items: []commands.CreateOrderItem{
			{ProductID: int64Ptr(5), Quantity: 2, Price: decimal.NewNullDecimal(decimal.RequireFromString("10.0"))},
			{Quantity: 1},
		},
		Addresses: []commands.CreateOrderAddress{
			{Type: "Billing", FirstName: "Ada", City: "Paris", Email: "ada@example.com"},
			{Type: "shipping", FirstName: "Ada", City: "Lyon"},
		},
	}
}

func TestCreateOrder(t *testing.T) {
	t.Run("persists pending order with children", func(t *testing.T) {
		repo := memory.NewRepository()
		events := &recordingEventBus{}
		handler := commands.NewCreateOrderCommandHandler(repo, events, discardLogger())

		order, err := handler.Handle(context.Background(), validCommand())
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		if order.ID == 0 {
			t.Error("expected order ID to be generated")
		}
		if order.Status != domain.StatusPending {
			t.Errorf("expected status %s, got %s", domain.StatusPending, order.Status)
		}
		if len(order.Items) != 2 || len(order.Addresses) != 2 {
			t.Fatalf("expected 2 items and 2 addresses, got %d/%d", len(order.Items), len(order.Addresses))
		}
		if order.Addresses[0].Type != domain.AddressBilling {
			t.Errorf("expected address type normalised to billing, got %q", order.Addresses[0].Type)
		}

		stored, err := repo.GetByID(context.Background(), order.ID)
		if err != nil {
			t.Fatalf("expected stored order, got: %v", err)
		}
		for _, item := range stored.Items {
			if item.OrderID != order.ID {
				t.Errorf("item %d not linked to order %d", item.ID, order.ID)
			}
		}
		if !stored.Items[0].Price.Decimal.Equal(decimal.NewFromInt(10)) || stored.Items[1].Price.Valid {
			t.Errorf("unexpected prices %v / %v", stored.Items[0].Price, stored.Items[1].Price)
		}

		if len(events.events) != 1 || events.events[0].kind != "created" || events.events[0].orderID != order.ID {
			t.Errorf("expected one created event, got %+v", events.events)
		}
	})

	t.Run("accepts empty items and addresses", func(t *testing.T) {
		handler := commands.NewCreateOrderCommandHandler(memory.NewRepository(), &recordingEventBus{}, discardLogger())

		order, err := handler.Handle(context.Background(), commands.CreateOrderCommand{Source: "pos"})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if order.Items == nil || order.Addresses == nil {
			t.Error("expected empty, non-nil child slices")
		}
	})

	t.Run("event publish failure does not fail creation", func(t *testing.T) {
		repo := memory.NewRepository()
		events := &recordingEventBus{err: errors.New("queue unavailable")}
		handler := commands.NewCreateOrderCommandHandler(repo, events, discardLogger())

		order, err := handler.Handle(context.Background(), validCommand())
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if _, err := repo.GetByID(context.Background(), order.ID); err != nil {
			t.Errorf("expected order to be stored, got: %v", err)
		}
	})

	t.Run("returns repository error", func(t *testing.T) {
		repo := &failingRepository{OrderRepository: memory.NewRepository(), saveErr: errDatabaseDown}
		events := &recordingEventBus{}
		handler := commands.NewCreateOrderCommandHandler(repo, events, discardLogger())

		order, err := handler.Handle(context.Background(), validCommand())
		if !errors.Is(err, errDatabaseDown) {
			t.Fatalf("expected database error, got: %v", err)
		}
		if order != nil {
			t.Errorf("expected nil order, got %+v", order)
		}
		if len(events.events) != 0 {
			t.Errorf("expected no events, got %+v", events.events)
		}
	})
}

func TestCreateOrderValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*commands.CreateOrderCommand)
		field  string
	}{
		{
			name:   "invalid customer email",
			mutate: func(c *commands.CreateOrderCommand) { c.CustomerEmail = "not-an-email" },
			field:  "customerEmail",
		},
		{
			name:   "negative total",
			mutate: func(c *commands.CreateOrderCommand) { c.Total = decimal.NewFromInt(-1) },
			field:  "total",
		},
		{
			name:   "currency not a three letter code",
			mutate: func(c *commands.CreateOrderCommand) { c.Currency = "EURO" },
			field:  "currency",
		},
		{
			name:   "zero quantity",
			mutate: func(c *commands.CreateOrderCommand) { c.Items[0].Quantity = 0 },
			field:  "quantity",
		},
		{
			name: "negative price",
			mutate: func(c *commands.CreateOrderCommand) {
				c.Items[0].Price = decimal.NewNullDecimal(decimal.NewFromInt(-5))
			},
			field: "price",
		},
		{
			name:   "unknown address type",
			mutate: func(c *commands.CreateOrderCommand) { c.Addresses[0].Type = "pickup" },
			field:  "type",
		},
		{
			name:   "missing address type",
			mutate: func(c *commands.CreateOrderCommand) { c.Addresses[1].Type = "" },
			field:  "type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := memory.NewRepository()
			handler := commands.NewCreateOrderCommandHandler(repo, &recordingEventBus{}, discardLogger())

			cmd := validCommand()
			tt.mutate(&cmd)

			order, err := handler.Handle(context.Background(), cmd)
			if !errors.Is(err, commands.ErrInvalidCommand) {
				t.Fatalf("expected ErrInvalidCommand, got: %v", err)
			}
			if order != nil {
				t.Errorf("expected nil order, got %+v", order)
			}

			var fieldErrs validator.ValidationErrors
			if !errors.As(err, &fieldErrs) {
				t.Fatalf("expected validation errors, got %T", err)
			}
			if fieldErrs[0].Field() != tt.field {
				t.Errorf("expected failing field %q, got %q", tt.field, fieldErrs[0].Field())
			}

			stored, _ := repo.List(context.Background(), ports.ListFilter{})
			if len(stored) != 0 {
				t.Errorf("expected nothing stored, got %d orders", len(stored))
			}
		})
	}
}
