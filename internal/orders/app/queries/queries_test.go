package queries_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"reflect"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/wannai/orderbridge/internal/orders/adapters/memory"
	"github.com/wannai/orderbridge/internal/orders/app/queries"
	"github.com/wannai/orderbridge/internal/orders/domain"
	"github.com/wannai/orderbridge/internal/orders/metrics"
	"github.com/wannai/orderbridge/internal/orders/ports"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeCatalog struct {
	names      map[int64]string
	err        error
	fetchCalls [][]int64
	productFn  func(id int64) (string, bool, error)
}

func (f *fakeCatalog) FetchNamesByIDs(_ context.Context, ids []int64) (map[int64]string, error) {
	f.fetchCalls = append(f.fetchCalls, append([]int64(nil), ids...))
	if f.err != nil {
		return nil, f.err
	}
	out := map[int64]string{}
	for _, id := range ids {
		if name, ok := f.names[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

func (f *fakeCatalog) FetchProductName(_ context.Context, id int64) (string, bool, error) {
	if f.productFn != nil {
		return f.productFn(id)
	}
	return "", false, nil
}

func (f *fakeCatalog) CreateOrder(context.Context, domain.Order) (int64, error) {
	return 0, errors.New("not used")
}

func int64Ptr(v int64) *int64 { return &v }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMetrics(t *testing.T) (*metrics.Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	m, err := metrics.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}
	return m, reader
}

func save(t *testing.T, repo ports.OrderRepository, items ...domain.OrderItem) *domain.Order {
	t.Helper()
	order := &domain.Order{Source: "web", Currency: "EUR", Items: items}
	if err := repo.Save(context.Background(), order); err != nil {
		t.Fatalf("save: %v", err)
	}
	return order
}

func TestListOrders(t *testing.T) {
	t.Run("overwrites names with catalog values", func(t *testing.T) {
		repo := memory.NewRepository()
		save(t, repo, domain.OrderItem{
			ProductID: int64Ptr(5),
			Quantity:  2,
			Price:     decimal.NewNullDecimal(decimal.RequireFromString("10.0")),
			Name:      "stale name",
		})
		catalog := &fakeCatalog{names: map[int64]string{5: "Widget"}}
		m, _ := newMetrics(t)
		handler := queries.NewListOrdersQueryHandler(repo, catalog, discardLogger(), m)

		orders, err := handler.Handle(context.Background(), queries.ListOrdersQuery{})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		item := orders[0].Items[0]
		if item.Name != "Widget" || item.Quantity != 2 {
			t.Errorf("expected Widget x2, got %q x%d", item.Name, item.Quantity)
		}
	})

	t.Run("blank and missing catalog names keep stored names", func(t *testing.T) {
		repo := memory.NewRepository()
		save(t, repo,
			domain.OrderItem{ProductID: int64Ptr(1), Quantity: 1, Name: "kept"},
			domain.OrderItem{ProductID: int64Ptr(2), Quantity: 1, Name: "also kept"},
		)
		catalog := &fakeCatalog{names: map[int64]string{1: "   "}}
		m, _ := newMetrics(t)
		handler := queries.NewListOrdersQueryHandler(repo, catalog, discardLogger(), m)

		orders, err := handler.Handle(context.Background(), queries.ListOrdersQuery{})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if orders[0].Items[0].Name != "kept" || orders[0].Items[1].Name != "also kept" {
			t.Errorf("unexpected names %q, %q", orders[0].Items[0].Name, orders[0].Items[1].Name)
		}
	})

	t.Run("one catalog call with distinct ids across orders", func(t *testing.T) {
		repo := memory.NewRepository()
		save(t, repo, domain.OrderItem{ProductID: int64Ptr(1), Quantity: 1}, domain.OrderItem{ProductID: int64Ptr(2), Quantity: 1})
		save(t, repo, domain.OrderItem{ProductID: int64Ptr(2), Quantity: 3}, domain.OrderItem{Quantity: 1})
		catalog := &fakeCatalog{names: map[int64]string{}}
		m, _ := newMetrics(t)
		handler := queries.NewListOrdersQueryHandler(repo, catalog, discardLogger(), m)

		if _, err := handler.Handle(context.Background(), queries.ListOrdersQuery{}); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		if len(catalog.fetchCalls) != 1 {
			t.Fatalf("expected 1 catalog call, got %d", len(catalog.fetchCalls))
		}
		got := catalog.fetchCalls[0]
		sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
		if !reflect.DeepEqual(got, []int64{1, 2}) {
			t.Errorf("expected ids [1 2], got %v", got)
		}
	})

	t.Run("no product ids means no catalog call", func(t *testing.T) {
		repo := memory.NewRepository()
		save(t, repo, domain.OrderItem{Quantity: 1})
		save(t, repo)
		catalog := &fakeCatalog{}
		m, _ := newMetrics(t)
		handler := queries.NewListOrdersQueryHandler(repo, catalog, discardLogger(), m)

		orders, err := handler.Handle(context.Background(), queries.ListOrdersQuery{})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(orders) != 2 {
			t.Errorf("expected 2 orders, got %d", len(orders))
		}
		if len(catalog.fetchCalls) != 0 {
			t.Errorf("expected no catalog calls, got %d", len(catalog.fetchCalls))
		}
	})

	t.Run("catalog failure is swallowed and counted", func(t *testing.T) {
		repo := memory.NewRepository()
		save(t, repo, domain.OrderItem{ProductID: int64Ptr(5), Quantity: 2, Name: "stored"})
		catalog := &fakeCatalog{err: errors.New("woocommerce down")}
		m, reader := newMetrics(t)
		handler := queries.NewListOrdersQueryHandler(repo, catalog, discardLogger(), m)

		orders, err := handler.Handle(context.Background(), queries.ListOrdersQuery{})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if orders[0].Items[0].Name != "stored" {
			t.Errorf("expected stored name to survive, got %q", orders[0].Items[0].Name)
		}

		var rm metricdata.ResourceMetrics
		if err := reader.Collect(context.Background(), &rm); err != nil {
			t.Fatalf("Failed to collect metrics: %v", err)
		}
		found := false
		for _, sm := range rm.ScopeMetrics {
			for _, metric := range sm.Metrics {
				if metric.Name == "catalog_enrichment_failures_total" {
					found = true
				}
			}
		}
		if !found {
			t.Error("catalog_enrichment_failures_total not recorded")
		}
	})

	t.Run("listing twice without writes is stable", func(t *testing.T) {
		repo := memory.NewRepository()
		save(t, repo, domain.OrderItem{ProductID: int64Ptr(5), Quantity: 2, Price: decimal.NewNullDecimal(decimal.NewFromInt(10))})
		save(t, repo, domain.OrderItem{ProductID: int64Ptr(6), Quantity: 1})
		m, _ := newMetrics(t)
		handler := queries.NewListOrdersQueryHandler(repo, &fakeCatalog{names: map[int64]string{5: "Widget"}}, discardLogger(), m)

		first, err := handler.Handle(context.Background(), queries.ListOrdersQuery{})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		second, err := handler.Handle(context.Background(), queries.ListOrdersQuery{})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("listings differ:\n%+v\n%+v", first, second)
		}
	})

	t.Run("rejects invalid filters", func(t *testing.T) {
		m, _ := newMetrics(t)
		handler := queries.NewListOrdersQueryHandler(memory.NewRepository(), &fakeCatalog{}, discardLogger(), m)

		unknown := domain.OrderStatus("archived")
		tests := []queries.ListOrdersQuery{
			{Status: &unknown},
			{Page: -1},
			{PageSize: -10},
			{Page: 2, PageSize: queries.MaxPageSize + 1},
			{Page: math.MaxInt, PageSize: 2},
		}
		for _, q := range tests {
			if _, err := handler.Handle(context.Background(), q); !errors.Is(err, queries.ErrInvalidQuery) {
				t.Errorf("query %+v: expected ErrInvalidQuery, got %v", q, err)
			}
		}
	})
}

func TestGetOrder(t *testing.T) {
	t.Run("returns enriched order", func(t *testing.T) {
		repo := memory.NewRepository()
		saved := save(t, repo, domain.OrderItem{ProductID: int64Ptr(5), Quantity: 2})
		m, _ := newMetrics(t)
		handler := queries.NewGetOrderQueryHandler(repo, &fakeCatalog{names: map[int64]string{5: "Widget"}}, discardLogger(), m)

		order, err := handler.Handle(context.Background(), queries.GetOrderQuery{OrderID: saved.ID})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if order.ID != saved.ID || order.Items[0].Name != "Widget" {
			t.Errorf("unexpected order %+v", order)
		}
	})

	t.Run("returns not found", func(t *testing.T) {
		m, _ := newMetrics(t)
		handler := queries.NewGetOrderQueryHandler(memory.NewRepository(), &fakeCatalog{}, discardLogger(), m)

		_, err := handler.Handle(context.Background(), queries.GetOrderQuery{OrderID: 42})
		if !errors.Is(err, ports.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("rejects non-positive id", func(t *testing.T) {
		m, _ := newMetrics(t)
		handler := queries.NewGetOrderQueryHandler(memory.NewRepository(), &fakeCatalog{}, discardLogger(), m)

		_, err := handler.Handle(context.Background(), queries.GetOrderQuery{OrderID: 0})
		if !errors.Is(err, queries.ErrInvalidQuery) {
			t.Errorf("expected ErrInvalidQuery, got %v", err)
		}
	})
}

func TestGetProduct(t *testing.T) {
	remoteErr := errors.New("timeout")

	tests := []struct {
		name    string
		id      int64
		fn      func(int64) (string, bool, error)
		want    *queries.Product
		wantErr error
	}{
		{
			name: "found",
			id:   5,
			fn:   func(int64) (string, bool, error) { return "Widget", true, nil },
			want: &queries.Product{ID: 5, Name: "Widget"},
		},
		{
			name:    "unknown product",
			id:      6,
			fn:      func(int64) (string, bool, error) { return "", false, nil },
			wantErr: queries.ErrProductNotFound,
		},
		{
			name:    "catalog error",
			id:      7,
			fn:      func(int64) (string, bool, error) { return "", false, remoteErr },
			wantErr: remoteErr,
		},
		{
			name:    "invalid id",
			id:      0,
			wantErr: queries.ErrInvalidQuery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := queries.NewGetProductQueryHandler(&fakeCatalog{productFn: tt.fn})

			got, err := handler.Handle(context.Background(), queries.GetProductQuery{ProductID: tt.id})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if *got != *tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}
