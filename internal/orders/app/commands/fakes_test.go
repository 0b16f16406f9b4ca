package commands_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/wannai/orderbridge/internal/orders/domain"
	"github.com/wannai/orderbridge/internal/orders/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCatalog struct {
	mu          sync.Mutex
	createFn    func(order domain.Order) (int64, error)
	createCalls int
}

func (f *fakeCatalog) FetchNamesByIDs(context.Context, []int64) (map[int64]string, error) {
	return map[int64]string{}, nil
}

func (f *fakeCatalog) FetchProductName(context.Context, int64) (string, bool, error) {
	return "", false, nil
}

func (f *fakeCatalog) CreateOrder(_ context.Context, order domain.Order) (int64, error) {
	f.mu.Lock()
	f.createCalls++
	f.mu.Unlock()
	if f.createFn != nil {
		return f.createFn(order)
	}
	return 1001, nil
}

type publishedEvent struct {
	kind       string
	orderID    int64
	externalID int64
	reason     string
}

type recordingEventBus struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (b *recordingEventBus) record(e publishedEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
	return b.err
}

func (b *recordingEventBus) PublishOrderCreated(_ context.Context, orderID int64) error {
	return b.record(publishedEvent{kind: "created", orderID: orderID})
}

func (b *recordingEventBus) PublishOrderSent(_ context.Context, orderID int64, externalID int64) error {
	return b.record(publishedEvent{kind: "sent", orderID: orderID, externalID: externalID})
}

func (b *recordingEventBus) PublishOrderSendFailed(_ context.Context, orderID int64, reason string) error {
	return b.record(publishedEvent{kind: "send_failed", orderID: orderID, reason: reason})
}

// failingRepository wraps a real repository and overrides selected calls.
type failingRepository struct {
	ports.OrderRepository
	saveErr         error
	updateStatusErr error
	beforeUpdate    func()
}

func (r *failingRepository) Save(ctx context.Context, order *domain.Order) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	return r.OrderRepository.Save(ctx, order)
}

func (r *failingRepository) UpdateStatus(ctx context.Context, id int64, expected, next domain.OrderStatus, externalID *int64) error {
	if r.beforeUpdate != nil {
		r.beforeUpdate()
	}
	if r.updateStatusErr != nil {
		return r.updateStatusErr
	}
	return r.OrderRepository.UpdateStatus(ctx, id, expected, next, externalID)
}

var errDatabaseDown = errors.New("database down")
