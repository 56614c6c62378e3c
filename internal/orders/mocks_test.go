package orders

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
)

type mockStore struct {
	m         sync.Mutex
	orders    map[int64]domain.Order
	events    []domain.OrderEvent
	filter    repository.OrderFilter
	counts    map[domain.OrderStatus]int
	updateErr error
}

func newMockStore(orders ...domain.Order) *mockStore {
	m := &mockStore{orders: map[int64]domain.Order{}}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *mockStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.TxStore) error) error {
	m.m.Lock()
	defer m.m.Unlock()

	tx := &mockTx{store: m, orders: map[int64]domain.Order{}}
	for k, v := range m.orders {
		tx.orders[k] = v
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.orders = tx.orders
	m.events = append(m.events, tx.events...)
	return nil
}

func (m *mockStore) GetOrder(_ context.Context, id int64) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return &o, nil
}

func (m *mockStore) ListOrders(_ context.Context, f repository.OrderFilter) ([]*domain.Order, error) {
	m.filter = f
	var out []*domain.Order
	for _, o := range m.orders {
		o := o
		out = append(out, &o)
	}
	return out, nil
}

func (m *mockStore) CountOrdersByStatus(context.Context) (map[domain.OrderStatus]int, error) {
	if m.counts == nil {
		return nil, errors.New("db down")
	}
	return m.counts, nil
}

type mockTx struct {
	store  *mockStore
	orders map[int64]domain.Order
	events []domain.OrderEvent
}

func (t *mockTx) LockVoucherByCode(context.Context, string) (*domain.Voucher, error) {
	return nil, errors.New("not used by orders")
}

func (t *mockTx) IncrementVoucherUsage(context.Context, int64) error {
	return errors.New("not used by orders")
}

func (t *mockTx) InsertOrder(context.Context, *domain.Order) error {
	return errors.New("not used by orders")
}

func (t *mockTx) DeleteCart(context.Context, string) error {
	return errors.New("not used by orders")
}

func (t *mockTx) LockOrder(_ context.Context, id int64) (*domain.Order, error) {
	o, ok := t.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return &o, nil
}

func (t *mockTx) UpdateOrderStatus(_ context.Context, id int64, from, to domain.OrderStatus, at time.Time) error {
	if t.store.updateErr != nil {
		return t.store.updateErr
	}
	o, ok := t.orders[id]
	if !ok || o.Status != from {
		return domain.ErrInvalidTransition
	}
	o.Status = to
	o.UpdatedAt = at
	t.orders[id] = o
	return nil
}

func (t *mockTx) AppendOutboxEvent(_ context.Context, event domain.OrderEvent) error {
	t.events = append(t.events, event)
	return nil
}
