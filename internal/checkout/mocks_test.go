package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
)

type mockCarts struct {
	m         sync.Mutex
	cart      domain.Cart
	getErr    error
	retireErr error
	retired   int
}

func (m *mockCarts) Get(context.Context, cart.Context) (domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.getErr != nil {
		return domain.Cart{}, m.getErr
	}
	return m.cart.Snapshot(), nil
}

func (m *mockCarts) Retire(context.Context, cart.Context) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.retired++
	return m.retireErr
}

// savedCarts is an in-memory cart.PersistedCarts.
type savedCarts struct {
	m     sync.Mutex
	carts map[string][]domain.PersistedLine
}

func (s *savedCarts) GetCart(_ context.Context, accountID string) ([]domain.PersistedLine, error) {
	s.m.Lock()
	defer s.m.Unlock()
	return append([]domain.PersistedLine(nil), s.carts[accountID]...), nil
}

func (s *savedCarts) ReplaceCart(_ context.Context, accountID string, lines []domain.PersistedLine) error {
	s.m.Lock()
	defer s.m.Unlock()
	s.carts[accountID] = append([]domain.PersistedLine(nil), lines...)
	return nil
}

func (s *savedCarts) DeleteCart(_ context.Context, accountID string) error {
	s.m.Lock()
	defer s.m.Unlock()
	delete(s.carts, accountID)
	return nil
}

type storeState struct {
	vouchers map[int64]domain.Voucher
	orders   []domain.Order
	carts    map[string]bool
	events   []domain.OrderEvent
	nextID   int64
}

func (s storeState) clone() storeState {
	out := storeState{
		vouchers: make(map[int64]domain.Voucher, len(s.vouchers)),
		orders:   append([]domain.Order(nil), s.orders...),
		carts:    make(map[string]bool, len(s.carts)),
		events:   append([]domain.OrderEvent(nil), s.events...),
		nextID:   s.nextID,
	}
	for k, v := range s.vouchers {
		out.vouchers[k] = v
	}
	for k, v := range s.carts {
		out.carts[k] = v
	}
	return out
}

// fakeStore runs transactions one at a time on a staged copy of its state
// and keeps the copy only when the transaction function succeeds.
type fakeStore struct {
	m      sync.Mutex
	state  storeState
	failOn string
	txs    int
}

func newFakeStore(vouchers ...*domain.Voucher) *fakeStore {
	f := &fakeStore{state: storeState{
		vouchers: map[int64]domain.Voucher{},
		carts:    map[string]bool{},
		nextID:   1,
	}}
	for i, v := range vouchers {
		v.ID = int64(i + 1)
		f.state.vouchers[v.ID] = *v
	}
	return f
}

func (f *fakeStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.TxStore) error) error {
	f.m.Lock()
	defer f.m.Unlock()
	f.txs++

	staged := f.state.clone()
	if err := fn(ctx, &fakeTx{failOn: f.failOn, state: &staged}); err != nil {
		return err
	}
	f.state = staged
	return nil
}

func (f *fakeStore) GetOrderByIdempotencyKey(_ context.Context, key string) (*domain.Order, error) {
	f.m.Lock()
	defer f.m.Unlock()
	for _, o := range f.state.orders {
		if o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			cp := o
			return &cp, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (f *fakeStore) GetVoucherByCode(_ context.Context, code string) (*domain.Voucher, error) {
	f.m.Lock()
	defer f.m.Unlock()
	for _, v := range f.state.vouchers {
		if strings.EqualFold(v.Code, code) {
			cp := v
			return &cp, nil
		}
	}
	return nil, domain.ErrVoucherNotFound
}

func (f *fakeStore) snapshot() storeState {
	f.m.Lock()
	defer f.m.Unlock()
	return f.state.clone()
}

var errBoom = errors.New("boom")

type fakeTx struct {
	failOn string
	state  *storeState
}

func (t *fakeTx) fail(op string) error {
	if t.failOn == op {
		return errBoom
	}
	return nil
}

func (t *fakeTx) LockVoucherByCode(_ context.Context, code string) (*domain.Voucher, error) {
	if err := t.fail("LockVoucherByCode"); err != nil {
		return nil, err
	}
	for _, v := range t.state.vouchers {
		if strings.EqualFold(v.Code, code) {
			cp := v
			return &cp, nil
		}
	}
	return nil, domain.ErrVoucherNotFound
}

func (t *fakeTx) IncrementVoucherUsage(_ context.Context, voucherID int64) error {
	if err := t.fail("IncrementVoucherUsage"); err != nil {
		return err
	}
	v, ok := t.state.vouchers[voucherID]
	if !ok || v.Exhausted() {
		return domain.ErrVoucherExhausted
	}
	v.UsedCount++
	t.state.vouchers[voucherID] = v
	return nil
}

func (t *fakeTx) InsertOrder(_ context.Context, order *domain.Order) error {
	if err := t.fail("InsertOrder"); err != nil {
		return err
	}
	if order.IdempotencyKey != nil {
		for _, o := range t.state.orders {
			if o.IdempotencyKey != nil && *o.IdempotencyKey == *order.IdempotencyKey {
				return repository.ErrDuplicateIdempotencyKey
			}
		}
	}
	order.ID = t.state.nextID
	t.state.nextID++
	for i := range order.Lines {
		order.Lines[i].OrderID = order.ID
		order.Lines[i].ID = int64(i + 1)
	}
	cp := *order
	cp.Lines = append([]domain.OrderLine(nil), order.Lines...)
	t.state.orders = append(t.state.orders, cp)
	return nil
}

func (t *fakeTx) DeleteCart(_ context.Context, accountID string) error {
	if err := t.fail("DeleteCart"); err != nil {
		return err
	}
	delete(t.state.carts, accountID)
	return nil
}

func (t *fakeTx) LockOrder(context.Context, int64) (*domain.Order, error) {
	return nil, errors.New("not used by checkout")
}

func (t *fakeTx) UpdateOrderStatus(context.Context, int64, domain.OrderStatus, domain.OrderStatus, time.Time) error {
	return errors.New("not used by checkout")
}

func (t *fakeTx) AppendOutboxEvent(_ context.Context, event domain.OrderEvent) error {
	if err := t.fail("AppendOutboxEvent"); err != nil {
		return err
	}
	t.state.events = append(t.state.events, event)
	return nil
}
