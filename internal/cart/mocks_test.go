package cart

import (
	"context"
	"sync"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/visit"
)

type mockVisits struct {
	m      sync.Mutex
	visits map[string]*visit.Visit
	err    error
	saves  int
}

func newMockVisits() *mockVisits {
	return &mockVisits{visits: map[string]*visit.Visit{}}
}

func (m *mockVisits) Get(_ context.Context, visitID string) (*visit.Visit, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.visits[visitID]
	if !ok {
		return nil, visit.ErrVisitNotFound
	}
	cp := *v
	cp.Cart = v.Cart.Snapshot()
	return &cp, nil
}

func (m *mockVisits) Save(_ context.Context, visitID string, v *visit.Visit) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	cp := *v
	cp.Cart = v.Cart.Snapshot()
	m.visits[visitID] = &cp
	m.saves++
	return nil
}

func (m *mockVisits) Delete(_ context.Context, visitID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.visits, visitID)
	return m.err
}

type mockCatalog struct {
	products map[int64]domain.Product
}

func (m *mockCatalog) GetByID(_ context.Context, id int64) (domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

type mockPersisted struct {
	m          sync.Mutex
	carts      map[string][]domain.PersistedLine
	getErr     error
	replaceErr error
	getCalls   int
}

func newMockPersisted() *mockPersisted {
	return &mockPersisted{carts: map[string][]domain.PersistedLine{}}
}

func (m *mockPersisted) GetCart(_ context.Context, accountID string) ([]domain.PersistedLine, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.carts[accountID], nil
}

func (m *mockPersisted) ReplaceCart(_ context.Context, accountID string, lines []domain.PersistedLine) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	if len(lines) == 0 {
		delete(m.carts, accountID)
		return nil
	}
	m.carts[accountID] = lines
	return nil
}

func (m *mockPersisted) DeleteCart(_ context.Context, accountID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.carts, accountID)
	return nil
}
