package voucher

import (
	"context"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

type mockStore struct {
	vouchers map[int64]*domain.Voucher
	nextID   int64
	listErr  error
	lookups  int
}

func newMockStore(vouchers ...*domain.Voucher) *mockStore {
	m := &mockStore{vouchers: map[int64]*domain.Voucher{}, nextID: 1}
	for _, v := range vouchers {
		if v.ID == 0 {
			v.ID = m.nextID
		}
		m.vouchers[v.ID] = v
		if v.ID >= m.nextID {
			m.nextID = v.ID + 1
		}
	}
	return m
}

func (m *mockStore) GetVoucherByCode(_ context.Context, code string) (*domain.Voucher, error) {
	m.lookups++
	for _, v := range m.vouchers {
		if strings.EqualFold(v.Code, code) {
			cp := *v
			return &cp, nil
		}
	}
	return nil, domain.ErrVoucherNotFound
}

func (m *mockStore) GetVoucher(_ context.Context, id int64) (*domain.Voucher, error) {
	v, ok := m.vouchers[id]
	if !ok {
		return nil, domain.ErrVoucherNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *mockStore) ListVouchers(_ context.Context, search string) ([]*domain.Voucher, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*domain.Voucher
	for id := int64(1); id < m.nextID; id++ {
		v, ok := m.vouchers[id]
		if !ok {
			continue
		}
		if search == "" ||
			strings.Contains(strings.ToLower(v.Code), strings.ToLower(search)) ||
			strings.Contains(strings.ToLower(v.Description), strings.ToLower(search)) {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockStore) CreateVoucher(_ context.Context, v *domain.Voucher) error {
	for _, existing := range m.vouchers {
		if strings.EqualFold(existing.Code, v.Code) {
			return domain.ErrVoucherCodeTaken
		}
	}
	v.ID = m.nextID
	m.nextID++
	v.UsedCount = 0
	cp := *v
	m.vouchers[v.ID] = &cp
	return nil
}

func (m *mockStore) UpdateVoucher(_ context.Context, v *domain.Voucher) error {
	existing, ok := m.vouchers[v.ID]
	if !ok {
		return domain.ErrVoucherNotFound
	}
	cp := *v
	cp.Code = existing.Code
	cp.UsedCount = existing.UsedCount
	m.vouchers[v.ID] = &cp
	return nil
}

func (m *mockStore) SetVoucherActive(_ context.Context, id int64, active bool, at time.Time) error {
	v, ok := m.vouchers[id]
	if !ok {
		return domain.ErrVoucherNotFound
	}
	v.IsActive = active
	v.UpdatedAt = &at
	return nil
}

func (m *mockStore) DeleteVoucher(_ context.Context, id int64) error {
	v, ok := m.vouchers[id]
	if !ok {
		return domain.ErrVoucherNotFound
	}
	if v.UsedCount > 0 {
		return domain.ErrVoucherInUse
	}
	delete(m.vouchers, id)
	return nil
}
