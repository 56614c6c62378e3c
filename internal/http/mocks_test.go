package http

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/orders"
	"github.com/fjod/storefront/internal/voucher"
)

type mockCarts struct {
	cart     domain.Cart
	err      error
	lastCC   cart.Context
	lastID   int64
	lastQty  int
	reconciles int
}

func (m *mockCarts) Get(_ context.Context, cc cart.Context) (domain.Cart, error) {
	m.lastCC = cc
	return m.cart, m.err
}

func (m *mockCarts) Add(_ context.Context, cc cart.Context, productID int64) (domain.Cart, error) {
	m.lastCC, m.lastID = cc, productID
	if m.err != nil {
		return domain.Cart{}, m.err
	}
	m.cart.Add(domain.Product{ID: productID, Title: "Số Đỏ", Price: decimal.RequireFromString("60000")})
	return m.cart, nil
}

func (m *mockCarts) SetQuantity(_ context.Context, cc cart.Context, productID int64, n int) (domain.Cart, error) {
	m.lastCC, m.lastID, m.lastQty = cc, productID, n
	m.cart.SetQuantity(productID, n)
	return m.cart, m.err
}

func (m *mockCarts) Remove(_ context.Context, cc cart.Context, productID int64) (domain.Cart, error) {
	m.lastCC, m.lastID = cc, productID
	m.cart.Remove(productID)
	return m.cart, m.err
}

func (m *mockCarts) Clear(_ context.Context, cc cart.Context) error {
	m.lastCC = cc
	m.cart.Clear()
	return m.err
}

func (m *mockCarts) Reconcile(_ context.Context, cc cart.Context) (domain.Cart, error) {
	m.lastCC = cc
	m.reconciles++
	return m.cart, m.err
}

type mockCheckout struct {
	order   *domain.Order
	preview checkout.Preview
	err     error
	lastCC  cart.Context
	lastReq checkout.Request
	code    string
}

func (m *mockCheckout) PlaceOrder(_ context.Context, cc cart.Context, req checkout.Request) (*domain.Order, error) {
	m.lastCC, m.lastReq = cc, req
	return m.order, m.err
}

func (m *mockCheckout) PreviewVoucher(_ context.Context, cc cart.Context, code string) (checkout.Preview, error) {
	m.lastCC, m.code = cc, code
	return m.preview, m.err
}

type mockOrders struct {
	order      *domain.Order
	list       []*domain.Order
	stats      orders.Stats
	err        error
	lastNext   domain.OrderStatus
	lastActor  string
	lastStatus *domain.OrderStatus
	lastLimit  int
	lastOffset int
	lastEmail  string
}

func (m *mockOrders) Transition(_ context.Context, _ int64, next domain.OrderStatus, actorID string) (*domain.Order, error) {
	m.lastNext, m.lastActor = next, actorID
	if m.err != nil {
		return nil, m.err
	}
	o := *m.order
	o.Status = next
	return &o, nil
}

func (m *mockOrders) Get(_ context.Context, _ int64) (*domain.Order, error) {
	return m.order, m.err
}

func (m *mockOrders) List(_ context.Context, status *domain.OrderStatus, limit, offset int) ([]*domain.Order, error) {
	m.lastStatus, m.lastLimit, m.lastOffset = status, limit, offset
	return m.list, m.err
}

func (m *mockOrders) ListByEmail(_ context.Context, email string) ([]*domain.Order, error) {
	m.lastEmail = email
	if email == "" {
		return nil, domain.MissingField("email")
	}
	return m.list, m.err
}

func (m *mockOrders) Stats(_ context.Context) (orders.Stats, error) {
	return m.stats, m.err
}

type mockHistory struct {
	events []domain.OrderEvent
}

func (m *mockHistory) History(_ context.Context, _ int64) ([]domain.OrderEvent, error) {
	return m.events, nil
}

type mockVouchers struct {
	voucher    *domain.Voucher
	list       []*domain.Voucher
	summary    voucher.Summary
	err        error
	lastSearch string
	lastFilter voucher.StatusFilter
	lastInput  voucher.Input
	deleted    int64
}

func (m *mockVouchers) Get(_ context.Context, _ int64) (*domain.Voucher, error) {
	return m.voucher, m.err
}

func (m *mockVouchers) List(_ context.Context, search string, status voucher.StatusFilter) ([]*domain.Voucher, error) {
	m.lastSearch, m.lastFilter = search, status
	return m.list, m.err
}

func (m *mockVouchers) Summary(_ context.Context) (voucher.Summary, error) {
	return m.summary, m.err
}

func (m *mockVouchers) Create(_ context.Context, in voucher.Input) (*domain.Voucher, error) {
	m.lastInput = in
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Voucher{ID: 9, Code: domain.NormalizeCode(in.Code), DiscountType: in.DiscountType, DiscountValue: in.DiscountValue}, nil
}

func (m *mockVouchers) Update(_ context.Context, id int64, in voucher.Input) (*domain.Voucher, error) {
	m.lastInput = in
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Voucher{ID: id, Description: in.Description}, nil
}

func (m *mockVouchers) Toggle(_ context.Context, id int64) (*domain.Voucher, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Voucher{ID: id, IsActive: false}, nil
}

func (m *mockVouchers) Delete(_ context.Context, id int64) error {
	m.deleted = id
	return m.err
}
