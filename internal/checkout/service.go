package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logging"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/internal/voucher"
)

const DefaultPaymentMethod = "COD"

// Carts is the part of the cart service checkout depends on.
type Carts interface {
	Get(ctx context.Context, cc cart.Context) (domain.Cart, error)
	Retire(ctx context.Context, cc cart.Context) error
}

type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.TxStore) error) error
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
}

type Request struct {
	domain.Contact
	VoucherCode    string `json:"voucher_code,omitempty"`
	PaymentMethod  string `json:"payment_method,omitempty"`
	IdempotencyKey string `json:"-"`
}

type Service struct {
	carts     Carts
	store     Store
	validator *voucher.Validator
	now       func() time.Time
	logger    *zap.Logger
}

func NewService(carts Carts, store Store, validator *voucher.Validator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		carts:     carts,
		store:     store,
		validator: validator,
		now:       validator.Now,
		logger:    logger,
	}
}

// PlaceOrder turns the visit cart into a PENDING order.
//
// Voucher checks, the order header and lines, the voucher usage bump, removal
// of the persisted cart and the order.created outbox event share one
// transaction. The visit cart is emptied only after that transaction commits.
// A request repeating an idempotency key gets the order created the first
// time, provided it comes from the same purchaser.
func (s *Service) PlaceOrder(ctx context.Context, cc cart.Context, req Request) (*domain.Order, error) {
	logger := logging.FromContext(ctx, s.logger)

	if req.IdempotencyKey != "" {
		existing, err := s.store.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
		if err == nil {
			logger.Info("duplicate checkout request",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.Int64("order_id", existing.ID))
			return replay(existing, cc, req)
		}
		if !errors.Is(err, domain.ErrOrderNotFound) {
			return nil, fmt.Errorf("failed to check idempotency: %w", err)
		}
	}

	c, err := s.carts.Get(ctx, cc)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	contact := req.Contact.Trimmed()
	if err := contact.Validate(); err != nil {
		return nil, err
	}
	if cc.Email != "" {
		contact.Email = cc.Email
	}

	order, err := s.commit(ctx, cc, c, contact, req)
	if errors.Is(err, repository.ErrDuplicateIdempotencyKey) {
		existing, err := s.store.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		return replay(existing, cc, req)
	}
	if err != nil {
		if domain.Kind(err) == nil {
			logger.Error("checkout failed",
				zap.String("customer_email", contact.Email),
				zap.String("customer_phone", contact.Phone),
				zap.String("voucher_code", req.VoucherCode),
				zap.String("subtotal", c.TotalPrice().String()),
				zap.Int("lines", len(c.Items)),
				zap.Error(err))
		}
		return nil, err
	}

	if err := s.carts.Retire(ctx, cc); err != nil {
		logger.Warn("order placed but visit cart not cleared",
			zap.Int64("order_id", order.ID),
			zap.Error(err))
	}

	logger.Info("order placed",
		zap.Int64("order_id", order.ID),
		zap.String("total_amount", order.TotalAmount.String()),
		zap.String("discount_amount", order.DiscountAmount.String()))
	return order, nil
}

func (s *Service) commit(ctx context.Context, cc cart.Context, c domain.Cart, contact domain.Contact, req Request) (*domain.Order, error) {
	subtotal := c.TotalPrice()
	code := domain.NormalizeCode(req.VoucherCode)

	paymentMethod := strings.ToUpper(strings.TrimSpace(req.PaymentMethod))
	if paymentMethod == "" {
		paymentMethod = DefaultPaymentMethod
	}

	var order *domain.Order
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.TxStore) error {
		now := s.now().UTC()

		var applied *domain.Voucher
		discount := decimal.Zero
		if code != "" {
			validator := voucher.NewValidator(lockedVouchers{tx}, s.now)
			v, err := validator.Validate(ctx, code, subtotal)
			if err != nil {
				return err
			}
			applied = v
			discount = validator.CalculateDiscount(v, subtotal)
		}

		order = &domain.Order{
			Contact:        contact,
			DiscountAmount: discount,
			TotalAmount:    domain.OrderTotal(subtotal, discount),
			PaymentMethod:  paymentMethod,
			Status:         domain.OrderStatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
			Lines:          domain.FreezeLines(c),
		}
		if cc.Authenticated() {
			accountID := cc.AccountID
			order.AccountID = &accountID
		}
		if applied != nil {
			order.VoucherCode = &applied.Code
		}
		if req.IdempotencyKey != "" {
			key := req.IdempotencyKey
			order.IdempotencyKey = &key
		}

		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}

		if applied != nil {
			if err := tx.IncrementVoucherUsage(ctx, applied.ID); err != nil {
				return err
			}
		}

		if cc.Authenticated() {
			if err := tx.DeleteCart(ctx, cc.AccountID); err != nil {
				return err
			}
		}

		event, err := orderCreatedEvent(order, subtotal, cc.AccountID)
		if err != nil {
			return err
		}
		return tx.AppendOutboxEvent(ctx, event)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// replay hands back an order found under the request's idempotency key. An
// account order is only returned to that account, a guest order only to a
// guest submitting the same email.
func replay(existing *domain.Order, cc cart.Context, req Request) (*domain.Order, error) {
	if existing.AccountID != nil {
		if *existing.AccountID != cc.AccountID {
			return nil, domain.ErrIdempotencyKeyReused
		}
		return existing, nil
	}
	if cc.Authenticated() || !strings.EqualFold(strings.TrimSpace(req.Email), existing.Email) {
		return nil, domain.ErrIdempotencyKeyReused
	}
	return existing, nil
}

// lockedVouchers lets the validator read vouchers through the row lock of
// the checkout transaction.
type lockedVouchers struct {
	tx repository.TxStore
}

func (l lockedVouchers) GetVoucherByCode(ctx context.Context, code string) (*domain.Voucher, error) {
	return l.tx.LockVoucherByCode(ctx, code)
}

type orderCreatedData struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	VoucherCode    *string         `json:"voucher_code,omitempty"`
	PaymentMethod  string          `json:"payment_method"`
	CustomerEmail  string          `json:"customer_email"`
	Lines          int             `json:"lines"`
}

func orderCreatedEvent(order *domain.Order, subtotal decimal.Decimal, actorID string) (domain.OrderEvent, error) {
	data, err := json.Marshal(orderCreatedData{
		Subtotal:       subtotal,
		DiscountAmount: order.DiscountAmount,
		TotalAmount:    order.TotalAmount,
		VoucherCode:    order.VoucherCode,
		PaymentMethod:  order.PaymentMethod,
		CustomerEmail:  order.Email,
		Lines:          len(order.Lines),
	})
	if err != nil {
		return domain.OrderEvent{}, fmt.Errorf("marshal order event data: %w", err)
	}

	return domain.OrderEvent{
		ID:            uuid.NewString(),
		Type:          domain.EventOrderCreated,
		OrderID:       order.ID,
		CurrentStatus: order.Status,
		ActorID:       actorID,
		OccurredAt:    order.CreatedAt,
		Data:          data,
	}, nil
}
