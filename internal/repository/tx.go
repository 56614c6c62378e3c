package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

// TxStore is the set of writes that must share one transaction: placing an
// order and moving an order through its lifecycle.
type TxStore interface {
	LockVoucherByCode(ctx context.Context, code string) (*domain.Voucher, error)
	IncrementVoucherUsage(ctx context.Context, voucherID int64) error
	InsertOrder(ctx context.Context, order *domain.Order) error
	DeleteCart(ctx context.Context, accountID string) error
	LockOrder(ctx context.Context, id int64) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, from, to domain.OrderStatus, at time.Time) error
	AppendOutboxEvent(ctx context.Context, event domain.OrderEvent) error
}

// Tx implements TxStore on top of an open transaction.
type Tx struct {
	q querier
}

// LockVoucherByCode loads the voucher and holds its row lock until the
// transaction ends.
func (t *Tx) LockVoucherByCode(ctx context.Context, code string) (*domain.Voucher, error) {
	return getVoucherByCode(ctx, t.q, code, true)
}

// IncrementVoucherUsage bumps used_count only while the usage limit allows it.
func (t *Tx) IncrementVoucherUsage(ctx context.Context, voucherID int64) error {
	query := `UPDATE vouchers SET used_count = used_count + 1
	          WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)`

	res, err := t.q.ExecContext(ctx, query, voucherID)
	if err != nil {
		return fmt.Errorf("increment voucher usage: %w", err)
	}
	return expectOneRow(res, domain.ErrVoucherExhausted)
}

// InsertOrder writes the order header and its lines, filling in the
// generated ids.
func (t *Tx) InsertOrder(ctx context.Context, order *domain.Order) error {
	query := `INSERT INTO orders (customer_name, customer_email, customer_phone, customer_address,
	              account_id, voucher_code, discount_amount, total_amount, payment_method, status,
	              idempotency_key, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          RETURNING id`

	err := t.q.QueryRowContext(ctx, query,
		order.Name,
		order.Email,
		order.Phone,
		order.Address,
		order.AccountID,
		order.VoucherCode,
		order.DiscountAmount,
		order.TotalAmount,
		order.PaymentMethod,
		order.Status,
		order.IdempotencyKey,
		order.CreatedAt,
		order.UpdatedAt,
	).Scan(&order.ID)
	if uniqueViolationOn(err, orderIdempotencyConstraint) {
		return ErrDuplicateIdempotencyKey
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	lineQuery := `INSERT INTO order_lines (order_id, product_id, unit_price, quantity, subtotal)
	              VALUES ($1, $2, $3, $4, $5)
	              RETURNING id`
	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = order.ID
		err := t.q.QueryRowContext(ctx, lineQuery,
			line.OrderID,
			line.ProductID,
			line.UnitPrice,
			line.Quantity,
			line.Subtotal,
		).Scan(&line.ID)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}
	return nil
}

func (t *Tx) DeleteCart(ctx context.Context, accountID string) error {
	return deleteCart(ctx, t.q, accountID)
}

func (t *Tx) LockOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return getOrder(ctx, t.q, id, true)
}

// UpdateOrderStatus moves the order from one status to another. It fails
// with ErrInvalidTransition when the stored status is no longer from.
func (t *Tx) UpdateOrderStatus(ctx context.Context, id int64, from, to domain.OrderStatus, at time.Time) error {
	query := `UPDATE orders SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`

	res, err := t.q.ExecContext(ctx, query, id, from, to, at)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return expectOneRow(res, domain.ErrInvalidTransition)
}

func (t *Tx) AppendOutboxEvent(ctx context.Context, event domain.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	query := `INSERT INTO outbox_events (event_id, aggregate_id, event_type, payload, created_at)
	          VALUES ($1, $2, $3, $4, $5)`

	_, err = t.q.ExecContext(ctx, query,
		event.ID,
		strconv.FormatInt(event.OrderID, 10),
		event.Type,
		payload,
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}
