package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/fjod/storefront/internal/domain"
)

const orderColumns = `id, customer_name, customer_email, customer_phone, customer_address,
	account_id, voucher_code, discount_amount, total_amount, payment_method, status,
	idempotency_key, created_at, updated_at`

const orderIdempotencyConstraint = "orders_idempotency_key_key"

// OrderFilter narrows ListOrders. Zero values match everything.
type OrderFilter struct {
	Status *domain.OrderStatus
	Email  string
	Limit  int
	Offset int
}

func scanOrder(s rowScanner) (*domain.Order, error) {
	var o domain.Order
	err := s.Scan(
		&o.ID,
		&o.Name,
		&o.Email,
		&o.Phone,
		&o.Address,
		&o.AccountID,
		&o.VoucherCode,
		&o.DiscountAmount,
		&o.TotalAmount,
		&o.PaymentMethod,
		&o.Status,
		&o.IdempotencyKey,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repository) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return getOrder(ctx, r.db, id, false)
}

func getOrder(ctx context.Context, q querier, id int64, forUpdate bool) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	o, err := scanOrder(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	if err := attachLines(ctx, q, []*domain.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repository) GetOrderByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE idempotency_key = $1`

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by idempotency key: %w", err)
	}

	if err := attachLines(ctx, r.db, []*domain.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// ListOrders returns orders newest first, each with its lines.
func (r *Repository) ListOrders(ctx context.Context, f OrderFilter) ([]*domain.Order, error) {
	var status sql.NullString
	if f.Status != nil {
		status = sql.NullString{String: string(*f.Status), Valid: true}
	}
	limit := sql.NullInt64{Int64: int64(f.Limit), Valid: f.Limit > 0}

	query := `SELECT ` + orderColumns + ` FROM orders
	          WHERE ($1::VARCHAR IS NULL OR status = $1)
	            AND ($2 = '' OR LOWER(customer_email) = LOWER($2))
	          ORDER BY created_at DESC, id DESC
	          LIMIT $3 OFFSET $4`

	rows, err := r.db.QueryContext(ctx, query, status, f.Email, limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if err := attachLines(ctx, r.db, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// CountOrdersByStatus returns the number of orders per status. Every status
// is present in the result, with 0 when no order has it.
func (r *Repository) CountOrdersByStatus(ctx context.Context) (map[domain.OrderStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count orders by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.OrderStatus]int, len(domain.OrderStatuses))
	for _, s := range domain.OrderStatuses {
		counts[s] = 0
	}
	for rows.Next() {
		var (
			status domain.OrderStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return counts, nil
}

func attachLines(ctx context.Context, q querier, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(orders))
	byID := make(map[int64]*domain.Order, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
		byID[o.ID] = o
		o.Lines = []domain.OrderLine{}
	}

	query := `SELECT id, order_id, product_id, unit_price, quantity, subtotal
	          FROM order_lines WHERE order_id = ANY($1) ORDER BY id`

	rows, err := q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.UnitPrice, &l.Quantity, &l.Subtotal); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		o := byID[l.OrderID]
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}
	return nil
}
