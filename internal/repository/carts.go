package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/fjod/storefront/internal/domain"
)

// GetCart returns the persisted lines of an account, or nil when the account
// has no saved cart.
func (r *Repository) GetCart(ctx context.Context, accountID string) ([]domain.PersistedLine, error) {
	query := `SELECT cl.product_id, cl.quantity
	          FROM cart_lines cl
	          JOIN carts c ON c.id = cl.cart_id
	          WHERE c.account_id = $1
	          ORDER BY cl.id`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("query persisted cart: %w", err)
	}
	defer rows.Close()

	var lines []domain.PersistedLine
	for rows.Next() {
		var l domain.PersistedLine
		if err := rows.Scan(&l.ProductID, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return lines, nil
}

// ReplaceCart overwrites the persisted cart of an account with lines.
// An empty lines slice removes the cart.
func (r *Repository) ReplaceCart(ctx context.Context, accountID string, lines []domain.PersistedLine) error {
	if len(lines) == 0 {
		return r.DeleteCart(ctx, accountID)
	}

	return r.withTx(ctx, func(q querier) error {
		var cartID int64
		upsert := `INSERT INTO carts (account_id) VALUES ($1)
		           ON CONFLICT (account_id) DO UPDATE SET updated_at = NOW()
		           RETURNING id`
		if err := q.QueryRowContext(ctx, upsert, accountID).Scan(&cartID); err != nil {
			return fmt.Errorf("upsert cart: %w", err)
		}

		if _, err := q.ExecContext(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID); err != nil {
			return fmt.Errorf("delete cart lines: %w", err)
		}

		productIDs := make([]int64, 0, len(lines))
		quantities := make([]int64, 0, len(lines))
		for _, l := range lines {
			productIDs = append(productIDs, l.ProductID)
			quantities = append(quantities, int64(l.Quantity))
		}

		insert := `INSERT INTO cart_lines (cart_id, product_id, quantity)
		           SELECT $1, UNNEST($2::BIGINT[]), UNNEST($3::INTEGER[])`
		if _, err := q.ExecContext(ctx, insert, cartID, pq.Array(productIDs), pq.Array(quantities)); err != nil {
			return fmt.Errorf("insert cart lines: %w", err)
		}
		return nil
	})
}

func (r *Repository) DeleteCart(ctx context.Context, accountID string) error {
	return deleteCart(ctx, r.db, accountID)
}

func deleteCart(ctx context.Context, q querier, accountID string) error {
	// cart_lines go with the cart through ON DELETE CASCADE
	if _, err := q.ExecContext(ctx, `DELETE FROM carts WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("delete persisted cart: %w", err)
	}
	return nil
}
