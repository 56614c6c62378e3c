package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/storefront/internal/domain"
)

const voucherColumns = `id, code, description, discount_type, discount_value, min_order_amount,
	usage_limit, used_count, start_date, end_date, is_active, created_at, updated_at`

const voucherCodeIndex = "vouchers_code_lower_idx"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVoucher(s rowScanner) (*domain.Voucher, error) {
	var (
		v          domain.Voucher
		minOrder   decimal.NullDecimal
		usageLimit sql.NullInt64
		updatedAt  sql.NullTime
	)
	err := s.Scan(
		&v.ID,
		&v.Code,
		&v.Description,
		&v.DiscountType,
		&v.DiscountValue,
		&minOrder,
		&usageLimit,
		&v.UsedCount,
		&v.StartDate,
		&v.EndDate,
		&v.IsActive,
		&v.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if minOrder.Valid {
		v.MinOrderAmount = &minOrder.Decimal
	}
	if usageLimit.Valid {
		limit := int(usageLimit.Int64)
		v.UsageLimit = &limit
	}
	if updatedAt.Valid {
		v.UpdatedAt = &updatedAt.Time
	}
	return &v, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func (r *Repository) GetVoucher(ctx context.Context, id int64) (*domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE id = $1`

	v, err := scanVoucher(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrVoucherNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query voucher by id: %w", err)
	}
	return v, nil
}

// GetVoucherByCode matches the code ignoring case.
func (r *Repository) GetVoucherByCode(ctx context.Context, code string) (*domain.Voucher, error) {
	return getVoucherByCode(ctx, r.db, code, false)
}

func getVoucherByCode(ctx context.Context, q querier, code string, forUpdate bool) (*domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE LOWER(code) = LOWER($1)`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	v, err := scanVoucher(q.QueryRowContext(ctx, query, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrVoucherNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query voucher by code: %w", err)
	}
	return v, nil
}

// ListVouchers returns vouchers newest first. A non-empty search keeps only
// vouchers whose code or description contains it, ignoring case.
func (r *Repository) ListVouchers(ctx context.Context, search string) ([]*domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers
	          WHERE $1 = '' OR code ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%'
	          ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, search)
	if err != nil {
		return nil, fmt.Errorf("query vouchers: %w", err)
	}
	defer rows.Close()

	var vouchers []*domain.Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, fmt.Errorf("scan voucher row: %w", err)
		}
		vouchers = append(vouchers, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return vouchers, nil
}

// CreateVoucher inserts v and fills in its ID. UsedCount is always stored as 0.
func (r *Repository) CreateVoucher(ctx context.Context, v *domain.Voucher) error {
	query := `INSERT INTO vouchers (code, description, discount_type, discount_value, min_order_amount,
	              usage_limit, used_count, start_date, end_date, is_active, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8, $9, $10)
	          RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		v.Code,
		v.Description,
		v.DiscountType,
		v.DiscountValue,
		nullDecimal(v.MinOrderAmount),
		nullInt(v.UsageLimit),
		v.StartDate,
		v.EndDate,
		v.IsActive,
		v.CreatedAt,
	).Scan(&v.ID)
	if uniqueViolationOn(err, voucherCodeIndex) {
		return domain.ErrVoucherCodeTaken
	}
	if err != nil {
		return fmt.Errorf("insert voucher: %w", err)
	}

	v.UsedCount = 0
	return nil
}

// UpdateVoucher rewrites the editable fields of v. Code, used count and
// creation time are left untouched.
func (r *Repository) UpdateVoucher(ctx context.Context, v *domain.Voucher) error {
	query := `UPDATE vouchers
	          SET description = $2, discount_type = $3, discount_value = $4, min_order_amount = $5,
	              usage_limit = $6, start_date = $7, end_date = $8, is_active = $9, updated_at = $10
	          WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		v.ID,
		v.Description,
		v.DiscountType,
		v.DiscountValue,
		nullDecimal(v.MinOrderAmount),
		nullInt(v.UsageLimit),
		v.StartDate,
		v.EndDate,
		v.IsActive,
		v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update voucher: %w", err)
	}
	return expectOneRow(res, domain.ErrVoucherNotFound)
}

func (r *Repository) SetVoucherActive(ctx context.Context, id int64, active bool, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE vouchers SET is_active = $2, updated_at = $3 WHERE id = $1`, id, active, at)
	if err != nil {
		return fmt.Errorf("update voucher status: %w", err)
	}
	return expectOneRow(res, domain.ErrVoucherNotFound)
}

// DeleteVoucher removes a voucher that has never been redeemed.
func (r *Repository) DeleteVoucher(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vouchers WHERE id = $1 AND used_count = 0`, id)
	if err != nil {
		return fmt.Errorf("delete voucher: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	if _, err := r.GetVoucher(ctx, id); err != nil {
		return err
	}
	return domain.ErrVoucherInUse
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
