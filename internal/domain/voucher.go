package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage  DiscountType = "PERCENTAGE"
	DiscountFixedAmount DiscountType = "FIXED_AMOUNT"
)

func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFixedAmount
}

var hundred = decimal.NewFromInt(100)

type Voucher struct {
	ID             int64            `json:"id"`
	Code           string           `json:"code"`
	Description    string           `json:"description"`
	DiscountType   DiscountType     `json:"discount_type"`
	DiscountValue  decimal.Decimal  `json:"discount_value"`
	MinOrderAmount *decimal.Decimal `json:"min_order_amount,omitempty"`
	UsageLimit     *int             `json:"usage_limit,omitempty"`
	UsedCount      int              `json:"used_count"`
	StartDate      time.Time        `json:"start_date"`
	EndDate        time.Time        `json:"end_date"`
	IsActive       bool             `json:"is_active"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      *time.Time       `json:"updated_at,omitempty"`
}

// NormalizeCode trims surrounding blanks; codes compare case-insensitively.
func NormalizeCode(code string) string {
	return strings.TrimSpace(code)
}

// Applicable runs the state checks that follow a successful lookup, in order:
// active flag, date window, usage limit, minimum order amount.
func (v *Voucher) Applicable(now time.Time, subtotal decimal.Decimal) error {
	if !v.IsActive {
		return ErrVoucherInactive
	}
	if now.Before(v.StartDate) || now.After(v.EndDate) {
		return ErrVoucherOutOfWindow
	}
	if v.Exhausted() {
		return ErrVoucherExhausted
	}
	if v.MinOrderAmount != nil && subtotal.LessThan(*v.MinOrderAmount) {
		return ErrVoucherBelowMinimum
	}
	return nil
}

func (v *Voucher) Exhausted() bool {
	return v.UsageLimit != nil && v.UsedCount >= *v.UsageLimit
}

func (v *Voucher) Expired(now time.Time) bool {
	return now.After(v.EndDate)
}

// Valid reports whether the voucher could be redeemed at now, ignoring the
// minimum order amount.
func (v *Voucher) Valid(now time.Time) bool {
	return v.IsActive && !now.Before(v.StartDate) && !now.After(v.EndDate) && !v.Exhausted()
}

// Discount computes the discount for subtotal. It re-runs Applicable and
// yields zero when the voucher does not apply.
func (v *Voucher) Discount(now time.Time, subtotal decimal.Decimal) decimal.Decimal {
	if v.Applicable(now, subtotal) != nil {
		return decimal.Zero
	}
	switch v.DiscountType {
	case DiscountPercentage:
		return subtotal.Mul(v.DiscountValue).Div(hundred).Round(2)
	case DiscountFixedAmount:
		return decimal.Min(v.DiscountValue, subtotal)
	default:
		return decimal.Zero
	}
}
