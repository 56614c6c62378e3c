package voucher

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/storefront/internal/domain"
)

// Lookup finds a voucher by code, ignoring case.
type Lookup interface {
	GetVoucherByCode(ctx context.Context, code string) (*domain.Voucher, error)
}

// Validator decides whether a voucher applies to a subtotal and how much it
// takes off. Every call reads the voucher afresh; results are never cached.
type Validator struct {
	vouchers Lookup
	now      func() time.Time
}

func NewValidator(vouchers Lookup, now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{vouchers: vouchers, now: now}
}

// Validate runs the checks in order and stops at the first failure: the code
// exists, the voucher is active, now is inside its window, it has uses left,
// and subtotal reaches its minimum.
func (v *Validator) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*domain.Voucher, error) {
	code = domain.NormalizeCode(code)
	if code == "" {
		return nil, domain.MissingField("voucher_code")
	}

	voucher, err := v.vouchers.GetVoucherByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := voucher.Applicable(v.now(), subtotal); err != nil {
		return nil, err
	}
	return voucher, nil
}

// CalculateDiscount returns the discount for subtotal, or zero when the
// voucher does not currently apply.
func (v *Validator) CalculateDiscount(voucher *domain.Voucher, subtotal decimal.Decimal) decimal.Decimal {
	return voucher.Discount(v.now(), subtotal)
}

func (v *Validator) Now() time.Time {
	return v.now()
}
