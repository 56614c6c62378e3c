package checkout

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/domain"
)

type Preview struct {
	Valid          bool            `json:"valid"`
	Message        string          `json:"message"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalTotal     decimal.Decimal `json:"final_total"`
}

// PreviewVoucher shows what code would take off the current cart without
// changing anything. Voucher rejections come back as an invalid preview, not
// as an error.
func (s *Service) PreviewVoucher(ctx context.Context, cc cart.Context, code string) (Preview, error) {
	c, err := s.carts.Get(ctx, cc)
	if err != nil {
		return Preview{}, err
	}
	subtotal := c.TotalPrice()

	rejected := Preview{DiscountAmount: decimal.Zero, FinalTotal: subtotal}

	if domain.NormalizeCode(code) == "" {
		rejected.Message = "Please enter a voucher code."
		return rejected, nil
	}

	v, err := s.validator.Validate(ctx, code, subtotal)
	if err != nil {
		if domain.Kind(err) == nil {
			return Preview{}, err
		}
		rejected.Message = rejectionMessage(err)
		return rejected, nil
	}

	discount := s.validator.CalculateDiscount(v, subtotal)
	return Preview{
		Valid:          true,
		Message:        "Voucher applied.",
		DiscountAmount: discount,
		FinalTotal:     domain.OrderTotal(subtotal, discount),
	}, nil
}

func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrVoucherNotFound):
		return "Voucher code does not exist."
	case errors.Is(err, domain.ErrVoucherInactive):
		return "Voucher is no longer active."
	case errors.Is(err, domain.ErrVoucherOutOfWindow):
		return "Voucher is not valid at this time."
	case errors.Is(err, domain.ErrVoucherExhausted):
		return "Voucher has reached its usage limit."
	case errors.Is(err, domain.ErrVoucherBelowMinimum):
		return "Order total is below the voucher minimum."
	default:
		return "Voucher is not applicable to this order."
	}
}
