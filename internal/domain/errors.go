package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the core wraps exactly one of these,
// anything else is treated as an internal failure.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrState      = errors.New("invalid state")
	ErrConflict   = errors.New("conflict")
)

var (
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	ErrOrderNotFound   = fmt.Errorf("order %w", ErrNotFound)
	ErrVoucherNotFound = fmt.Errorf("voucher %w", ErrNotFound)

	ErrMissingField = fmt.Errorf("%w: missing required field", ErrValidation)
	ErrInvalidInput = fmt.Errorf("%w: invalid input", ErrValidation)

	ErrEmptyCart         = fmt.Errorf("%w: cart is empty", ErrState)
	ErrInvalidTransition = fmt.Errorf("%w: status transition not allowed", ErrState)

	ErrVoucherInactive     = fmt.Errorf("%w: voucher is inactive", ErrConflict)
	ErrVoucherOutOfWindow  = fmt.Errorf("%w: voucher is not valid at this time", ErrConflict)
	ErrVoucherExhausted    = fmt.Errorf("%w: voucher usage limit reached", ErrConflict)
	ErrVoucherBelowMinimum = fmt.Errorf("%w: order subtotal below voucher minimum", ErrConflict)
	ErrVoucherCodeTaken    = fmt.Errorf("%w: voucher code already exists", ErrConflict)
	ErrVoucherInUse        = fmt.Errorf("%w: voucher has already been used", ErrConflict)

	ErrIdempotencyKeyReused = fmt.Errorf("%w: idempotency key belongs to another purchaser", ErrConflict)
)

// MissingField reports which required field was blank.
func MissingField(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, name)
}

// Kind returns the taxonomy sentinel err belongs to, or nil for internal errors.
func Kind(err error) error {
	for _, k := range []error{ErrValidation, ErrNotFound, ErrState, ErrConflict} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
