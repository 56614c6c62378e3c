package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
)

const IdempotencyHeader = "Idempotency-Key"

type CheckoutService interface {
	PlaceOrder(ctx context.Context, cc cart.Context, req checkout.Request) (*domain.Order, error)
	PreviewVoucher(ctx context.Context, cc cart.Context, code string) (checkout.Preview, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
}

func NewCheckoutHandler(svc CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: svc}
}

type PreviewVoucherRequestDTO struct {
	Code string `json:"code"`
}

type PlaceOrderResponseDTO struct {
	OrderID int64 `json:"order_id"`
}

// POST /api/v1/checkout/preview-voucher
func (h *CheckoutHandler) PreviewVoucher(w http.ResponseWriter, r *http.Request) {
	var req PreviewVoucherRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	preview, err := h.checkout.PreviewVoucher(r.Context(), cartContext(r), req.Code)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, preview)
}

// POST /api/v1/checkout
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req checkout.Request
	if !decodeJSON(w, r, &req) {
		return
	}
	req.IdempotencyKey = strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if len(req.IdempotencyKey) > 100 {
		respondError(w, r, http.StatusBadRequest, "invalid_idempotency_key", "idempotency key must be at most 100 characters")
		return
	}

	order, err := h.checkout.PlaceOrder(r.Context(), cartContext(r), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, PlaceOrderResponseDTO{OrderID: order.ID})
}
