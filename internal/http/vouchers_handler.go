package http

import (
	"context"
	"net/http"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/voucher"
)

type VoucherService interface {
	Get(ctx context.Context, id int64) (*domain.Voucher, error)
	List(ctx context.Context, search string, status voucher.StatusFilter) ([]*domain.Voucher, error)
	Summary(ctx context.Context) (voucher.Summary, error)
	Create(ctx context.Context, in voucher.Input) (*domain.Voucher, error)
	Update(ctx context.Context, id int64, in voucher.Input) (*domain.Voucher, error)
	Toggle(ctx context.Context, id int64) (*domain.Voucher, error)
	Delete(ctx context.Context, id int64) error
}

type VouchersHandler struct {
	vouchers VoucherService
}

func NewVouchersHandler(svc VoucherService) *VouchersHandler {
	return &VouchersHandler{vouchers: svc}
}

// GET /api/v1/admin/vouchers?search=&status=
func (h *VouchersHandler) List(w http.ResponseWriter, r *http.Request) {
	status, err := voucher.ParseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	list, err := h.vouchers.List(r.Context(), r.URL.Query().Get("search"), status)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(list))
}

// GET /api/v1/admin/vouchers/summary
func (h *VouchersHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.vouchers.Summary(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// GET /api/v1/admin/vouchers/{voucherID}
func (h *VouchersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "voucherID", "invalid_voucher_id")
	if !ok {
		return
	}

	v, err := h.vouchers.Get(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// POST /api/v1/admin/vouchers
func (h *VouchersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in voucher.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	v, err := h.vouchers.Create(r.Context(), in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, v)
}

// PUT /api/v1/admin/vouchers/{voucherID}
func (h *VouchersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "voucherID", "invalid_voucher_id")
	if !ok {
		return
	}
	var in voucher.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	v, err := h.vouchers.Update(r.Context(), id, in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// POST /api/v1/admin/vouchers/{voucherID}/toggle
func (h *VouchersHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "voucherID", "invalid_voucher_id")
	if !ok {
		return
	}

	v, err := h.vouchers.Toggle(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// DELETE /api/v1/admin/vouchers/{voucherID}
func (h *VouchersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "voucherID", "invalid_voucher_id")
	if !ok {
		return
	}

	if err := h.vouchers.Delete(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
