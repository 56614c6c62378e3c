package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/identity"
	"github.com/fjod/storefront/internal/orders"
)

type OrdersService interface {
	Transition(ctx context.Context, id int64, next domain.OrderStatus, actorID string) (*domain.Order, error)
	Get(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context, status *domain.OrderStatus, limit, offset int) ([]*domain.Order, error)
	ListByEmail(ctx context.Context, email string) ([]*domain.Order, error)
	Stats(ctx context.Context) (orders.Stats, error)
}

type OrderHistory interface {
	History(ctx context.Context, orderID int64) ([]domain.OrderEvent, error)
}

type OrdersHandler struct {
	orders  OrdersService
	history OrderHistory
}

// NewOrdersHandler builds the orders endpoints. history may be nil when no
// audit store is configured; the history endpoint then answers 503.
func NewOrdersHandler(svc OrdersService, history OrderHistory) *OrdersHandler {
	return &OrdersHandler{orders: svc, history: history}
}

type UpdateStatusRequestDTO struct {
	NewStatus string `json:"new_status"`
}

// POST /api/v1/orders/{orderID}/status
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "orderID", "invalid_order_id")
	if !ok {
		return
	}

	var req UpdateStatusRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	next, valid := domain.ParseOrderStatus(req.NewStatus)
	if !valid {
		handleError(w, r, fmt.Errorf("%w: unknown order status %q", domain.ErrInvalidInput, req.NewStatus))
		return
	}

	order, err := h.orders.Transition(r.Context(), id, next, actorID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// GET /api/v1/me/orders
func (h *OrdersHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	list, err := h.orders.ListByEmail(r.Context(), id.Email)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(list))
}

// GET /api/v1/admin/orders?status=&limit=&offset=
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var status *domain.OrderStatus
	if raw := q.Get("status"); raw != "" {
		s, ok := domain.ParseOrderStatus(raw)
		if !ok {
			handleError(w, r, fmt.Errorf("%w: unknown order status %q", domain.ErrInvalidInput, raw))
			return
		}
		status = &s
	}

	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset")
	if !ok {
		return
	}

	list, err := h.orders.List(r.Context(), status, limit, offset)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(list))
}

// GET /api/v1/admin/orders/{orderID}
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "orderID", "invalid_order_id")
	if !ok {
		return
	}

	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// GET /api/v1/admin/orders/stats
func (h *OrdersHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orders.Stats(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// GET /api/v1/admin/orders/{orderID}/history
func (h *OrdersHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "orderID", "invalid_order_id")
	if !ok {
		return
	}
	if h.history == nil {
		respondError(w, r, http.StatusServiceUnavailable, "history_unavailable", "order history is not configured")
		return
	}

	if _, err := h.orders.Get(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}

	events, err := h.history.History(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, events)
}

func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		respondError(w, r, http.StatusBadRequest, "invalid_"+name, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
