package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/domain"
)

type CartService interface {
	Get(ctx context.Context, cc cart.Context) (domain.Cart, error)
	Add(ctx context.Context, cc cart.Context, productID int64) (domain.Cart, error)
	SetQuantity(ctx context.Context, cc cart.Context, productID int64, n int) (domain.Cart, error)
	Remove(ctx context.Context, cc cart.Context, productID int64) (domain.Cart, error)
	Clear(ctx context.Context, cc cart.Context) error
	Reconcile(ctx context.Context, cc cart.Context) (domain.Cart, error)
}

type CartHandler struct {
	carts CartService
}

func NewCartHandler(carts CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type CartResponseDTO struct {
	Items      []domain.LineItem `json:"items"`
	TotalItems int               `json:"total_items"`
	TotalPrice decimal.Decimal   `json:"total_price"`
}

func toCartResponse(c domain.Cart) CartResponseDTO {
	items := c.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	return CartResponseDTO{
		Items:      items,
		TotalItems: c.TotalItems(),
		TotalPrice: c.TotalPrice(),
	}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), cartContext(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(c))
}

// POST /api/v1/cart/add/{productID}
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	c, err := h.carts.Add(r.Context(), cartContext(r), productID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(c))
}

// POST /api/v1/cart/update/{productID}?quantity=n
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_quantity", "quantity must be an integer")
		return
	}

	c, err := h.carts.SetQuantity(r.Context(), cartContext(r), productID, quantity)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(c))
}

// POST /api/v1/cart/remove/{productID}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	c, err := h.carts.Remove(r.Context(), cartContext(r), productID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(c))
}

// POST /api/v1/cart/clear
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), cartContext(r)); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(domain.Cart{}))
}

// POST /api/v1/cart/reconcile
func (h *CartHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Reconcile(r.Context(), cartContext(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(c))
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	return int64Param(w, r, "productID", "invalid_product_id")
}

func int64Param(w http.ResponseWriter, r *http.Request, name, code string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, r, http.StatusBadRequest, code, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}
