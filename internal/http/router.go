package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/identity"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	SecureCookies      bool
	VisitTTL           time.Duration
}

type Handlers struct {
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Vouchers *VouchersHandler
}

func NewRouter(cfg RouterConfig, h Handlers, resolver identity.TokenResolver, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxRequestBodySize <= 0 {
		cfg.MaxRequestBodySize = 1 << 20
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(identity.Authenticate(resolver))

		r.Group(func(r chi.Router) {
			r.Use(VisitMiddleware(cfg.SecureCookies, cfg.VisitTTL))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Post("/add/{productID}", h.Cart.AddItem)
				r.Post("/update/{productID}", h.Cart.UpdateQuantity)
				r.Post("/remove/{productID}", h.Cart.RemoveItem)
				r.Post("/clear", h.Cart.ClearCart)
				r.With(identity.RequireAuthenticated).Post("/reconcile", h.Cart.Reconcile)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", h.Checkout.PlaceOrder)
				r.Post("/preview-voucher", h.Checkout.PreviewVoucher)
			})
		})

		r.With(identity.RequireAuthenticated).Get("/me/orders", h.Orders.ListMine)
		r.With(identity.RequireStaff).Post("/orders/{orderID}/status", h.Orders.UpdateStatus)

		r.Route("/admin", func(r chi.Router) {
			r.Use(identity.RequireStaff)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.Orders.List)
				r.Get("/stats", h.Orders.Stats)
				r.Get("/{orderID}", h.Orders.Get)
				r.Get("/{orderID}/history", h.Orders.History)
			})

			r.Route("/vouchers", func(r chi.Router) {
				r.Get("/", h.Vouchers.List)
				r.Post("/", h.Vouchers.Create)
				r.Get("/summary", h.Vouchers.Summary)
				r.Get("/{voucherID}", h.Vouchers.Get)
				r.Put("/{voucherID}", h.Vouchers.Update)
				r.Delete("/{voucherID}", h.Vouchers.Delete)
				r.Post("/{voucherID}/toggle", h.Vouchers.Toggle)
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
