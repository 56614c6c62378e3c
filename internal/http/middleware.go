package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/identity"
	"github.com/fjod/storefront/internal/logging"
)

const (
	VisitHeader = "X-Visit-ID"
	VisitCookie = "visit_id"
)

type visitKey struct{}

// RequestLogger stores a logger tagged with the request id in the request
// context and logs one line per completed request.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r.WithContext(logging.WithLogger(r.Context(), reqLogger)))

			reqLogger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

// VisitMiddleware resolves the visit id from the X-Visit-ID header or the
// visit_id cookie, minting a new one when neither is present. The id is
// echoed back in both places.
func VisitMiddleware(secureCookies bool, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			visitID := strings.TrimSpace(r.Header.Get(VisitHeader))
			if visitID == "" {
				if c, err := r.Cookie(VisitCookie); err == nil {
					visitID = strings.TrimSpace(c.Value)
				}
			}
			if _, err := uuid.Parse(visitID); err != nil {
				visitID = uuid.NewString()
			}

			http.SetCookie(w, &http.Cookie{
				Name:     VisitCookie,
				Value:    visitID,
				Path:     "/",
				MaxAge:   int(ttl.Seconds()),
				HttpOnly: true,
				Secure:   secureCookies,
				SameSite: http.SameSiteLaxMode,
			})
			w.Header().Set(VisitHeader, visitID)

			ctx := context.WithValue(r.Context(), visitKey{}, visitID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// cartContext builds the explicit cart context for the current request.
func cartContext(r *http.Request) cart.Context {
	cc := cart.Context{}
	if visitID, ok := r.Context().Value(visitKey{}).(string); ok {
		cc.VisitID = visitID
	}
	if id, ok := identity.FromContext(r.Context()); ok {
		cc.AccountID = id.AccountID
		cc.Email = id.Email
	}
	return cc
}

func actorID(r *http.Request) string {
	if id, ok := identity.FromContext(r.Context()); ok {
		return id.AccountID
	}
	return ""
}
