package identity

import (
	"context"
	"strings"
)

const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
)

// Identity is the authenticated principal behind a request.
type Identity struct {
	AccountID string
	Email     string
	Role      string
}

func (i *Identity) IsStaff() bool {
	return i != nil && strings.EqualFold(i.Role, RoleStaff)
}

type contextKey string

const identityContextKey contextKey = "github.com/fjod/storefront/internal/identity"

func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// FromContext returns the identity stored by the middleware, if any.
func FromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}
