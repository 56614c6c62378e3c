package visit

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

// Visit is the per-browsing-session state: the ephemeral cart and the account
// it was last reconciled with.
type Visit struct {
	Cart          domain.Cart `json:"cart"`
	ReconciledFor string      `json:"reconciled_for,omitempty"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type Store interface {
	Get(ctx context.Context, visitID string) (*Visit, error)
	Save(ctx context.Context, visitID string, v *Visit) error
	Delete(ctx context.Context, visitID string) error
}

var ErrVisitNotFound = errors.New("visit not found")
