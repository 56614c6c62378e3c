package cart

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logging"
	"github.com/fjod/storefront/internal/visit"
)

// Context identifies whose cart a call operates on. It is built per request
// and passed explicitly; AccountID and Email are empty for anonymous visitors.
type Context struct {
	VisitID   string
	AccountID string
	Email     string
}

func (c Context) Authenticated() bool {
	return c.AccountID != ""
}

// PersistedCarts is the durable per-account mirror of the visit cart.
type PersistedCarts interface {
	GetCart(ctx context.Context, accountID string) ([]domain.PersistedLine, error)
	ReplaceCart(ctx context.Context, accountID string, lines []domain.PersistedLine) error
	DeleteCart(ctx context.Context, accountID string) error
}

type Service struct {
	visits    visit.Store
	catalog   catalog.Lookup
	persisted PersistedCarts
	logger    *zap.Logger
}

func NewService(visits visit.Store, catalog catalog.Lookup, persisted PersistedCarts, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		visits:    visits,
		catalog:   catalog,
		persisted: persisted,
		logger:    logger,
	}
}

// Get returns a snapshot of the visit cart. A visit seen for the first time
// has an empty cart.
func (s *Service) Get(ctx context.Context, cc Context) (domain.Cart, error) {
	v, err := s.load(ctx, cc)
	if err != nil {
		return domain.Cart{}, err
	}
	return v.Cart.Snapshot(), nil
}

// Add puts one more unit of the product in the cart.
func (s *Service) Add(ctx context.Context, cc Context, productID int64) (domain.Cart, error) {
	product, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		return domain.Cart{}, err
	}

	return s.mutate(ctx, cc, func(c *domain.Cart) {
		c.Add(product)
	})
}

// SetQuantity overwrites the quantity of a line; n <= 0 removes it.
func (s *Service) SetQuantity(ctx context.Context, cc Context, productID int64, n int) (domain.Cart, error) {
	return s.mutate(ctx, cc, func(c *domain.Cart) {
		c.SetQuantity(productID, n)
	})
}

func (s *Service) Remove(ctx context.Context, cc Context, productID int64) (domain.Cart, error) {
	return s.mutate(ctx, cc, func(c *domain.Cart) {
		c.Remove(productID)
	})
}

// Clear empties the visit cart and drops the persisted cart of the account.
func (s *Service) Clear(ctx context.Context, cc Context) error {
	_, err := s.mutate(ctx, cc, func(c *domain.Cart) {
		c.Clear()
	})
	return err
}

// Retire empties the visit cart after a successful checkout. The persisted
// cart is removed by the checkout transaction itself.
func (s *Service) Retire(ctx context.Context, cc Context) error {
	v, err := s.loadVisit(ctx, cc)
	if err != nil {
		return err
	}

	v.Cart.Clear()
	if err := s.visits.Save(ctx, cc.VisitID, v); err != nil {
		return fmt.Errorf("save visit: %w", err)
	}
	return nil
}

// load returns the visit with the account's persisted cart merged in. The
// merge runs the first time an account is seen on the visit, before anything
// reads or overwrites the persisted cart.
func (s *Service) load(ctx context.Context, cc Context) (*visit.Visit, error) {
	v, err := s.loadVisit(ctx, cc)
	if err != nil {
		return nil, err
	}
	if cc.Authenticated() && v.ReconciledFor != cc.AccountID {
		if err := s.merge(ctx, cc, v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (s *Service) loadVisit(ctx context.Context, cc Context) (*visit.Visit, error) {
	if cc.VisitID == "" {
		return nil, domain.MissingField("visit_id")
	}

	v, err := s.visits.Get(ctx, cc.VisitID)
	if errors.Is(err, visit.ErrVisitNotFound) {
		return &visit.Visit{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load visit: %w", err)
	}
	return v, nil
}

// mutate applies fn to the visit cart, saves it and, for an authenticated
// visitor, mirrors the result into the persisted cart.
func (s *Service) mutate(ctx context.Context, cc Context, fn func(c *domain.Cart)) (domain.Cart, error) {
	v, err := s.load(ctx, cc)
	if err != nil {
		return domain.Cart{}, err
	}

	fn(&v.Cart)

	if err := s.visits.Save(ctx, cc.VisitID, v); err != nil {
		return domain.Cart{}, fmt.Errorf("save visit: %w", err)
	}

	if cc.Authenticated() {
		if err := s.persisted.ReplaceCart(ctx, cc.AccountID, v.Cart.PersistedLines()); err != nil {
			logging.FromContext(ctx, s.logger).Error("mirror persisted cart failed",
				zap.String("account_id", cc.AccountID),
				zap.Error(err))
			return domain.Cart{}, fmt.Errorf("mirror persisted cart: %w", err)
		}
	}

	return v.Cart.Snapshot(), nil
}
