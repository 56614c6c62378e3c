package cart

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logging"
	"github.com/fjod/storefront/internal/visit"
)

// Reconcile returns the visit cart with the account's persisted cart merged
// in. Every cart operation of a signed-in visitor merges on first use, so
// calling it again is a no-op.
func (s *Service) Reconcile(ctx context.Context, cc Context) (domain.Cart, error) {
	if !cc.Authenticated() {
		return domain.Cart{}, domain.MissingField("account_id")
	}

	v, err := s.load(ctx, cc)
	if err != nil {
		return domain.Cart{}, err
	}
	return v.Cart.Snapshot(), nil
}

// merge folds the persisted cart into the visit cart.
//
// The merge is a union where the visit cart wins: a persisted line whose
// product is already in the visit cart is ignored, any other persisted line is
// added with its persisted quantity. Quantities are never summed and nothing
// is removed. Persisted lines for products no longer in the catalog are
// skipped.
//
// It runs once per visit and account. When the visit brought lines of its own
// the merged cart is written back, so the account keeps them after the visit
// expires.
func (s *Service) merge(ctx context.Context, cc Context, v *visit.Visit) error {
	lines, err := s.persisted.GetCart(ctx, cc.AccountID)
	if err != nil {
		return fmt.Errorf("load persisted cart: %w", err)
	}

	logger := logging.FromContext(ctx, s.logger)
	visitLines := len(v.Cart.Items)
	for _, line := range lines {
		if v.Cart.Contains(line.ProductID) {
			continue
		}

		product, err := s.catalog.GetByID(ctx, line.ProductID)
		if errors.Is(err, domain.ErrProductNotFound) {
			logger.Warn("skipping persisted line for unknown product",
				zap.String("account_id", cc.AccountID),
				zap.Int64("product_id", line.ProductID))
			continue
		}
		if err != nil {
			return fmt.Errorf("lookup product %d: %w", line.ProductID, err)
		}

		v.Cart.Add(product)
		v.Cart.SetQuantity(product.ID, line.Quantity)
	}

	v.ReconciledFor = cc.AccountID
	if err := s.visits.Save(ctx, cc.VisitID, v); err != nil {
		return fmt.Errorf("save visit: %w", err)
	}

	if visitLines > 0 {
		if err := s.persisted.ReplaceCart(ctx, cc.AccountID, v.Cart.PersistedLines()); err != nil {
			return fmt.Errorf("mirror persisted cart: %w", err)
		}
	}

	logger.Info("cart reconciled",
		zap.String("account_id", cc.AccountID),
		zap.Int("persisted_lines", len(lines)),
		zap.Int("total_items", v.Cart.TotalItems()))
	return nil
}
