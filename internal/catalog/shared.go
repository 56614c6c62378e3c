package catalog

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/fjod/storefront/internal/domain"
)

// SharedLookup collapses concurrent lookups of the same book into one query.
type SharedLookup struct {
	next Lookup
	sfg  singleflight.Group
}

func NewSharedLookup(next Lookup) *SharedLookup {
	return &SharedLookup{next: next}
}

// GetByID joins an in-flight lookup of the same book. The shared query does
// not inherit the cancellation of whichever caller started it.
func (s *SharedLookup) GetByID(ctx context.Context, id int64) (domain.Product, error) {
	v, err, _ := s.sfg.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		return s.next.GetByID(context.WithoutCancel(ctx), id)
	})
	if err != nil {
		return domain.Product{}, err
	}
	return v.(domain.Product), nil
}
