package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logging"
	"github.com/fjod/storefront/internal/repository"
)

type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.TxStore) error) error
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context, f repository.OrderFilter) ([]*domain.Order, error)
	CountOrdersByStatus(ctx context.Context) (map[domain.OrderStatus]int, error)
}

type Stats struct {
	Total    int                        `json:"total"`
	ByStatus map[domain.OrderStatus]int `json:"by_status"`
}

type Service struct {
	store  Store
	now    func() time.Time
	logger *zap.Logger
}

func NewService(store Store, now func() time.Time, logger *zap.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, now: now, logger: logger}
}

// Transition moves an order to next when the lifecycle allows it. The order
// row stays locked from the check to the write, and an order.status.changed
// event is recorded with the change.
func (s *Service) Transition(ctx context.Context, id int64, next domain.OrderStatus, actorID string) (*domain.Order, error) {
	var order *domain.Order
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.TxStore) error {
		o, err := tx.LockOrder(ctx, id)
		if err != nil {
			return err
		}

		current := o.Status
		if !current.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, current, next)
		}

		now := s.now().UTC()
		if err := tx.UpdateOrderStatus(ctx, id, current, next, now); err != nil {
			return err
		}

		err = tx.AppendOutboxEvent(ctx, domain.OrderEvent{
			ID:             uuid.NewString(),
			Type:           domain.EventOrderStatusChanged,
			OrderID:        id,
			PreviousStatus: current,
			CurrentStatus:  next,
			ActorID:        actorID,
			OccurredAt:     now,
		})
		if err != nil {
			return err
		}

		o.Status = next
		o.UpdatedAt = now
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx, s.logger).Info("order status changed",
		zap.Int64("order_id", id),
		zap.String("status", next.String()),
		zap.String("actor_id", actorID))
	return order, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Order, error) {
	return s.store.GetOrder(ctx, id)
}

// List returns orders newest first, optionally only those in status.
func (s *Service) List(ctx context.Context, status *domain.OrderStatus, limit, offset int) ([]*domain.Order, error) {
	return s.store.ListOrders(ctx, repository.OrderFilter{
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
}

// ListByEmail returns the orders placed with email, newest first.
func (s *Service) ListByEmail(ctx context.Context, email string) ([]*domain.Order, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.MissingField("email")
	}
	return s.store.ListOrders(ctx, repository.OrderFilter{Email: email})
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	counts, err := s.store.CountOrdersByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{ByStatus: counts}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}
