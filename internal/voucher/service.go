package voucher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logging"
)

const expiringWindow = 7 * 24 * time.Hour

// Store is the voucher persistence used by staff operations.
type Store interface {
	Lookup
	GetVoucher(ctx context.Context, id int64) (*domain.Voucher, error)
	ListVouchers(ctx context.Context, search string) ([]*domain.Voucher, error)
	CreateVoucher(ctx context.Context, v *domain.Voucher) error
	UpdateVoucher(ctx context.Context, v *domain.Voucher) error
	SetVoucherActive(ctx context.Context, id int64, active bool, at time.Time) error
	DeleteVoucher(ctx context.Context, id int64) error
}

// Input carries the staff-editable voucher fields.
type Input struct {
	Code           string              `json:"code"`
	Description    string              `json:"description"`
	DiscountType   domain.DiscountType `json:"discount_type"`
	DiscountValue  decimal.Decimal     `json:"discount_value"`
	MinOrderAmount *decimal.Decimal    `json:"min_order_amount,omitempty"`
	UsageLimit     *int                `json:"usage_limit,omitempty"`
	StartDate      time.Time           `json:"start_date"`
	EndDate        time.Time           `json:"end_date"`
	IsActive       bool                `json:"is_active"`
}

type StatusFilter string

const (
	FilterAll      StatusFilter = ""
	FilterActive   StatusFilter = "ACTIVE"
	FilterInactive StatusFilter = "INACTIVE"
	FilterExpired  StatusFilter = "EXPIRED"
)

func ParseStatusFilter(s string) (StatusFilter, error) {
	f := StatusFilter(strings.ToUpper(strings.TrimSpace(s)))
	switch f {
	case FilterAll, FilterActive, FilterInactive, FilterExpired:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown voucher status filter %q", domain.ErrInvalidInput, s)
}

type Summary struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Valid    int `json:"valid"`
	Expiring int `json:"expiring"`
	Expired  int `json:"expired"`
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

func (s *Service) Get(ctx context.Context, id int64) (*domain.Voucher, error) {
	return s.store.GetVoucher(ctx, id)
}

// List returns vouchers matching search, then narrowed by status: ACTIVE keeps
// currently usable vouchers, INACTIVE switched-off ones, EXPIRED those past
// their end date.
func (s *Service) List(ctx context.Context, search string, status StatusFilter) ([]*domain.Voucher, error) {
	vouchers, err := s.store.ListVouchers(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}
	if status == FilterAll {
		return vouchers, nil
	}

	now := s.now()
	out := make([]*domain.Voucher, 0, len(vouchers))
	for _, v := range vouchers {
		var keep bool
		switch status {
		case FilterActive:
			keep = v.Valid(now)
		case FilterInactive:
			keep = !v.IsActive
		case FilterExpired:
			keep = v.Expired(now)
		}
		if keep {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	vouchers, err := s.store.ListVouchers(ctx, "")
	if err != nil {
		return Summary{}, err
	}

	now := s.now()
	soon := now.Add(expiringWindow)
	sum := Summary{Total: len(vouchers)}
	for _, v := range vouchers {
		if v.IsActive {
			sum.Active++
		}
		if v.Valid(now) {
			sum.Valid++
			if v.EndDate.Before(soon) {
				sum.Expiring++
			}
		}
		if v.Expired(now) {
			sum.Expired++
		}
	}
	return sum, nil
}

// Create stores a new voucher. Codes are unique ignoring case and the used
// count always starts at zero.
func (s *Service) Create(ctx context.Context, in Input) (*domain.Voucher, error) {
	code := domain.NormalizeCode(in.Code)
	if code == "" {
		return nil, domain.MissingField("code")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	v := in.apply(&domain.Voucher{Code: code})
	v.CreatedAt = s.now().UTC()
	if err := s.store.CreateVoucher(ctx, v); err != nil {
		return nil, err
	}

	logging.FromContext(ctx, s.logger).Info("voucher created",
		zap.Int64("voucher_id", v.ID),
		zap.String("voucher_code", v.Code))
	return v, nil
}

// Update rewrites the editable fields. The code, used count and creation
// time stay as they were.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*domain.Voucher, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	existing, err := s.store.GetVoucher(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.UsageLimit != nil && *in.UsageLimit < existing.UsedCount {
		return nil, fmt.Errorf("%w: usage_limit below used count %d", domain.ErrInvalidInput, existing.UsedCount)
	}

	v := in.apply(existing)
	now := s.now().UTC()
	v.UpdatedAt = &now
	if err := s.store.UpdateVoucher(ctx, v); err != nil {
		return nil, err
	}

	logging.FromContext(ctx, s.logger).Info("voucher updated",
		zap.Int64("voucher_id", v.ID),
		zap.String("voucher_code", v.Code))
	return v, nil
}

// Toggle flips the active flag.
func (s *Service) Toggle(ctx context.Context, id int64) (*domain.Voucher, error) {
	v, err := s.store.GetVoucher(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.store.SetVoucherActive(ctx, id, !v.IsActive, now); err != nil {
		return nil, err
	}
	v.IsActive = !v.IsActive
	v.UpdatedAt = &now
	return v, nil
}

// Delete removes a voucher that was never redeemed.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteVoucher(ctx, id); err != nil {
		return err
	}
	logging.FromContext(ctx, s.logger).Info("voucher deleted", zap.Int64("voucher_id", id))
	return nil
}

func (in Input) validate() error {
	if !in.DiscountType.Valid() {
		return fmt.Errorf("%w: discount_type must be PERCENTAGE or FIXED_AMOUNT", domain.ErrInvalidInput)
	}
	if !in.DiscountValue.IsPositive() {
		return fmt.Errorf("%w: discount_value must be positive", domain.ErrInvalidInput)
	}
	if in.DiscountType == domain.DiscountPercentage && in.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: percentage discount above 100", domain.ErrInvalidInput)
	}
	if in.MinOrderAmount != nil && in.MinOrderAmount.IsNegative() {
		return fmt.Errorf("%w: min_order_amount must not be negative", domain.ErrInvalidInput)
	}
	if in.UsageLimit != nil && *in.UsageLimit < 0 {
		return fmt.Errorf("%w: usage_limit must not be negative", domain.ErrInvalidInput)
	}
	if in.StartDate.IsZero() {
		return domain.MissingField("start_date")
	}
	if in.EndDate.IsZero() {
		return domain.MissingField("end_date")
	}
	if !in.EndDate.After(in.StartDate) {
		return fmt.Errorf("%w: end_date must be after start_date", domain.ErrInvalidInput)
	}
	return nil
}

func (in Input) apply(v *domain.Voucher) *domain.Voucher {
	v.Description = strings.TrimSpace(in.Description)
	v.DiscountType = in.DiscountType
	v.DiscountValue = in.DiscountValue
	v.MinOrderAmount = in.MinOrderAmount
	v.UsageLimit = in.UsageLimit
	v.StartDate = in.StartDate
	v.EndDate = in.EndDate
	v.IsActive = in.IsActive
	return v
}
