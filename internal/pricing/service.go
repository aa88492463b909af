package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawdx/vetlab-backend/pkg/db/models"
	"github.com/pawdx/vetlab-backend/pkg/enums"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

type testLoader interface {
	FindTestsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Test, error)
}

// Service computes price breakdowns and consumes coupons inside booking
// transactions.
type Service interface {
	Quote(ctx context.Context, input QuoteInput) (*Breakdown, error)
	// Redeem burns one coupon use and records the redemption. It must run
	// inside the booking transaction so the booking and the redemption
	// commit or roll back together.
	Redeem(ctx context.Context, tx *gorm.DB, couponID, userID, bookingID uuid.UUID, discount decimal.Decimal) error
	// DistanceCharge prices a collection trip against the config active at
	// the given instant.
	DistanceCharge(ctx context.Context, distanceKM float64, at time.Time) (decimal.Decimal, error)
}

// QuoteInput describes the order being priced. TestIDs may repeat; repeats
// count as quantity.
type QuoteInput struct {
	UserID     uuid.UUID
	TestIDs    []uuid.UUID
	DistanceKM *float64
	CouponCode *string
}

// Line is one priced test with its multiplicity.
type Line struct {
	Test      models.Test
	Quantity  int
	UnitPrice decimal.Decimal
}

// Breakdown is the full price decomposition for an order.
type Breakdown struct {
	Lines          []Line
	Base           decimal.Decimal
	Discount       decimal.Decimal
	DistanceCharge decimal.Decimal
	Final          decimal.Decimal
	CouponID       *uuid.UUID
}

type service struct {
	repo  Repository
	tests testLoader
	now   func() time.Time
}

// NewService builds the pricing service.
func NewService(repo Repository, tests testLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pricing repository required")
	}
	if tests == nil {
		return nil, fmt.Errorf("test loader required")
	}
	return &service{repo: repo, tests: tests, now: time.Now}, nil
}

func (s *service) Quote(ctx context.Context, input QuoteInput) (*Breakdown, error) {
	if len(input.TestIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one test is required")
	}

	lines, err := s.resolveLines(ctx, input.TestIDs)
	if err != nil {
		return nil, err
	}

	base := decimal.Zero
	for _, line := range lines {
		base = base.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	breakdown := &Breakdown{
		Lines:          lines,
		Base:           base,
		Discount:       decimal.Zero,
		DistanceCharge: decimal.Zero,
	}

	if input.CouponCode != nil && strings.TrimSpace(*input.CouponCode) != "" {
		coupon, discount, err := s.applyCoupon(ctx, strings.TrimSpace(*input.CouponCode), input.UserID, lines, base)
		if err != nil {
			return nil, err
		}
		breakdown.Discount = discount
		breakdown.CouponID = &coupon.ID
	}

	if input.DistanceKM != nil {
		charge, err := s.distanceCharge(ctx, *input.DistanceKM, s.now())
		if err != nil {
			return nil, err
		}
		breakdown.DistanceCharge = charge
	}

	discounted := base.Sub(breakdown.Discount)
	if discounted.IsNegative() {
		discounted = decimal.Zero
	}
	breakdown.Final = discounted.Add(breakdown.DistanceCharge)

	return breakdown, nil
}

func (s *service) Redeem(ctx context.Context, tx *gorm.DB, couponID, userID, bookingID uuid.UUID, discount decimal.Decimal) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "redeem requires a transaction")
	}

	txRepo := s.repo.WithTx(tx)

	consumed, err := txRepo.ConsumeCouponUse(ctx, couponID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume coupon use")
	}
	if !consumed {
		return pkgerrors.New(pkgerrors.CodeConflict, "coupon has been fully redeemed")
	}

	redemption := &models.CouponRedemption{
		CouponID:       couponID,
		UserID:         userID,
		BookingID:      bookingID,
		DiscountAmount: discount,
	}
	if err := txRepo.CreateRedemption(ctx, redemption); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record coupon redemption")
	}
	return nil
}

// DistanceCharge implements Service.
func (s *service) DistanceCharge(ctx context.Context, distanceKM float64, at time.Time) (decimal.Decimal, error) {
	return s.distanceCharge(ctx, distanceKM, at)
}

// resolveLines collapses duplicate test ids into quantities, keeping the
// first-seen order, and rejects unknown or inactive tests by naming them.
func (s *service) resolveLines(ctx context.Context, testIDs []uuid.UUID) ([]Line, error) {
	unique := make([]uuid.UUID, 0, len(testIDs))
	quantities := make(map[uuid.UUID]int, len(testIDs))
	for _, id := range testIDs {
		if quantities[id] == 0 {
			unique = append(unique, id)
		}
		quantities[id]++
	}

	tests, err := s.tests.FindTestsByIDs(ctx, unique)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load tests")
	}

	byID := make(map[uuid.UUID]models.Test, len(tests))
	for _, test := range tests {
		byID[test.ID] = test
	}

	var missing []string
	lines := make([]Line, 0, len(unique))
	for _, id := range unique {
		test, ok := byID[id]
		if !ok || !test.IsActive {
			missing = append(missing, id.String())
			continue
		}
		lines = append(lines, Line{
			Test:      test,
			Quantity:  quantities[id],
			UnitPrice: test.EffectivePrice(),
		})
	}

	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unknown or inactive tests: %s", strings.Join(missing, ", ")))
	}
	return lines, nil
}

func (s *service) applyCoupon(ctx context.Context, code string, userID uuid.UUID, lines []Line, base decimal.Decimal) (*models.Coupon, decimal.Decimal, error) {
	coupon, err := s.repo.FindCouponByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("coupon %q does not exist", code))
		}
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load coupon")
	}

	now := s.now()

	if !coupon.IsActive {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("coupon %q has been deactivated", code))
	}
	if now.Before(coupon.StartsAt) {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("coupon %q is not active yet", code))
	}
	if now.After(coupon.EndsAt) {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("coupon %q has expired", code))
	}
	if coupon.CurrentUses >= coupon.MaxUses {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("coupon %q has been fully redeemed", code))
	}

	used, err := s.repo.CountRedemptionsByUser(ctx, coupon.ID, userID)
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count coupon redemptions")
	}
	if used >= int64(coupon.MaxUsesPerUser) {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("you have already used coupon %q the maximum number of times", code))
	}

	offer := coupon.Offer
	if offer == nil {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeInternal, "coupon has no attached offer")
	}
	if !offer.IsActive {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("the offer behind coupon %q has been deactivated", code))
	}
	if now.Before(offer.StartsAt) {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("the offer behind coupon %q is not active yet", code))
	}
	if now.After(offer.EndsAt) {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("the offer behind coupon %q has expired", code))
	}
	if base.LessThan(offer.MinimumOrderValue) {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("order total %s is below the %s minimum for coupon %q", base.StringFixed(2), offer.MinimumOrderValue.StringFixed(2), code))
	}

	// When the offer is restricted, the discount only covers the
	// qualifying lines.
	qualifying := base
	if len(offer.ApplicableTests) > 0 {
		qualifying = decimal.Zero
		for _, line := range lines {
			if offer.ApplicableTests.Contains(line.Test.ID) {
				qualifying = qualifying.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
			}
		}
		if qualifying.IsZero() {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("coupon %q does not apply to any of the selected tests", code))
		}
	}

	var discount decimal.Decimal
	switch offer.DiscountType {
	case enums.DiscountTypePercentage:
		discount = qualifying.Mul(offer.DiscountValue).Div(hundred).Round(2)
	case enums.DiscountTypeFixedAmount:
		discount = offer.DiscountValue
		if discount.GreaterThan(qualifying) {
			discount = qualifying
		}
	default:
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown discount type %q", offer.DiscountType))
	}

	if discount.GreaterThan(base) {
		discount = base
	}

	return coupon, discount, nil
}

// distanceCharge prices the collection trip. No charge up to the free radius;
// past it the base charge plus the per-km rate on the excess distance.
func (s *service) distanceCharge(ctx context.Context, distanceKM float64, at time.Time) (decimal.Decimal, error) {
	if distanceKM < 0 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "distance cannot be negative")
	}

	cfg, err := s.repo.ActiveDistanceConfig(ctx, at)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeDependency, "no active distance pricing configuration")
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load distance pricing")
	}

	if distanceKM <= cfg.MaxFreeDistanceKM {
		return decimal.Zero, nil
	}

	excess := decimal.NewFromFloat(distanceKM - cfg.MaxFreeDistanceKM)
	return cfg.BaseCharge.Add(cfg.ChargePerKM.Mul(excess)).Round(2), nil
}
