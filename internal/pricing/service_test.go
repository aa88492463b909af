package pricing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawdx/vetlab-backend/pkg/db/models"
	"github.com/pawdx/vetlab-backend/pkg/enums"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
	"github.com/pawdx/vetlab-backend/pkg/types"
)

var fixedNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

type stubTestLoader struct {
	tests map[uuid.UUID]models.Test
}

func (s *stubTestLoader) FindTestsByIDs(_ context.Context, ids []uuid.UUID) ([]models.Test, error) {
	var out []models.Test
	for _, id := range ids {
		if test, ok := s.tests[id]; ok {
			out = append(out, test)
		}
	}
	return out, nil
}

type stubPricingRepo struct {
	Repository
	coupon          *models.Coupon
	userRedemptions int64
	distanceCfg     *models.DistancePricingConfig
	consumed        bool
	consumeOK       bool
	redemption      *models.CouponRedemption
}

func (s *stubPricingRepo) WithTx(_ *gorm.DB) Repository { return s }

func (s *stubPricingRepo) FindCouponByCode(_ context.Context, code string) (*models.Coupon, error) {
	if s.coupon == nil || s.coupon.Code != code {
		return nil, gorm.ErrRecordNotFound
	}
	return s.coupon, nil
}

func (s *stubPricingRepo) CountRedemptionsByUser(_ context.Context, _, _ uuid.UUID) (int64, error) {
	return s.userRedemptions, nil
}

func (s *stubPricingRepo) ConsumeCouponUse(_ context.Context, _ uuid.UUID) (bool, error) {
	s.consumed = true
	return s.consumeOK, nil
}

func (s *stubPricingRepo) CreateRedemption(_ context.Context, redemption *models.CouponRedemption) error {
	s.redemption = redemption
	return nil
}

func (s *stubPricingRepo) ActiveDistanceConfig(_ context.Context, _ time.Time) (*models.DistancePricingConfig, error) {
	if s.distanceCfg == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.distanceCfg, nil
}

func price(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func newFixture() (*service, *stubPricingRepo, []uuid.UUID) {
	cbcID := uuid.New()
	lftID := uuid.New()
	loader := &stubTestLoader{tests: map[uuid.UUID]models.Test{
		cbcID: {ID: cbcID, Name: "Complete Blood Count", Price: price("500.00"), IsActive: true},
		lftID: {ID: lftID, Name: "Liver Function Panel", Price: price("900.00"), DiscountedPrice: ptr(price("800.00")), IsActive: true},
	}}
	repo := &stubPricingRepo{consumeOK: true}
	svc := &service{repo: repo, tests: loader, now: func() time.Time { return fixedNow }}
	return svc, repo, []uuid.UUID{cbcID, lftID}
}

func ptr[T any](v T) *T { return &v }

func activeCoupon(code string, offer *models.Offer) *models.Coupon {
	return &models.Coupon{
		ID:             uuid.New(),
		Code:           code,
		OfferID:        offer.ID,
		MaxUses:        10,
		MaxUsesPerUser: 1,
		CurrentUses:    0,
		StartsAt:       fixedNow.Add(-24 * time.Hour),
		EndsAt:         fixedNow.Add(24 * time.Hour),
		IsActive:       true,
		Offer:          offer,
	}
}

func percentOffer(value string) *models.Offer {
	return &models.Offer{
		ID:            uuid.New(),
		Name:          "seasonal",
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: price(value),
		StartsAt:      fixedNow.Add(-24 * time.Hour),
		EndsAt:        fixedNow.Add(24 * time.Hour),
		IsActive:      true,
	}
}

func assertDomainError(t *testing.T, err error, code pkgerrors.Code, fragment string) {
	t.Helper()
	domainErr := pkgerrors.As(err)
	if domainErr == nil {
		t.Fatalf("expected domain error, got %v", err)
	}
	if domainErr.Code() != code {
		t.Fatalf("expected %s, got %s", code, domainErr.Code())
	}
	if !strings.Contains(domainErr.Message(), fragment) {
		t.Fatalf("message %q missing %q", domainErr.Message(), fragment)
	}
}

func assertValidationMessage(t *testing.T, err error, fragment string) {
	t.Helper()
	assertDomainError(t, err, pkgerrors.CodeValidation, fragment)
}

func TestQuoteBaseOnly(t *testing.T) {
	svc, _, testIDs := newFixture()

	breakdown, err := svc.Quote(context.Background(), QuoteInput{UserID: uuid.New(), TestIDs: testIDs})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	// 500 + 800 (discounted from 900)
	if !breakdown.Base.Equal(price("1300.00")) {
		t.Fatalf("base = %s, want 1300.00", breakdown.Base)
	}
	if !breakdown.Final.Equal(price("1300.00")) {
		t.Fatalf("final = %s, want 1300.00", breakdown.Final)
	}
}

func TestQuotePercentageCoupon(t *testing.T) {
	svc, repo, testIDs := newFixture()
	repo.coupon = activeCoupon("SAVE10", percentOffer("10.00"))

	breakdown, err := svc.Quote(context.Background(), QuoteInput{
		UserID:     uuid.New(),
		TestIDs:    testIDs,
		CouponCode: ptr("SAVE10"),
	})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	if !breakdown.Discount.Equal(price("130.00")) {
		t.Fatalf("discount = %s, want 130.00", breakdown.Discount)
	}
	if !breakdown.Final.Equal(price("1170.00")) {
		t.Fatalf("final = %s, want 1170.00", breakdown.Final)
	}
	if breakdown.CouponID == nil || *breakdown.CouponID != repo.coupon.ID {
		t.Fatal("coupon id not attached to breakdown")
	}
}

func TestQuoteDistanceCharge(t *testing.T) {
	svc, repo, testIDs := newFixture()
	repo.distanceCfg = &models.DistancePricingConfig{
		BaseCharge:        price("50.00"),
		ChargePerKM:       price("10.00"),
		MaxFreeDistanceKM: 5,
	}

	breakdown, err := svc.Quote(context.Background(), QuoteInput{
		UserID:     uuid.New(),
		TestIDs:    testIDs,
		DistanceKM: ptr(10.0),
	})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	// 50 + 10 * (10 - 5)
	if !breakdown.DistanceCharge.Equal(price("100.00")) {
		t.Fatalf("distance charge = %s, want 100.00", breakdown.DistanceCharge)
	}
	if !breakdown.Final.Equal(price("1400.00")) {
		t.Fatalf("final = %s, want 1400.00", breakdown.Final)
	}
}

func TestQuoteDistanceWithinFreeRadius(t *testing.T) {
	svc, repo, testIDs := newFixture()
	repo.distanceCfg = &models.DistancePricingConfig{
		BaseCharge:        price("50.00"),
		ChargePerKM:       price("10.00"),
		MaxFreeDistanceKM: 5,
	}

	breakdown, err := svc.Quote(context.Background(), QuoteInput{
		UserID:     uuid.New(),
		TestIDs:    testIDs,
		DistanceKM: ptr(4.5),
	})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if !breakdown.DistanceCharge.IsZero() {
		t.Fatalf("distance charge = %s, want 0", breakdown.DistanceCharge)
	}
}

func TestQuoteDistanceWithoutConfigFails(t *testing.T) {
	svc, _, testIDs := newFixture()

	_, err := svc.Quote(context.Background(), QuoteInput{
		UserID:     uuid.New(),
		TestIDs:    testIDs,
		DistanceKM: ptr(10.0),
	})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected DEPENDENCY_ERROR, got %v", err)
	}
}

func TestQuoteDuplicateIDsBecomeQuantity(t *testing.T) {
	svc, _, testIDs := newFixture()
	doubled := []uuid.UUID{testIDs[0], testIDs[0], testIDs[1]}

	breakdown, err := svc.Quote(context.Background(), QuoteInput{UserID: uuid.New(), TestIDs: doubled})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if len(breakdown.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(breakdown.Lines))
	}
	if breakdown.Lines[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", breakdown.Lines[0].Quantity)
	}
	// 2*500 + 800
	if !breakdown.Base.Equal(price("1800.00")) {
		t.Fatalf("base = %s, want 1800.00", breakdown.Base)
	}
}

func TestQuoteUnknownTestEnumeratesIDs(t *testing.T) {
	svc, _, testIDs := newFixture()
	ghost := uuid.New()

	_, err := svc.Quote(context.Background(), QuoteInput{UserID: uuid.New(), TestIDs: append(testIDs, ghost)})
	assertValidationMessage(t, err, ghost.String())
}

func TestQuoteFixedDiscountCappedAtBase(t *testing.T) {
	svc, repo, testIDs := newFixture()
	offer := percentOffer("0")
	offer.DiscountType = enums.DiscountTypeFixedAmount
	offer.DiscountValue = price("5000.00")
	repo.coupon = activeCoupon("BIGCUT", offer)

	breakdown, err := svc.Quote(context.Background(), QuoteInput{
		UserID:     uuid.New(),
		TestIDs:    testIDs,
		CouponCode: ptr("BIGCUT"),
	})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if !breakdown.Discount.Equal(breakdown.Base) {
		t.Fatalf("discount %s should be capped at base %s", breakdown.Discount, breakdown.Base)
	}
	if !breakdown.Final.IsZero() {
		t.Fatalf("final = %s, want 0", breakdown.Final)
	}
}

func TestQuoteRestrictedOfferAppliesToQualifyingSubtotal(t *testing.T) {
	svc, repo, testIDs := newFixture()
	offer := percentOffer("50.00")
	offer.ApplicableTests = types.UUIDList{testIDs[0]}
	repo.coupon = activeCoupon("HALFCBC", offer)

	breakdown, err := svc.Quote(context.Background(), QuoteInput{
		UserID:     uuid.New(),
		TestIDs:    testIDs,
		CouponCode: ptr("HALFCBC"),
	})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	// 50% of the 500 qualifying line only.
	if !breakdown.Discount.Equal(price("250.00")) {
		t.Fatalf("discount = %s, want 250.00", breakdown.Discount)
	}
}

func TestQuoteCouponRejections(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(repo *stubPricingRepo, coupon *models.Coupon)
		code     pkgerrors.Code
		fragment string
	}{
		{
			name:     "unknown code",
			mutate:   func(repo *stubPricingRepo, _ *models.Coupon) { repo.coupon = nil },
			code:     pkgerrors.CodeValidation,
			fragment: "does not exist",
		},
		{
			name:     "deactivated",
			mutate:   func(_ *stubPricingRepo, coupon *models.Coupon) { coupon.IsActive = false },
			code:     pkgerrors.CodeValidation,
			fragment: "deactivated",
		},
		{
			name:     "not yet active",
			mutate:   func(_ *stubPricingRepo, coupon *models.Coupon) { coupon.StartsAt = fixedNow.Add(time.Hour) },
			code:     pkgerrors.CodeValidation,
			fragment: "not active yet",
		},
		{
			name:     "expired",
			mutate:   func(_ *stubPricingRepo, coupon *models.Coupon) { coupon.EndsAt = fixedNow.Add(-time.Hour) },
			code:     pkgerrors.CodeValidation,
			fragment: "expired",
		},
		{
			name:     "exhausted",
			mutate:   func(_ *stubPricingRepo, coupon *models.Coupon) { coupon.CurrentUses = coupon.MaxUses },
			code:     pkgerrors.CodeConflict,
			fragment: "fully redeemed",
		},
		{
			name:     "per-user limit",
			mutate:   func(repo *stubPricingRepo, _ *models.Coupon) { repo.userRedemptions = 1 },
			code:     pkgerrors.CodeConflict,
			fragment: "maximum number of times",
		},
		{
			name: "offer expired",
			mutate: func(_ *stubPricingRepo, coupon *models.Coupon) {
				coupon.Offer.EndsAt = fixedNow.Add(-time.Hour)
			},
			code:     pkgerrors.CodeValidation,
			fragment: "offer",
		},
		{
			name: "below minimum order value",
			mutate: func(_ *stubPricingRepo, coupon *models.Coupon) {
				coupon.Offer.MinimumOrderValue = price("99999.00")
			},
			code:     pkgerrors.CodeValidation,
			fragment: "below",
		},
		{
			name: "not applicable to tests",
			mutate: func(_ *stubPricingRepo, coupon *models.Coupon) {
				coupon.Offer.ApplicableTests = types.UUIDList{uuid.New()}
			},
			code:     pkgerrors.CodeValidation,
			fragment: "does not apply",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo, testIDs := newFixture()
			repo.coupon = activeCoupon("PROMO", percentOffer("10.00"))
			tc.mutate(repo, repo.coupon)

			_, err := svc.Quote(context.Background(), QuoteInput{
				UserID:     uuid.New(),
				TestIDs:    testIDs,
				CouponCode: ptr("PROMO"),
			})
			assertDomainError(t, err, tc.code, tc.fragment)
		})
	}
}

func TestQuoteExhaustedCouponConflictsOnSecondAttempt(t *testing.T) {
	svc, repo, testIDs := newFixture()
	repo.coupon = activeCoupon("ONCE", percentOffer("10.00"))
	repo.coupon.MaxUses = 1
	repo.coupon.CurrentUses = 1

	_, err := svc.Quote(context.Background(), QuoteInput{
		UserID:     uuid.New(),
		TestIDs:    testIDs,
		CouponCode: ptr("ONCE"),
	})
	assertDomainError(t, err, pkgerrors.CodeConflict, "fully redeemed")
}

func TestRedeemExhaustedCouponConflicts(t *testing.T) {
	svc, repo, _ := newFixture()
	repo.consumeOK = false

	err := svc.Redeem(context.Background(), &gorm.DB{}, uuid.New(), uuid.New(), uuid.New(), price("100.00"))
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
	if !repo.consumed {
		t.Fatal("expected consume attempt")
	}
}

func TestRedeemRecordsRedemption(t *testing.T) {
	svc, repo, _ := newFixture()
	bookingID := uuid.New()

	if err := svc.Redeem(context.Background(), &gorm.DB{}, uuid.New(), uuid.New(), bookingID, price("130.00")); err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if repo.redemption == nil {
		t.Fatal("redemption not recorded")
	}
	if repo.redemption.BookingID != bookingID {
		t.Fatal("redemption booking mismatch")
	}
	if !repo.redemption.DiscountAmount.Equal(price("130.00")) {
		t.Fatalf("redemption amount = %s", repo.redemption.DiscountAmount)
	}
}
