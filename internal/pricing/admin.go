package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgdb "github.com/pawdx/vetlab-backend/pkg/db"
	"github.com/pawdx/vetlab-backend/pkg/db/models"
	"github.com/pawdx/vetlab-backend/pkg/enums"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
	"github.com/pawdx/vetlab-backend/pkg/types"
)

// Admin manages the promotional surface: offers, coupon codes and distance
// pricing configurations.
type Admin interface {
	CreateOffer(ctx context.Context, input OfferInput) (*models.Offer, error)
	ListOffers(ctx context.Context, activeOnly bool) ([]models.Offer, error)
	UpdateOffer(ctx context.Context, id uuid.UUID, input OfferUpdateInput) (*models.Offer, error)

	CreateCoupon(ctx context.Context, input CouponInput) (*models.Coupon, error)
	ListCoupons(ctx context.Context, activeOnly bool) ([]models.Coupon, error)
	UpdateCoupon(ctx context.Context, id uuid.UUID, input CouponUpdateInput) (*models.Coupon, error)

	CreateDistanceConfig(ctx context.Context, input DistanceConfigInput) (*models.DistancePricingConfig, error)
	ListDistanceConfigs(ctx context.Context) ([]models.DistancePricingConfig, error)
}

// OfferInput carries the fields for a new offer.
type OfferInput struct {
	Name              string
	Description       *string
	DiscountType      string
	DiscountValue     decimal.Decimal
	ApplicableTests   []uuid.UUID
	MinimumOrderValue decimal.Decimal
	StartsAt          time.Time
	EndsAt            time.Time
}

// OfferUpdateInput carries optional updates; nil fields are left unchanged.
type OfferUpdateInput struct {
	Name          *string
	Description   *string
	DiscountValue *decimal.Decimal
	EndsAt        *time.Time
	IsActive      *bool
}

// CouponInput carries the fields for a new coupon code.
type CouponInput struct {
	Code           string
	OfferID        uuid.UUID
	MaxUses        int
	MaxUsesPerUser int
	StartsAt       time.Time
	EndsAt         time.Time
}

// CouponUpdateInput carries optional updates; nil fields are left unchanged.
type CouponUpdateInput struct {
	MaxUses        *int
	MaxUsesPerUser *int
	EndsAt         *time.Time
	IsActive       *bool
}

// DistanceConfigInput carries the fields for a new distance pricing window.
type DistanceConfigInput struct {
	Name              string
	BaseCharge        decimal.Decimal
	ChargePerKM       decimal.Decimal
	MaxFreeDistanceKM float64
	EffectiveFrom     time.Time
	EffectiveUntil    *time.Time
}

type admin struct {
	repo Repository
}

// NewAdmin builds the promotional admin service.
func NewAdmin(repo Repository) (Admin, error) {
	if repo == nil {
		return nil, fmt.Errorf("pricing repository required")
	}
	return &admin{repo: repo}, nil
}

func (a *admin) CreateOffer(ctx context.Context, input OfferInput) (*models.Offer, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer name is required")
	}
	discountType, err := enums.ParseDiscountType(input.DiscountType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
	}
	if !input.DiscountValue.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}
	if discountType == enums.DiscountTypePercentage && input.DiscountValue.GreaterThan(hundred) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}
	if input.MinimumOrderValue.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum order value cannot be negative")
	}
	if !input.EndsAt.After(input.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer window must end after it starts")
	}

	offer := &models.Offer{
		Name:              strings.TrimSpace(input.Name),
		Description:       input.Description,
		DiscountType:      discountType,
		DiscountValue:     input.DiscountValue,
		ApplicableTests:   types.UUIDList(input.ApplicableTests),
		MinimumOrderValue: input.MinimumOrderValue,
		StartsAt:          input.StartsAt,
		EndsAt:            input.EndsAt,
		IsActive:          true,
	}
	created, err := a.repo.CreateOffer(ctx, offer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create offer")
	}
	return created, nil
}

func (a *admin) ListOffers(ctx context.Context, activeOnly bool) ([]models.Offer, error) {
	offers, err := a.repo.ListOffers(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list offers")
	}
	return offers, nil
}

func (a *admin) UpdateOffer(ctx context.Context, id uuid.UUID, input OfferUpdateInput) (*models.Offer, error) {
	offers, err := a.repo.ListOffers(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load offers")
	}
	var offer *models.Offer
	for i := range offers {
		if offers[i].ID == id {
			offer = &offers[i]
			break
		}
	}
	if offer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
	}

	if input.Name != nil {
		offer.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		offer.Description = input.Description
	}
	if input.DiscountValue != nil {
		if !input.DiscountValue.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
		}
		offer.DiscountValue = *input.DiscountValue
	}
	if input.EndsAt != nil {
		offer.EndsAt = *input.EndsAt
	}
	if input.IsActive != nil {
		offer.IsActive = *input.IsActive
	}

	if err := a.repo.UpdateOffer(ctx, offer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update offer")
	}
	return offer, nil
}

func (a *admin) CreateCoupon(ctx context.Context, input CouponInput) (*models.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if input.OfferID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer id is required")
	}
	if input.MaxUses <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max uses must be positive")
	}
	if input.MaxUsesPerUser <= 0 {
		input.MaxUsesPerUser = 1
	}
	if !input.EndsAt.After(input.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon window must end after it starts")
	}

	coupon := &models.Coupon{
		Code:           code,
		OfferID:        input.OfferID,
		MaxUses:        input.MaxUses,
		MaxUsesPerUser: input.MaxUsesPerUser,
		StartsAt:       input.StartsAt,
		EndsAt:         input.EndsAt,
		IsActive:       true,
	}
	created, err := a.repo.CreateCoupon(ctx, coupon)
	if err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("coupon code %q already exists", code))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create coupon")
	}
	return created, nil
}

func (a *admin) ListCoupons(ctx context.Context, activeOnly bool) ([]models.Coupon, error) {
	coupons, err := a.repo.ListCoupons(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list coupons")
	}
	return coupons, nil
}

func (a *admin) UpdateCoupon(ctx context.Context, id uuid.UUID, input CouponUpdateInput) (*models.Coupon, error) {
	coupons, err := a.repo.ListCoupons(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load coupons")
	}
	var coupon *models.Coupon
	for i := range coupons {
		if coupons[i].ID == id {
			coupon = &coupons[i]
			break
		}
	}
	if coupon == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}

	if input.MaxUses != nil {
		if *input.MaxUses < coupon.CurrentUses {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max uses cannot drop below redeemed count")
		}
		coupon.MaxUses = *input.MaxUses
	}
	if input.MaxUsesPerUser != nil {
		if *input.MaxUsesPerUser <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max uses per user must be positive")
		}
		coupon.MaxUsesPerUser = *input.MaxUsesPerUser
	}
	if input.EndsAt != nil {
		coupon.EndsAt = *input.EndsAt
	}
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}

	if err := a.repo.UpdateCoupon(ctx, coupon); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update coupon")
	}
	return coupon, nil
}

func (a *admin) CreateDistanceConfig(ctx context.Context, input DistanceConfigInput) (*models.DistancePricingConfig, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "config name is required")
	}
	if input.BaseCharge.IsNegative() || input.ChargePerKM.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charges cannot be negative")
	}
	if input.MaxFreeDistanceKM < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "free distance cannot be negative")
	}
	if input.EffectiveUntil != nil && !input.EffectiveUntil.After(input.EffectiveFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "effective window must end after it starts")
	}

	cfg := &models.DistancePricingConfig{
		Name:              strings.TrimSpace(input.Name),
		BaseCharge:        input.BaseCharge,
		ChargePerKM:       input.ChargePerKM,
		MaxFreeDistanceKM: input.MaxFreeDistanceKM,
		EffectiveFrom:     input.EffectiveFrom,
		EffectiveUntil:    input.EffectiveUntil,
		IsActive:          true,
	}
	created, err := a.repo.CreateDistanceConfig(ctx, cfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create distance config")
	}
	return created, nil
}

func (a *admin) ListDistanceConfigs(ctx context.Context) ([]models.DistancePricingConfig, error) {
	configs, err := a.repo.ListDistanceConfigs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list distance configs")
	}
	return configs, nil
}
