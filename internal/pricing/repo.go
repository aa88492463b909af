package pricing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pawdx/vetlab-backend/pkg/db/models"
)

// Repository exposes promotion and distance-pricing persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindCouponByCode(ctx context.Context, code string) (*models.Coupon, error)
	CountRedemptionsByUser(ctx context.Context, couponID, userID uuid.UUID) (int64, error)
	// ConsumeCouponUse advances current_uses only while it is still below
	// max_uses. Returns false when the cap was already reached.
	ConsumeCouponUse(ctx context.Context, couponID uuid.UUID) (bool, error)
	CreateRedemption(ctx context.Context, redemption *models.CouponRedemption) error

	ActiveDistanceConfig(ctx context.Context, at time.Time) (*models.DistancePricingConfig, error)

	CreateCoupon(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error)
	CreateOffer(ctx context.Context, offer *models.Offer) (*models.Offer, error)
	CreateDistanceConfig(ctx context.Context, cfg *models.DistancePricingConfig) (*models.DistancePricingConfig, error)
	ListCoupons(ctx context.Context, activeOnly bool) ([]models.Coupon, error)
	ListOffers(ctx context.Context, activeOnly bool) ([]models.Offer, error)
	ListDistanceConfigs(ctx context.Context) ([]models.DistancePricingConfig, error)
	UpdateCoupon(ctx context.Context, coupon *models.Coupon) error
	UpdateOffer(ctx context.Context, offer *models.Offer) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a pricing repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Preload("Offer").
		Where("code = ?", code).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repository) CountRedemptionsByUser(ctx context.Context, couponID, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CouponRedemption{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) ConsumeCouponUse(ctx context.Context, couponID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ? AND current_uses < max_uses", couponID).
		UpdateColumn("current_uses", gorm.Expr("current_uses + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) CreateRedemption(ctx context.Context, redemption *models.CouponRedemption) error {
	return r.db.WithContext(ctx).Create(redemption).Error
}

func (r *repository) ActiveDistanceConfig(ctx context.Context, at time.Time) (*models.DistancePricingConfig, error) {
	var cfg models.DistancePricingConfig
	err := r.db.WithContext(ctx).
		Where("is_active AND effective_from <= ?", at).
		Where("effective_until IS NULL OR effective_until >= ?", at).
		Order("effective_from DESC, created_at DESC").
		First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *repository) CreateCoupon(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	if err := r.db.WithContext(ctx).Create(coupon).Error; err != nil {
		return nil, err
	}
	return coupon, nil
}

func (r *repository) CreateOffer(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	if err := r.db.WithContext(ctx).Create(offer).Error; err != nil {
		return nil, err
	}
	return offer, nil
}

func (r *repository) CreateDistanceConfig(ctx context.Context, cfg *models.DistancePricingConfig) (*models.DistancePricingConfig, error) {
	if err := r.db.WithContext(ctx).Create(cfg).Error; err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *repository) ListCoupons(ctx context.Context, activeOnly bool) ([]models.Coupon, error) {
	query := r.db.WithContext(ctx).Model(&models.Coupon{}).Preload("Offer")
	if activeOnly {
		query = query.Where("is_active")
	}
	var coupons []models.Coupon
	if err := query.Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, err
	}
	return coupons, nil
}

func (r *repository) ListOffers(ctx context.Context, activeOnly bool) ([]models.Offer, error) {
	query := r.db.WithContext(ctx).Model(&models.Offer{})
	if activeOnly {
		query = query.Where("is_active")
	}
	var offers []models.Offer
	if err := query.Order("created_at DESC").Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *repository) ListDistanceConfigs(ctx context.Context) ([]models.DistancePricingConfig, error) {
	var configs []models.DistancePricingConfig
	err := r.db.WithContext(ctx).
		Order("effective_from DESC, created_at DESC").
		Find(&configs).Error
	if err != nil {
		return nil, err
	}
	return configs, nil
}

func (r *repository) UpdateCoupon(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Save(coupon).Error
}

func (r *repository) UpdateOffer(ctx context.Context, offer *models.Offer) error {
	return r.db.WithContext(ctx).Save(offer).Error
}
