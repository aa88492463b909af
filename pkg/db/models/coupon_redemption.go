package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CouponRedemption is the audit row written alongside a booking that consumed
// a coupon.
type CouponRedemption struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CouponID       uuid.UUID       `gorm:"column:coupon_id;type:uuid;not null;index"`
	UserID         uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	BookingID      uuid.UUID       `gorm:"column:booking_id;type:uuid;not null;uniqueIndex"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(10,2);not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}
