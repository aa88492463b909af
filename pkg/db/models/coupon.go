package models

import (
	"time"

	"github.com/google/uuid"
)

// Coupon is a redeemable code bound to an offer. CurrentUses is only ever
// advanced through a conditional UPDATE guarded by MaxUses.
type Coupon struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code           string    `gorm:"column:code;not null;uniqueIndex"`
	OfferID        uuid.UUID `gorm:"column:offer_id;type:uuid;not null"`
	MaxUses        int       `gorm:"column:max_uses;not null"`
	MaxUsesPerUser int       `gorm:"column:max_uses_per_user;not null;default:1"`
	CurrentUses    int       `gorm:"column:current_uses;not null;default:0"`
	StartsAt       time.Time `gorm:"column:starts_at;not null"`
	EndsAt         time.Time `gorm:"column:ends_at;not null"`
	IsActive       bool      `gorm:"column:is_active;not null;default:true"`
	Offer          *Offer    `gorm:"foreignKey:OfferID"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
