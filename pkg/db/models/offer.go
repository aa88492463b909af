package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pawdx/vetlab-backend/pkg/enums"
	"github.com/pawdx/vetlab-backend/pkg/types"
)

// Offer defines a discount rule. ApplicableTests nil means the offer covers
// every test; otherwise the discount applies to the qualifying subtotal only.
type Offer struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string             `gorm:"column:name;not null"`
	Description       *string            `gorm:"column:description"`
	DiscountType      enums.DiscountType `gorm:"column:discount_type;type:text;not null"`
	DiscountValue     decimal.Decimal    `gorm:"column:discount_value;type:numeric(10,2);not null"`
	ApplicableTests   types.UUIDList     `gorm:"column:applicable_tests;type:jsonb;serializer:json"`
	MinimumOrderValue decimal.Decimal    `gorm:"column:minimum_order_value;type:numeric(10,2);not null;default:0"`
	StartsAt          time.Time          `gorm:"column:starts_at;not null"`
	EndsAt            time.Time          `gorm:"column:ends_at;not null"`
	IsActive          bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
