package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Test is a single diagnostic offering in the catalog.
type Test struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID      uuid.UUID        `gorm:"column:category_id;type:uuid;not null;index"`
	Name            string           `gorm:"column:name;not null"`
	Code            string           `gorm:"column:code;not null;uniqueIndex"`
	Description     *string          `gorm:"column:description"`
	Price           decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	DiscountedPrice *decimal.Decimal `gorm:"column:discounted_price;type:numeric(10,2)"`
	SampleType      *string          `gorm:"column:sample_type"`
	TurnaroundHours *int             `gorm:"column:turnaround_hours"`
	IsActive        bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePrice returns the discounted price when one is set, the list price
// otherwise.
func (t Test) EffectivePrice() decimal.Decimal {
	if t.DiscountedPrice != nil {
		return *t.DiscountedPrice
	}
	return t.Price
}
