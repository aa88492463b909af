package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DistancePricingConfig prices the home-collection trip. The active row is the
// one whose effective window contains today; ties resolve to the latest
// effective_from, then the latest created_at.
type DistancePricingConfig struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string          `gorm:"column:name;not null"`
	BaseCharge        decimal.Decimal `gorm:"column:base_charge;type:numeric(10,2);not null"`
	ChargePerKM       decimal.Decimal `gorm:"column:charge_per_km;type:numeric(10,2);not null"`
	MaxFreeDistanceKM float64         `gorm:"column:max_free_distance_km;not null;default:0"`
	EffectiveFrom     time.Time       `gorm:"column:effective_from;not null"`
	EffectiveUntil    *time.Time      `gorm:"column:effective_until"`
	IsActive          bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
