package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pawdx/vetlab-backend/pkg/enums"
)

// BillingRecord materializes the billable amounts of one booking from its
// line-item snapshots.
type BillingRecord struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID      uuid.UUID           `gorm:"column:booking_id;type:uuid;not null;uniqueIndex"`
	InvoiceNumber  *string             `gorm:"column:invoice_number;uniqueIndex"`
	BaseAmount     decimal.Decimal     `gorm:"column:base_amount;type:numeric(10,2);not null"`
	DiscountAmount decimal.Decimal     `gorm:"column:discount_amount;type:numeric(10,2);not null;default:0"`
	DistanceCharge decimal.Decimal     `gorm:"column:distance_charge;type:numeric(10,2);not null;default:0"`
	FinalAmount    decimal.Decimal     `gorm:"column:final_amount;type:numeric(10,2);not null"`
	BillingPeriod  string              `gorm:"column:billing_period;not null"`
	Status         enums.BillingStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	FinalizedAt    *time.Time          `gorm:"column:finalized_at"`
	InvoicedAt     *time.Time          `gorm:"column:invoiced_at"`
	PaidAt         *time.Time          `gorm:"column:paid_at"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
