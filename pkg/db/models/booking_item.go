package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pawdx/vetlab-backend/pkg/enums"
)

// BookingItem is one test line inside a booking. UnitPrice is snapshotted at
// creation and never recomputed from the catalog.
type BookingItem struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID uuid.UUID               `gorm:"column:booking_id;type:uuid;not null;index;uniqueIndex:idx_booking_items_booking_test"`
	TestID    uuid.UUID               `gorm:"column:test_id;type:uuid;not null;uniqueIndex:idx_booking_items_booking_test"`
	Quantity  int                     `gorm:"column:quantity;not null;default:1"`
	UnitPrice decimal.Decimal         `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Status    enums.BookingItemStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Test      *Test                   `gorm:"foreignKey:TestID"`
	Report    *TestReport             `gorm:"foreignKey:BookingItemID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
