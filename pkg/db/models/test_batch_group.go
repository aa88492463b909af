package models

import (
	"time"

	"github.com/google/uuid"
)

// TestBatchGroup bundles samples from one booking that travel to the lab
// together.
type TestBatchGroup struct {
	ID        uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID uuid.UUID    `gorm:"column:booking_id;type:uuid;not null;index"`
	Name      string       `gorm:"column:name;not null"`
	Notes     *string      `gorm:"column:notes"`
	Reports   []TestReport `gorm:"foreignKey:BatchGroupID"`
	CreatedAt time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}
