package models

import (
	"time"

	"github.com/google/uuid"
)

// TestCategory groups diagnostic tests for catalog browsing.
type TestCategory struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string    `gorm:"column:name;not null;uniqueIndex"`
	Description  *string   `gorm:"column:description"`
	DisplayOrder int       `gorm:"column:display_order;not null;default:0"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true"`
	Tests        []Test    `gorm:"foreignKey:CategoryID"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
