package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pawdx/vetlab-backend/pkg/enums"
)

// Staff is a lab operations member: sample collectors, technicians, analysts.
type Staff struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string          `gorm:"column:name;not null"`
	Phone        string          `gorm:"column:phone;not null;uniqueIndex"`
	Email        *string         `gorm:"column:email"`
	Role         enums.StaffRole `gorm:"column:role;type:text;not null"`
	AssignedArea *string         `gorm:"column:assigned_area"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
