package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pawdx/vetlab-backend/pkg/enums"
)

// User is a customer or operational account.
type User struct {
	ID                  uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                string         `gorm:"column:name;not null"`
	Email               string         `gorm:"column:email;not null;uniqueIndex"`
	Phone               string         `gorm:"column:phone;not null;uniqueIndex"`
	PasswordHash        string         `gorm:"column:password_hash;not null"`
	Role                enums.UserRole `gorm:"column:role;type:text;not null;default:'user'"`
	FailedLoginAttempts int            `gorm:"column:failed_login_attempts;not null;default:0"`
	IsLocked            bool           `gorm:"column:is_locked;not null;default:false"`
	IsActive            bool           `gorm:"column:is_active;not null;default:true"`
	Addresses           []Address      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Pets                []Pet          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
