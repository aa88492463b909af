package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pawdx/vetlab-backend/pkg/enums"
)

// Pet is the animal a booking is made for.
type Pet struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index"`
	Name      string           `gorm:"column:name;not null"`
	Species   enums.PetSpecies `gorm:"column:species;type:text;not null"`
	Breed     *string          `gorm:"column:breed"`
	AgeMonths *int             `gorm:"column:age_months"`
	WeightKG  *float64         `gorm:"column:weight_kg"`
	Notes     *string          `gorm:"column:notes"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
