package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pawdx/vetlab-backend/pkg/enums"
)

// Booking is a home sample-collection appointment for one pet.
type Booking struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	PetID             uuid.UUID           `gorm:"column:pet_id;type:uuid;not null"`
	AddressID         uuid.UUID           `gorm:"column:address_id;type:uuid;not null"`
	CollectionStaffID *uuid.UUID          `gorm:"column:collection_staff_id;type:uuid"`
	Status            enums.BookingStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	BookingDate       time.Time           `gorm:"column:booking_date;not null;index"`
	Notes             *string             `gorm:"column:notes"`
	DistanceKM        *float64            `gorm:"column:distance_km"`
	User              *User               `gorm:"foreignKey:UserID"`
	Pet               *Pet                `gorm:"foreignKey:PetID"`
	Address           *Address            `gorm:"foreignKey:AddressID"`
	CollectionStaff   *Staff              `gorm:"foreignKey:CollectionStaffID"`
	Items             []BookingItem       `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
	BatchGroups       []TestBatchGroup    `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
