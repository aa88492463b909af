package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pawdx/vetlab-backend/pkg/enums"
)

// TestReport is the result document for one booking item. One row per item;
// re-uploads supersede the stored file reference instead of adding rows.
// Generated/verified/delivered timestamps only move forward and are immutable
// once set.
type TestReport struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingItemID  uuid.UUID          `gorm:"column:booking_item_id;type:uuid;not null;uniqueIndex"`
	BatchGroupID   *uuid.UUID         `gorm:"column:batch_group_id;type:uuid"`
	ReportFilePath string             `gorm:"column:report_file_path"`
	ReportFileURL  string             `gorm:"column:report_file_url"`
	Findings       *string            `gorm:"column:findings"`
	Status         enums.ReportStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	UploadedBy     *uuid.UUID         `gorm:"column:uploaded_by;type:uuid"`
	GeneratedAt    *time.Time         `gorm:"column:generated_at"`
	VerifiedAt     *time.Time         `gorm:"column:verified_at"`
	DeliveredAt    *time.Time         `gorm:"column:delivered_at"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
