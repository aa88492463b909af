package fulfillment

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pawdx/vetlab-backend/pkg/db/models"
)

// Repository exposes report and batch-group persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindItem(ctx context.Context, itemID uuid.UUID) (*models.BookingItem, error)
	FindReport(ctx context.Context, reportID uuid.UUID) (*models.TestReport, error)
	FindReportByItem(ctx context.Context, itemID uuid.UUID) (*models.TestReport, error)
	CreateReport(ctx context.Context, report *models.TestReport) error
	UpdateReport(ctx context.Context, report *models.TestReport) error

	// BookingsWithReports loads a user's bookings with items, tests, and any
	// reports attached. Optional booking/item filters narrow the result.
	BookingsWithReports(ctx context.Context, userID uuid.UUID, bookingID, itemID *uuid.UUID) ([]models.Booking, error)

	CreateBatchGroup(ctx context.Context, group *models.TestBatchGroup) error
	FindBatchGroup(ctx context.Context, groupID uuid.UUID) (*models.TestBatchGroup, error)
	ListBatchGroups(ctx context.Context, bookingID uuid.UUID) ([]models.TestBatchGroup, error)
	AttachReportToBatch(ctx context.Context, reportID, groupID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a fulfillment repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindItem(ctx context.Context, itemID uuid.UUID) (*models.BookingItem, error) {
	var item models.BookingItem
	err := r.db.WithContext(ctx).
		Preload("Test").
		Preload("Report").
		First(&item, "id = ?", itemID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindReport(ctx context.Context, reportID uuid.UUID) (*models.TestReport, error) {
	var report models.TestReport
	if err := r.db.WithContext(ctx).First(&report, "id = ?", reportID).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *repository) FindReportByItem(ctx context.Context, itemID uuid.UUID) (*models.TestReport, error) {
	var report models.TestReport
	if err := r.db.WithContext(ctx).First(&report, "booking_item_id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *repository) CreateReport(ctx context.Context, report *models.TestReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *repository) UpdateReport(ctx context.Context, report *models.TestReport) error {
	return r.db.WithContext(ctx).Save(report).Error
}

func (r *repository) BookingsWithReports(ctx context.Context, userID uuid.UUID, bookingID, itemID *uuid.UUID) ([]models.Booking, error) {
	query := r.db.WithContext(ctx).
		Preload("Pet").
		Preload("Items.Test").
		Preload("Items.Report").
		Where("user_id = ?", userID)
	if bookingID != nil {
		query = query.Where("id = ?", *bookingID)
	}
	if itemID != nil {
		query = query.Where("id IN (?)", r.db.
			Model(&models.BookingItem{}).
			Select("booking_id").
			Where("id = ?", *itemID))
	}

	var bookings []models.Booking
	if err := query.Order("booking_date DESC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repository) CreateBatchGroup(ctx context.Context, group *models.TestBatchGroup) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *repository) FindBatchGroup(ctx context.Context, groupID uuid.UUID) (*models.TestBatchGroup, error) {
	var group models.TestBatchGroup
	err := r.db.WithContext(ctx).
		Preload("Reports").
		First(&group, "id = ?", groupID).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *repository) ListBatchGroups(ctx context.Context, bookingID uuid.UUID) ([]models.TestBatchGroup, error) {
	var groups []models.TestBatchGroup
	err := r.db.WithContext(ctx).
		Preload("Reports").
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *repository) AttachReportToBatch(ctx context.Context, reportID, groupID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.TestReport{}).
		Where("id = ?", reportID).
		UpdateColumn("batch_group_id", groupID).Error
}
