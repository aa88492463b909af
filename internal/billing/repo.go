package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pawdx/vetlab-backend/pkg/db/models"
	"github.com/pawdx/vetlab-backend/pkg/enums"
)

// Repository exposes the booking reads and billing-record writes the
// aggregator needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	BookingsInRange(ctx context.Context, start, end time.Time) ([]models.Booking, error)
	PendingBookings(ctx context.Context, now time.Time) ([]models.Booking, error)
	FutureBookings(ctx context.Context, now time.Time) ([]models.Booking, error)
	AllBookings(ctx context.Context) ([]models.Booking, error)
	FindBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	RedemptionForBooking(ctx context.Context, bookingID uuid.UUID) (*models.CouponRedemption, error)

	FindRecordByBooking(ctx context.Context, bookingID uuid.UUID) (*models.BillingRecord, error)
	CreateRecord(ctx context.Context, record *models.BillingRecord) error
	UpdateRecord(ctx context.Context, record *models.BillingRecord) error
	CountRecordsForPeriod(ctx context.Context, period string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a billing repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) billableBookings() *gorm.DB {
	return r.db.
		Preload("User").
		Preload("Items.Test").
		Where("status <> ?", enums.BookingStatusCancelled)
}

func (r *repository) BookingsInRange(ctx context.Context, start, end time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.billableBookings().WithContext(ctx).
		Where("booking_date >= ? AND booking_date < ?", start, end).
		Order("booking_date ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repository) PendingBookings(ctx context.Context, now time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Items.Test").
		Where("status = ?", enums.BookingStatusConfirmed).
		Where("booking_date < ?", now).
		Order("booking_date ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repository) FutureBookings(ctx context.Context, now time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.billableBookings().WithContext(ctx).
		Where("booking_date >= ?", now).
		Order("booking_date ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repository) AllBookings(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.billableBookings().WithContext(ctx).
		Order("booking_date ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repository) FindBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Items.Test").
		First(&booking, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) RedemptionForBooking(ctx context.Context, bookingID uuid.UUID) (*models.CouponRedemption, error) {
	var redemption models.CouponRedemption
	err := r.db.WithContext(ctx).First(&redemption, "booking_id = ?", bookingID).Error
	if err != nil {
		return nil, err
	}
	return &redemption, nil
}

func (r *repository) FindRecordByBooking(ctx context.Context, bookingID uuid.UUID) (*models.BillingRecord, error) {
	var record models.BillingRecord
	err := r.db.WithContext(ctx).First(&record, "booking_id = ?", bookingID).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) CreateRecord(ctx context.Context, record *models.BillingRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) UpdateRecord(ctx context.Context, record *models.BillingRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *repository) CountRecordsForPeriod(ctx context.Context, period string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BillingRecord{}).
		Where("billing_period = ?", period).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
