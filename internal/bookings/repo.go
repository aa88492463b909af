package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pawdx/vetlab-backend/pkg/db/models"
	"github.com/pawdx/vetlab-backend/pkg/enums"
	"github.com/pawdx/vetlab-backend/pkg/pagination"
)

// BookingPage is one cursor page of a user's bookings.
type BookingPage struct {
	Bookings   []models.Booking
	NextCursor string
}

// Repository exposes booking persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	// Create inserts the booking row together with its items.
	Create(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID, p pagination.Params) (*BookingPage, error)
	// LookupByPhone finds open bookings for the customer with the given
	// phone number. Bookings already marked done are excluded.
	LookupByPhone(ctx context.Context, phone string) ([]models.Booking, error)
	Upcoming(ctx context.Context, from time.Time) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.BookingStatus) error
	UpdateItemStatuses(ctx context.Context, bookingID uuid.UUID, status enums.BookingItemStatus) error
	AssignStaff(ctx context.Context, id uuid.UUID, staffID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a bookings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Pet").
		Preload("Address").
		Preload("CollectionStaff").
		Preload("Items.Test").
		Preload("Items.Report").
		First(&booking, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, p pagination.Params) (*BookingPage, error) {
	pageSize := pagination.NormalizeLimit(p.Limit)
	cursor, err := pagination.ParseCursor(p.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).
		Preload("Pet").
		Preload("Address").
		Preload("Items.Test").
		Where("user_id = ?", userID)
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var bookings []models.Booking
	err = qb.Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(p.Limit)).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}

	page := &BookingPage{Bookings: bookings}
	if len(bookings) > pageSize {
		page.Bookings = bookings[:pageSize]
		last := page.Bookings[len(page.Bookings)-1]
		page.NextCursor = pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
	}
	return page, nil
}

func (r *repository) LookupByPhone(ctx context.Context, phone string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Pet").
		Preload("Address").
		Preload("Items.Test").
		Joins("JOIN users ON users.id = bookings.user_id").
		Where("users.phone = ?", phone).
		Where("bookings.status <> ?", enums.BookingStatusDone).
		Order("bookings.booking_date ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repository) Upcoming(ctx context.Context, from time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Pet").
		Preload("Address").
		Preload("CollectionStaff").
		Preload("Items.Test").
		Where("booking_date >= ?", from).
		Where("status IN ?", []enums.BookingStatus{enums.BookingStatusPending, enums.BookingStatusConfirmed}).
		Order("booking_date ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.BookingStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		UpdateColumn("status", status).Error
}

func (r *repository) UpdateItemStatuses(ctx context.Context, bookingID uuid.UUID, status enums.BookingItemStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.BookingItem{}).
		Where("booking_id = ?", bookingID).
		UpdateColumn("status", status).Error
}

func (r *repository) AssignStaff(ctx context.Context, id uuid.UUID, staffID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		UpdateColumn("collection_staff_id", staffID).Error
}
