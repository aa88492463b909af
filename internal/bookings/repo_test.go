package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pawdx/vetlab-backend/pkg/db/models"
	"github.com/pawdx/vetlab-backend/pkg/enums"
	"github.com/pawdx/vetlab-backend/pkg/pagination"
)

func setupBookingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`DROP TABLE IF EXISTS booking_items`,
		`DROP TABLE IF EXISTS bookings`,
		`DROP TABLE IF EXISTS pets`,
		`DROP TABLE IF EXISTS addresses`,
		`DROP TABLE IF EXISTS tests`,
		`CREATE TABLE bookings (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  pet_id TEXT NOT NULL,
  address_id TEXT NOT NULL,
  collection_staff_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  booking_date DATETIME NOT NULL,
  notes TEXT,
  distance_km REAL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE booking_items (
  id TEXT PRIMARY KEY,
  booking_id TEXT NOT NULL,
  test_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  unit_price TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE pets (
  id TEXT PRIMARY KEY, user_id TEXT NOT NULL, name TEXT NOT NULL, species TEXT NOT NULL,
  breed TEXT, age_months INTEGER, weight_kg REAL, notes TEXT, created_at DATETIME, updated_at DATETIME
);`,
		`CREATE TABLE addresses (
  id TEXT PRIMARY KEY, user_id TEXT NOT NULL, label TEXT, line1 TEXT NOT NULL, line2 TEXT,
  city TEXT, state TEXT, postal_code TEXT, country TEXT, latitude REAL, longitude REAL,
  maps_link TEXT, is_default INTEGER NOT NULL DEFAULT 0, created_at DATETIME, updated_at DATETIME
);`,
		`CREATE TABLE tests (
  id TEXT PRIMARY KEY, category_id TEXT, name TEXT NOT NULL, code TEXT, description TEXT, price TEXT NOT NULL,
  discounted_price TEXT, sample_type TEXT, turnaround_hours INTEGER, is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME, updated_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedBooking(t *testing.T, db *gorm.DB, userID uuid.UUID, createdAt time.Time) *models.Booking {
	t.Helper()

	booking := &models.Booking{
		ID:          uuid.New(),
		UserID:      userID,
		PetID:       uuid.New(),
		AddressID:   uuid.New(),
		Status:      enums.BookingStatusConfirmed,
		BookingDate: createdAt.Add(48 * time.Hour),
		CreatedAt:   createdAt,
	}
	require.NoError(t, db.Create(booking).Error)
	return booking
}

func TestListByUserPaginates(t *testing.T) {
	db := setupBookingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	base := time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC)
	oldest := seedBooking(t, db, owner, base)
	middle := seedBooking(t, db, owner, base.Add(time.Hour))
	newest := seedBooking(t, db, owner, base.Add(2*time.Hour))
	seedBooking(t, db, uuid.New(), base.Add(3*time.Hour))

	first, err := repo.ListByUser(ctx, owner, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Bookings, 2)
	assert.Equal(t, newest.ID, first.Bookings[0].ID)
	assert.Equal(t, middle.ID, first.Bookings[1].ID)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.ListByUser(ctx, owner, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Bookings, 1)
	assert.Equal(t, oldest.ID, second.Bookings[0].ID)
	assert.Empty(t, second.NextCursor)
}

func TestListByUserRejectsBadCursor(t *testing.T) {
	db := setupBookingTestDB(t)
	repo := NewRepository(db)

	_, err := repo.ListByUser(context.Background(), uuid.New(), pagination.Params{Cursor: "not-base64!"})
	require.Error(t, err)
}

func TestUpdateStatusAndAssignStaff(t *testing.T) {
	db := setupBookingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	booking := seedBooking(t, db, uuid.New(), time.Date(2026, time.May, 2, 9, 0, 0, 0, time.UTC))
	staffID := uuid.New()

	require.NoError(t, repo.UpdateStatus(ctx, booking.ID, enums.BookingStatusCollected))
	require.NoError(t, repo.AssignStaff(ctx, booking.ID, staffID))

	var stored models.Booking
	require.NoError(t, db.First(&stored, "id = ?", booking.ID).Error)
	assert.Equal(t, enums.BookingStatusCollected, stored.Status)
	require.NotNil(t, stored.CollectionStaffID)
	assert.Equal(t, staffID, *stored.CollectionStaffID)
}
