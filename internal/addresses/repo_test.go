package addresses

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pawdx/vetlab-backend/pkg/db/models"
)

func setupAddressTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS addresses (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  label TEXT NOT NULL DEFAULT 'home',
  line1 TEXT NOT NULL,
  line2 TEXT,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  postal_code TEXT NOT NULL,
  country TEXT NOT NULL DEFAULT 'IN',
  latitude REAL,
  longitude REAL,
  maps_link TEXT,
  is_default INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(`DROP TABLE IF EXISTS addresses`).Error)
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newAddress(t *testing.T, db *gorm.DB, userID uuid.UUID, line1 string, isDefault bool) *models.Address {
	t.Helper()

	address := &models.Address{
		ID:         uuid.New(),
		UserID:     userID,
		Label:      "home",
		Line1:      line1,
		City:       "Pune",
		State:      "MH",
		PostalCode: "411001",
		Country:    "IN",
		IsDefault:  isDefault,
	}
	require.NoError(t, db.Create(address).Error)
	return address
}

func countDefaults(t *testing.T, db *gorm.DB, userID uuid.UUID) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.Address{}).
		Where("user_id = ? AND is_default", userID).
		Count(&count).Error)
	return count
}

func TestSetDefaultFlipsExactlyOne(t *testing.T) {
	db := setupAddressTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	first := newAddress(t, db, userID, "12 Lake Rd", true)
	second := newAddress(t, db, userID, "44 Hill St", false)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		txRepo := repo.WithTx(tx)
		if err := txRepo.ClearDefaults(ctx, userID); err != nil {
			return err
		}
		return txRepo.SetDefault(ctx, second.ID)
	}))

	assert.EqualValues(t, 1, countDefaults(t, db, userID))

	reloaded, err := repo.FindByID(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsDefault)

	reloaded, err = repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsDefault)
}

func TestClearDefaultsScopedToUser(t *testing.T) {
	db := setupAddressTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	otherUser := uuid.New()
	newAddress(t, db, userID, "12 Lake Rd", true)
	other := newAddress(t, db, otherUser, "9 Beach Ave", true)

	require.NoError(t, repo.ClearDefaults(ctx, userID))

	assert.EqualValues(t, 0, countDefaults(t, db, userID))

	reloaded, err := repo.FindByID(ctx, other.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsDefault, "other user's default must survive")
}

func TestListByUserOrdersDefaultFirst(t *testing.T) {
	db := setupAddressTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	newAddress(t, db, userID, "12 Lake Rd", false)
	preferred := newAddress(t, db, userID, "44 Hill St", true)

	listed, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, preferred.ID, listed[0].ID)
}
