package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pawdx/vetlab-backend/pkg/db/models"
)

// Repository exposes catalog persistence operations.
type Repository interface {
	CreateCategory(ctx context.Context, category *models.TestCategory) (*models.TestCategory, error)
	FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.TestCategory, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]models.TestCategory, error)
	UpdateCategory(ctx context.Context, category *models.TestCategory) error

	CreateTest(ctx context.Context, test *models.Test) (*models.Test, error)
	FindTestByID(ctx context.Context, id uuid.UUID) (*models.Test, error)
	FindTestsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Test, error)
	ListTests(ctx context.Context, categoryID *uuid.UUID, activeOnly bool) ([]models.Test, error)
	UpdateTest(ctx context.Context, test *models.Test) error
	DeleteTest(ctx context.Context, id uuid.UUID) error
	TestHasBookings(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateCategory(ctx context.Context, category *models.TestCategory) (*models.TestCategory, error) {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

func (r *repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.TestCategory, error) {
	var category models.TestCategory
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repository) ListCategories(ctx context.Context, activeOnly bool) ([]models.TestCategory, error) {
	query := r.db.WithContext(ctx).Model(&models.TestCategory{})
	if activeOnly {
		query = query.Where("is_active")
	}

	var categories []models.TestCategory
	if err := query.Order("display_order ASC, name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repository) UpdateCategory(ctx context.Context, category *models.TestCategory) error {
	return r.db.WithContext(ctx).Save(category).Error
}

func (r *repository) CreateTest(ctx context.Context, test *models.Test) (*models.Test, error) {
	if err := r.db.WithContext(ctx).Create(test).Error; err != nil {
		return nil, err
	}
	return test, nil
}

func (r *repository) FindTestByID(ctx context.Context, id uuid.UUID) (*models.Test, error) {
	var test models.Test
	if err := r.db.WithContext(ctx).First(&test, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *repository) FindTestsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Test, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tests []models.Test
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tests).Error; err != nil {
		return nil, err
	}
	return tests, nil
}

func (r *repository) ListTests(ctx context.Context, categoryID *uuid.UUID, activeOnly bool) ([]models.Test, error) {
	query := r.db.WithContext(ctx).Model(&models.Test{})
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}
	if activeOnly {
		query = query.Where("is_active")
	}

	var tests []models.Test
	if err := query.Order("name ASC").Find(&tests).Error; err != nil {
		return nil, err
	}
	return tests, nil
}

func (r *repository) UpdateTest(ctx context.Context, test *models.Test) error {
	return r.db.WithContext(ctx).Save(test).Error
}

func (r *repository) DeleteTest(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Test{}, "id = ?", id).Error
}

func (r *repository) TestHasBookings(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BookingItem{}).
		Where("test_id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
