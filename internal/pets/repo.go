package pets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pawdx/vetlab-backend/pkg/db/models"
)

// Repository exposes pet persistence operations.
type Repository interface {
	Create(ctx context.Context, pet *models.Pet) (*models.Pet, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Pet, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Pet, error)
	Update(ctx context.Context, pet *models.Pet) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a pets repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, pet *models.Pet) (*models.Pet, error) {
	if err := r.db.WithContext(ctx).Create(pet).Error; err != nil {
		return nil, err
	}
	return pet, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Pet, error) {
	var pet models.Pet
	if err := r.db.WithContext(ctx).First(&pet, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pet, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Pet, error) {
	var pets []models.Pet
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&pets).Error
	if err != nil {
		return nil, err
	}
	return pets, nil
}

func (r *repository) Update(ctx context.Context, pet *models.Pet) error {
	return r.db.WithContext(ctx).Save(pet).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Pet{}, "id = ?", id).Error
}
