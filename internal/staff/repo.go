package staff

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pawdx/vetlab-backend/pkg/db/models"
	"github.com/pawdx/vetlab-backend/pkg/enums"
)

// Repository exposes staff directory persistence operations.
type Repository interface {
	Create(ctx context.Context, member *models.Staff) (*models.Staff, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Staff, error)
	List(ctx context.Context, role *enums.StaffRole, activeOnly bool) ([]models.Staff, error)
	Update(ctx context.Context, member *models.Staff) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a staff repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, member *models.Staff) (*models.Staff, error) {
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Staff, error) {
	var member models.Staff
	if err := r.db.WithContext(ctx).First(&member, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *repository) List(ctx context.Context, role *enums.StaffRole, activeOnly bool) ([]models.Staff, error) {
	query := r.db.WithContext(ctx).Model(&models.Staff{})
	if role != nil {
		query = query.Where("role = ?", *role)
	}
	if activeOnly {
		query = query.Where("is_active")
	}

	var members []models.Staff
	if err := query.Order("name ASC").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repository) Update(ctx context.Context, member *models.Staff) error {
	return r.db.WithContext(ctx).Save(member).Error
}
