package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/pawdx/vetlab-backend/pkg/db"
	"github.com/pawdx/vetlab-backend/pkg/db/models"
	"github.com/pawdx/vetlab-backend/pkg/enums"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
)

// Service manages the operational staff directory. Writes are admin-only,
// enforced at the route layer.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Staff, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Staff, error)
	List(ctx context.Context, input ListInput) ([]models.Staff, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Staff, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// CreateInput carries the fields for a new staff member.
type CreateInput struct {
	Name         string
	Phone        string
	Email        *string
	Role         string
	AssignedArea *string
}

// ListInput filters the staff directory.
type ListInput struct {
	Role       *string
	ActiveOnly bool
}

// UpdateInput carries optional updates; nil fields are left unchanged.
type UpdateInput struct {
	Name         *string
	Email        *string
	Role         *string
	AssignedArea *string
	IsActive     *bool
}

type service struct {
	repo Repository
}

// NewService builds the staff service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("staff repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Staff, error) {
	name := strings.TrimSpace(input.Name)
	phone := strings.TrimSpace(input.Phone)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	role, err := enums.ParseStaffRole(strings.ToLower(strings.TrimSpace(input.Role)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	member := &models.Staff{
		Name:         name,
		Phone:        phone,
		Email:        input.Email,
		Role:         role,
		AssignedArea: input.AssignedArea,
		IsActive:     true,
	}

	created, err := s.repo.Create(ctx, member)
	if err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a staff member with this phone already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create staff member")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Staff, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "staff member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load staff member")
	}
	return member, nil
}

func (s *service) List(ctx context.Context, input ListInput) ([]models.Staff, error) {
	var role *enums.StaffRole
	if input.Role != nil {
		parsed, err := enums.ParseStaffRole(strings.ToLower(strings.TrimSpace(*input.Role)))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		role = &parsed
	}

	members, err := s.repo.List(ctx, role, input.ActiveOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list staff")
	}
	return members, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Staff, error) {
	member, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		member.Name = name
	}
	if input.Email != nil {
		member.Email = input.Email
	}
	if input.Role != nil {
		role, err := enums.ParseStaffRole(strings.ToLower(strings.TrimSpace(*input.Role)))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		member.Role = role
	}
	if input.AssignedArea != nil {
		member.AssignedArea = input.AssignedArea
	}
	if input.IsActive != nil {
		member.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, member); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update staff member")
	}
	return member, nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	member, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !member.IsActive {
		return nil
	}
	member.IsActive = false
	if err := s.repo.Update(ctx, member); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate staff member")
	}
	return nil
}
