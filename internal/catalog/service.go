package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgdb "github.com/pawdx/vetlab-backend/pkg/db"
	"github.com/pawdx/vetlab-backend/pkg/db/models"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
)

// Service exposes catalog browsing and admin-side management.
type Service interface {
	CreateCategory(ctx context.Context, input CategoryInput) (*models.TestCategory, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]models.TestCategory, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*models.TestCategory, error)

	CreateTest(ctx context.Context, input TestInput) (*models.Test, error)
	GetTest(ctx context.Context, id uuid.UUID) (*models.Test, error)
	ListTests(ctx context.Context, categoryID *uuid.UUID, activeOnly bool) ([]models.Test, error)
	UpdateTest(ctx context.Context, id uuid.UUID, input TestUpdateInput) (*models.Test, error)
	RemoveTest(ctx context.Context, id uuid.UUID) error
}

// CategoryInput carries category fields.
type CategoryInput struct {
	Name         string
	Description  *string
	DisplayOrder int
	IsActive     *bool
}

// TestInput carries the fields for a new test.
type TestInput struct {
	CategoryID      uuid.UUID
	Name            string
	Code            string
	Description     *string
	Price           decimal.Decimal
	DiscountedPrice *decimal.Decimal
	SampleType      *string
	TurnaroundHours *int
}

// TestUpdateInput carries optional updates; nil fields are left unchanged.
type TestUpdateInput struct {
	Name            *string
	Description     *string
	Price           *decimal.Decimal
	DiscountedPrice *decimal.Decimal
	ClearDiscount   bool
	SampleType      *string
	TurnaroundHours *int
	IsActive        *bool
}

type service struct {
	repo Repository
}

// NewService builds the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*models.TestCategory, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	category := &models.TestCategory{
		Name:         name,
		Description:  input.Description,
		DisplayOrder: input.DisplayOrder,
		IsActive:     true,
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	created, err := s.repo.CreateCategory(ctx, category)
	if err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a category with this name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create category")
	}
	return created, nil
}

func (s *service) ListCategories(ctx context.Context, activeOnly bool) ([]models.TestCategory, error) {
	categories, err := s.repo.ListCategories(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	return categories, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*models.TestCategory, error) {
	category, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		category.Name = name
	}
	if input.Description != nil {
		category.Description = input.Description
	}
	category.DisplayOrder = input.DisplayOrder
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update category")
	}
	return category, nil
}

func (s *service) CreateTest(ctx context.Context, input TestInput) (*models.Test, error) {
	name := strings.TrimSpace(input.Name)
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if input.Price.IsNegative() || input.Price.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.DiscountedPrice != nil && input.DiscountedPrice.GreaterThan(input.Price) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discounted price cannot exceed price")
	}

	if _, err := s.repo.FindCategoryByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}

	test := &models.Test{
		CategoryID:      input.CategoryID,
		Name:            name,
		Code:            code,
		Description:     input.Description,
		Price:           input.Price,
		DiscountedPrice: input.DiscountedPrice,
		SampleType:      input.SampleType,
		TurnaroundHours: input.TurnaroundHours,
		IsActive:        true,
	}

	created, err := s.repo.CreateTest(ctx, test)
	if err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a test with this code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create test")
	}
	return created, nil
}

func (s *service) GetTest(ctx context.Context, id uuid.UUID) (*models.Test, error) {
	test, err := s.repo.FindTestByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "test not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load test")
	}
	return test, nil
}

func (s *service) ListTests(ctx context.Context, categoryID *uuid.UUID, activeOnly bool) ([]models.Test, error) {
	tests, err := s.repo.ListTests(ctx, categoryID, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list tests")
	}
	return tests, nil
}

func (s *service) UpdateTest(ctx context.Context, id uuid.UUID, input TestUpdateInput) (*models.Test, error) {
	test, err := s.GetTest(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		test.Name = name
	}
	if input.Description != nil {
		test.Description = input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() || input.Price.IsZero() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		test.Price = *input.Price
	}
	if input.ClearDiscount {
		test.DiscountedPrice = nil
	} else if input.DiscountedPrice != nil {
		if input.DiscountedPrice.GreaterThan(test.Price) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discounted price cannot exceed price")
		}
		test.DiscountedPrice = input.DiscountedPrice
	}
	if input.SampleType != nil {
		test.SampleType = input.SampleType
	}
	if input.TurnaroundHours != nil {
		test.TurnaroundHours = input.TurnaroundHours
	}
	if input.IsActive != nil {
		test.IsActive = *input.IsActive
	}

	if err := s.repo.UpdateTest(ctx, test); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update test")
	}
	return test, nil
}

// RemoveTest deletes an unreferenced test outright. Once any booking item
// points at the test it is deactivated instead, so historical bookings keep
// their line references.
func (s *service) RemoveTest(ctx context.Context, id uuid.UUID) error {
	test, err := s.GetTest(ctx, id)
	if err != nil {
		return err
	}

	referenced, err := s.repo.TestHasBookings(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check test references")
	}

	if referenced {
		if !test.IsActive {
			return nil
		}
		test.IsActive = false
		if err := s.repo.UpdateTest(ctx, test); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate test")
		}
		return nil
	}

	if err := s.repo.DeleteTest(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete test")
	}
	return nil
}
