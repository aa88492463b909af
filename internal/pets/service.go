package pets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pawdx/vetlab-backend/pkg/db/models"
	"github.com/pawdx/vetlab-backend/pkg/enums"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
)

// Service exposes owner-scoped pet management.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Pet, error)
	Get(ctx context.Context, userID, petID uuid.UUID) (*models.Pet, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Pet, error)
	Update(ctx context.Context, userID, petID uuid.UUID, input UpdateInput) (*models.Pet, error)
	Delete(ctx context.Context, userID, petID uuid.UUID) error
}

// CreateInput carries the fields for a new pet.
type CreateInput struct {
	Name      string
	Species   string
	Breed     *string
	AgeMonths *int
	WeightKG  *float64
	Notes     *string
}

// UpdateInput carries optional updates; nil fields are left unchanged.
type UpdateInput struct {
	Name      *string
	Species   *string
	Breed     *string
	AgeMonths *int
	WeightKG  *float64
	Notes     *string
}

type service struct {
	repo Repository
}

// NewService builds the pets service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pets repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Pet, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	species, err := enums.ParsePetSpecies(strings.ToLower(strings.TrimSpace(input.Species)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	if input.AgeMonths != nil && *input.AgeMonths < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "age_months cannot be negative")
	}
	if input.WeightKG != nil && *input.WeightKG <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight_kg must be positive")
	}

	pet := &models.Pet{
		UserID:    userID,
		Name:      name,
		Species:   species,
		Breed:     input.Breed,
		AgeMonths: input.AgeMonths,
		WeightKG:  input.WeightKG,
		Notes:     input.Notes,
	}

	created, err := s.repo.Create(ctx, pet)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create pet")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, userID, petID uuid.UUID) (*models.Pet, error) {
	return s.owned(ctx, userID, petID)
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Pet, error) {
	pets, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pets")
	}
	return pets, nil
}

func (s *service) Update(ctx context.Context, userID, petID uuid.UUID, input UpdateInput) (*models.Pet, error) {
	pet, err := s.owned(ctx, userID, petID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		pet.Name = name
	}
	if input.Species != nil {
		species, err := enums.ParsePetSpecies(strings.ToLower(strings.TrimSpace(*input.Species)))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		pet.Species = species
	}
	if input.Breed != nil {
		pet.Breed = input.Breed
	}
	if input.AgeMonths != nil {
		if *input.AgeMonths < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "age_months cannot be negative")
		}
		pet.AgeMonths = input.AgeMonths
	}
	if input.WeightKG != nil {
		if *input.WeightKG <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight_kg must be positive")
		}
		pet.WeightKG = input.WeightKG
	}
	if input.Notes != nil {
		pet.Notes = input.Notes
	}

	if err := s.repo.Update(ctx, pet); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update pet")
	}
	return pet, nil
}

func (s *service) Delete(ctx context.Context, userID, petID uuid.UUID) error {
	if _, err := s.owned(ctx, userID, petID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, petID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete pet")
	}
	return nil
}

func (s *service) owned(ctx context.Context, userID, petID uuid.UUID) (*models.Pet, error) {
	pet, err := s.repo.FindByID(ctx, petID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pet")
	}
	if pet.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "pet belongs to another user")
	}
	return pet, nil
}
