package addresses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pawdx/vetlab-backend/pkg/db/models"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes owner-scoped address management.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Address, error)
	Get(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	Update(ctx context.Context, userID, addressID uuid.UUID, input UpdateInput) (*models.Address, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
	SetDefault(ctx context.Context, userID, addressID uuid.UUID) error
}

// CreateInput carries the fields for a new address.
type CreateInput struct {
	Label      string
	Line1      string
	Line2      *string
	City       string
	State      string
	PostalCode string
	Country    string
	Latitude   *float64
	Longitude  *float64
	MapsLink   *string
	IsDefault  bool
}

// UpdateInput carries optional updates; nil fields are left unchanged.
type UpdateInput struct {
	Label      *string
	Line1      *string
	Line2      *string
	City       *string
	State      *string
	PostalCode *string
	Latitude   *float64
	Longitude  *float64
	MapsLink   *string
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds the addresses service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("addresses repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Address, error) {
	if strings.TrimSpace(input.Line1) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line1 is required")
	}
	if strings.TrimSpace(input.City) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "city is required")
	}
	if strings.TrimSpace(input.State) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "state is required")
	}
	if strings.TrimSpace(input.PostalCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "postal_code is required")
	}

	address := &models.Address{
		UserID:     userID,
		Label:      defaultString(input.Label, "home"),
		Line1:      strings.TrimSpace(input.Line1),
		Line2:      input.Line2,
		City:       strings.TrimSpace(input.City),
		State:      strings.TrimSpace(input.State),
		PostalCode: strings.TrimSpace(input.PostalCode),
		Country:    defaultString(input.Country, "IN"),
		Latitude:   input.Latitude,
		Longitude:  input.Longitude,
		MapsLink:   input.MapsLink,
	}

	if !input.IsDefault {
		created, err := s.repo.Create(ctx, address)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create address")
		}
		return created, nil
	}

	// Default flip and insert happen together so two concurrent creates
	// cannot leave two defaults behind.
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.ClearDefaults(ctx, userID); err != nil {
			return err
		}
		address.IsDefault = true
		_, err := txRepo.Create(ctx, address)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create default address")
	}
	return address, nil
}

func (s *service) Get(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	return s.owned(ctx, userID, addressID)
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	addresses, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	return addresses, nil
}

func (s *service) Update(ctx context.Context, userID, addressID uuid.UUID, input UpdateInput) (*models.Address, error) {
	address, err := s.owned(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	if input.Label != nil {
		address.Label = strings.TrimSpace(*input.Label)
	}
	if input.Line1 != nil {
		if strings.TrimSpace(*input.Line1) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line1 cannot be empty")
		}
		address.Line1 = strings.TrimSpace(*input.Line1)
	}
	if input.Line2 != nil {
		address.Line2 = input.Line2
	}
	if input.City != nil {
		address.City = strings.TrimSpace(*input.City)
	}
	if input.State != nil {
		address.State = strings.TrimSpace(*input.State)
	}
	if input.PostalCode != nil {
		address.PostalCode = strings.TrimSpace(*input.PostalCode)
	}
	if input.Latitude != nil {
		address.Latitude = input.Latitude
	}
	if input.Longitude != nil {
		address.Longitude = input.Longitude
	}
	if input.MapsLink != nil {
		address.MapsLink = input.MapsLink
	}

	if err := s.repo.Update(ctx, address); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update address")
	}
	return address, nil
}

func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	if _, err := s.owned(ctx, userID, addressID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, addressID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete address")
	}
	return nil
}

// SetDefault unsets every default for the user and promotes the given address
// in one transaction.
func (s *service) SetDefault(ctx context.Context, userID, addressID uuid.UUID) error {
	if _, err := s.owned(ctx, userID, addressID); err != nil {
		return err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.ClearDefaults(ctx, userID); err != nil {
			return err
		}
		return txRepo.SetDefault(ctx, addressID)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set default address")
	}
	return nil
}

func (s *service) owned(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	address, err := s.repo.FindByID(ctx, addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load address")
	}
	if address.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "address belongs to another user")
	}
	return address, nil
}

func defaultString(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
