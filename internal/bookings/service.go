package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pawdx/vetlab-backend/internal/notify"
	"github.com/pawdx/vetlab-backend/internal/pricing"
	"github.com/pawdx/vetlab-backend/pkg/db/models"
	"github.com/pawdx/vetlab-backend/pkg/enums"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
	"github.com/pawdx/vetlab-backend/pkg/logger"
	"github.com/pawdx/vetlab-backend/pkg/metrics"
	"github.com/pawdx/vetlab-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type petLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Pet, error)
}

type addressLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error)
}

type staffLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Staff, error)
}

// Service drives the booking workflow from creation through status changes.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Booking, error)
	Get(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, bookingID uuid.UUID) (*models.Booking, error)
	ListMine(ctx context.Context, userID uuid.UUID, p pagination.Params) (*BookingPage, error)
	LookupByPhone(ctx context.Context, phone string) ([]models.Booking, error)
	Upcoming(ctx context.Context) ([]UpcomingBooking, error)
	UpdateStatus(ctx context.Context, bookingID uuid.UUID, next enums.BookingStatus) (*models.Booking, error)
	AssignStaff(ctx context.Context, bookingID, staffID uuid.UUID) (*models.Booking, error)
}

// CreateInput describes a booking request. TestIDs may repeat; repeats become
// line quantity.
type CreateInput struct {
	UserID      uuid.UUID
	PetID       uuid.UUID
	AddressID   uuid.UUID
	TestIDs     []uuid.UUID
	BookingDate time.Time
	Notes       *string
	DistanceKM  *float64
	CouponCode  *string
	Confirmed   bool
}

// UpcomingBooking pairs a booking with its display time in the local zone.
type UpcomingBooking struct {
	Booking   models.Booking
	LocalTime time.Time
}

type service struct {
	repo      Repository
	pricer    pricing.Service
	pets      petLoader
	addresses addressLoader
	staff     staffLoader
	tx        txRunner
	notifier  notify.Notifier
	logg      *logger.Logger
	metrics   *metrics.BookingMetrics
	loc       *time.Location
	opsNumber string
	now       func() time.Time
}

// NewService builds the booking service.
func NewService(
	repo Repository,
	pricer pricing.Service,
	pets petLoader,
	addresses addressLoader,
	staff staffLoader,
	tx txRunner,
	notifier notify.Notifier,
	logg *logger.Logger,
	bookingMetrics *metrics.BookingMetrics,
	loc *time.Location,
	opsNumber string,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bookings repository required")
	}
	if pricer == nil {
		return nil, fmt.Errorf("pricing service required")
	}
	if pets == nil || addresses == nil || staff == nil {
		return nil, fmt.Errorf("pet, address, and staff loaders required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		repo:      repo,
		pricer:    pricer,
		pets:      pets,
		addresses: addresses,
		staff:     staff,
		tx:        tx,
		notifier:  notifier,
		logg:      logg,
		metrics:   bookingMetrics,
		loc:       loc,
		opsNumber: opsNumber,
		now:       time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Booking, error) {
	booking, err := s.create(ctx, input)
	if err != nil {
		s.metrics.IncFailed()
		return nil, err
	}
	s.metrics.IncCreated()
	s.dispatchNotification(booking)
	return booking, nil
}

func (s *service) create(ctx context.Context, input CreateInput) (*models.Booking, error) {
	if input.BookingDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking date is required")
	}
	if len(input.TestIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one test is required")
	}

	pet, err := s.pets.FindByID(ctx, input.PetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pet")
	}
	if pet.UserID != input.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "pet belongs to another user")
	}

	address, err := s.addresses.FindByID(ctx, input.AddressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load address")
	}
	if address.UserID != input.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "address belongs to another user")
	}

	breakdown, err := s.pricer.Quote(ctx, pricing.QuoteInput{
		UserID:     input.UserID,
		TestIDs:    input.TestIDs,
		DistanceKM: input.DistanceKM,
		CouponCode: input.CouponCode,
	})
	if err != nil {
		return nil, err
	}

	status := enums.BookingStatusPending
	if input.Confirmed {
		status = enums.BookingStatusConfirmed
	}

	booking := &models.Booking{
		UserID:      input.UserID,
		PetID:       input.PetID,
		AddressID:   input.AddressID,
		Status:      status,
		BookingDate: input.BookingDate.UTC(),
		Notes:       input.Notes,
		DistanceKM:  input.DistanceKM,
	}
	for _, line := range breakdown.Lines {
		booking.Items = append(booking.Items, models.BookingItem{
			TestID:    line.Test.ID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Status:    enums.BookingItemStatusPending,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, booking); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create booking")
		}
		if breakdown.CouponID != nil {
			if err := s.pricer.Redeem(ctx, tx, *breakdown.CouponID, input.UserID, booking.ID, breakdown.Discount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if breakdown.CouponID != nil {
		s.metrics.IncCouponRedemption()
	}

	created, err := s.repo.FindByID(ctx, booking.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload booking")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, bookingID uuid.UUID) (*models.Booking, error) {
	booking, err := s.find(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actorRole == enums.UserRoleUser && booking.UserID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "booking belongs to another user")
	}
	return booking, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, p pagination.Params) (*BookingPage, error) {
	page, err := s.repo.ListByUser(ctx, userID, p)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list bookings")
	}
	return page, nil
}

func (s *service) LookupByPhone(ctx context.Context, phone string) ([]models.Booking, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	bookings, err := s.repo.LookupByPhone(ctx, phone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup bookings by phone")
	}
	return bookings, nil
}

// Upcoming lists pending and confirmed bookings from now on. Comparison stays
// in UTC; LocalTime carries the configured-zone rendering for display.
func (s *service) Upcoming(ctx context.Context) ([]UpcomingBooking, error) {
	bookings, err := s.repo.Upcoming(ctx, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list upcoming bookings")
	}
	out := make([]UpcomingBooking, 0, len(bookings))
	for _, booking := range bookings {
		out = append(out, UpcomingBooking{
			Booking:   booking,
			LocalTime: booking.BookingDate.In(s.loc),
		})
	}
	return out, nil
}

func (s *service) UpdateStatus(ctx context.Context, bookingID uuid.UUID, next enums.BookingStatus) (*models.Booking, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown booking status %q", next))
	}

	booking, err := s.find(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move booking from %s to %s", booking.Status, next))
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.UpdateStatus(ctx, bookingID, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update booking status")
		}
		if itemStatus, ok := itemStatusFor(next); ok {
			if err := txRepo.UpdateItemStatuses(ctx, bookingID, itemStatus); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update booking item statuses")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.find(ctx, bookingID)
}

func (s *service) AssignStaff(ctx context.Context, bookingID, staffID uuid.UUID) (*models.Booking, error) {
	booking, err := s.find(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot assign staff to a closed booking")
	}

	member, err := s.staff.FindByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "staff member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load staff member")
	}
	if !member.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "staff member is deactivated")
	}

	if err := s.repo.AssignStaff(ctx, bookingID, staffID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign collection staff")
	}
	return s.find(ctx, bookingID)
}

func (s *service) find(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load booking")
	}
	return booking, nil
}

// itemStatusFor maps a booking status change onto the item lifecycle.
func itemStatusFor(status enums.BookingStatus) (enums.BookingItemStatus, bool) {
	switch status {
	case enums.BookingStatusCollected:
		return enums.BookingItemStatusCollected, true
	case enums.BookingStatusProcessing:
		return enums.BookingItemStatusProcessing, true
	case enums.BookingStatusDone:
		return enums.BookingItemStatusCompleted, true
	default:
		return "", false
	}
}

// dispatchNotification tells operations about the new booking. Best effort:
// a send failure is logged and never surfaces to the caller.
func (s *service) dispatchNotification(booking *models.Booking) {
	if s.opsNumber == "" {
		return
	}
	body := s.operationsMessage(booking)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logg.Error(context.Background(), "booking notification panicked", fmt.Errorf("%v", r))
			}
		}()
		sendCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		sendCtx = s.logg.WithBookingID(sendCtx, booking.ID.String())
		if err := s.notifier.Send(sendCtx, s.opsNumber, body, ""); err != nil {
			s.metrics.IncNotifyFailed()
			s.logg.Error(sendCtx, "booking notification failed", err)
			return
		}
		s.metrics.IncNotifySent()
	}()
}

func (s *service) operationsMessage(booking *models.Booking) string {
	var b strings.Builder
	b.WriteString("New booking")
	if booking.User != nil {
		fmt.Fprintf(&b, " for %s (%s)", booking.User.Name, booking.User.Phone)
	}
	fmt.Fprintf(&b, "\nWhen: %s", booking.BookingDate.In(s.loc).Format("Mon, 02 Jan 2006 3:04 PM"))
	if booking.Address != nil {
		addr := booking.Address
		fmt.Fprintf(&b, "\nWhere: %s, %s %s", addr.Line1, addr.City, addr.PostalCode)
		if addr.MapsLink != nil && *addr.MapsLink != "" {
			fmt.Fprintf(&b, "\nMap: %s", *addr.MapsLink)
		}
	}
	var names []string
	for _, item := range booking.Items {
		if item.Test != nil {
			label := item.Test.Name
			if item.Quantity > 1 {
				label = fmt.Sprintf("%s x%d", label, item.Quantity)
			}
			names = append(names, label)
		}
	}
	if len(names) > 0 {
		fmt.Fprintf(&b, "\nTests: %s", strings.Join(names, ", "))
	}
	return b.String()
}
