package bookings

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawdx/vetlab-backend/internal/pricing"
	"github.com/pawdx/vetlab-backend/pkg/db/models"
	"github.com/pawdx/vetlab-backend/pkg/enums"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
	"github.com/pawdx/vetlab-backend/pkg/logger"
	"github.com/pawdx/vetlab-backend/pkg/pagination"
)

var bookingDate = time.Date(2026, time.April, 2, 9, 30, 0, 0, time.UTC)

type stubBookingRepo struct {
	bookings   map[uuid.UUID]*models.Booking
	createErr  error
	created    *models.Booking
	itemStatus *enums.BookingItemStatus
	assigned   *uuid.UUID
}

func newStubBookingRepo() *stubBookingRepo {
	return &stubBookingRepo{bookings: map[uuid.UUID]*models.Booking{}}
}

func (s *stubBookingRepo) WithTx(_ *gorm.DB) Repository { return s }

func (s *stubBookingRepo) Create(_ context.Context, booking *models.Booking) error {
	if s.createErr != nil {
		return s.createErr
	}
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	s.created = booking
	s.bookings[booking.ID] = booking
	return nil
}

func (s *stubBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	booking, ok := s.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return booking, nil
}

func (s *stubBookingRepo) ListByUser(_ context.Context, userID uuid.UUID, _ pagination.Params) (*BookingPage, error) {
	page := &BookingPage{}
	for _, b := range s.bookings {
		if b.UserID == userID {
			page.Bookings = append(page.Bookings, *b)
		}
	}
	return page, nil
}

func (s *stubBookingRepo) LookupByPhone(_ context.Context, _ string) ([]models.Booking, error) {
	return nil, nil
}

func (s *stubBookingRepo) Upcoming(_ context.Context, _ time.Time) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range s.bookings {
		out = append(out, *b)
	}
	return out, nil
}

func (s *stubBookingRepo) UpdateStatus(_ context.Context, id uuid.UUID, status enums.BookingStatus) error {
	booking, ok := s.bookings[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	booking.Status = status
	return nil
}

func (s *stubBookingRepo) UpdateItemStatuses(_ context.Context, _ uuid.UUID, status enums.BookingItemStatus) error {
	s.itemStatus = &status
	return nil
}

func (s *stubBookingRepo) AssignStaff(_ context.Context, id uuid.UUID, staffID uuid.UUID) error {
	booking, ok := s.bookings[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	booking.CollectionStaffID = &staffID
	s.assigned = &staffID
	return nil
}

type stubPricer struct {
	breakdown *pricing.Breakdown
	quoteErr  error
	redeemErr error
	redeemed  bool
}

func (s *stubPricer) Quote(_ context.Context, _ pricing.QuoteInput) (*pricing.Breakdown, error) {
	if s.quoteErr != nil {
		return nil, s.quoteErr
	}
	return s.breakdown, nil
}

func (s *stubPricer) Redeem(_ context.Context, _ *gorm.DB, _, _, _ uuid.UUID, _ decimal.Decimal) error {
	if s.redeemErr != nil {
		return s.redeemErr
	}
	s.redeemed = true
	return nil
}

func (s *stubPricer) DistanceCharge(_ context.Context, _ float64, _ time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

type stubPetLoader struct{ pet *models.Pet }

func (s *stubPetLoader) FindByID(_ context.Context, id uuid.UUID) (*models.Pet, error) {
	if s.pet == nil || s.pet.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.pet, nil
}

type stubAddressLoader struct{ address *models.Address }

func (s *stubAddressLoader) FindByID(_ context.Context, id uuid.UUID) (*models.Address, error) {
	if s.address == nil || s.address.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.address, nil
}

type stubStaffLoader struct{ member *models.Staff }

func (s *stubStaffLoader) FindByID(_ context.Context, id uuid.UUID) (*models.Staff, error) {
	if s.member == nil || s.member.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.member, nil
}

type stubTx struct {
	calls int
	fail  bool
}

func (s *stubTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	s.calls++
	if err := fn(&gorm.DB{}); err != nil {
		return err
	}
	if s.fail {
		return errors.New("commit failed")
	}
	return nil
}

type stubNotifier struct {
	sent chan string
	err  error
}

func (s *stubNotifier) Send(_ context.Context, _, body, _ string) error {
	if s.sent != nil {
		s.sent <- body
	}
	return s.err
}

type fixture struct {
	svc      *service
	repo     *stubBookingRepo
	pricer   *stubPricer
	tx       *stubTx
	notifier *stubNotifier
	userID   uuid.UUID
	petID    uuid.UUID
	addrID   uuid.UUID
	testID   uuid.UUID
}

func newBookingFixture(t *testing.T) *fixture {
	t.Helper()
	userID := uuid.New()
	petID := uuid.New()
	addrID := uuid.New()
	testID := uuid.New()

	price, _ := decimal.NewFromString("500.00")
	breakdown := &pricing.Breakdown{
		Lines: []pricing.Line{{
			Test:      models.Test{ID: testID, Name: "Complete Blood Count", Price: price, IsActive: true},
			Quantity:  2,
			UnitPrice: price,
		}},
		Base:           price.Mul(decimal.NewFromInt(2)),
		Discount:       decimal.Zero,
		DistanceCharge: decimal.Zero,
		Final:          price.Mul(decimal.NewFromInt(2)),
	}

	repo := newStubBookingRepo()
	pricer := &stubPricer{breakdown: breakdown}
	tx := &stubTx{}
	notifier := &stubNotifier{sent: make(chan string, 1)}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	svc := &service{
		repo:      repo,
		pricer:    pricer,
		pets:      &stubPetLoader{pet: &models.Pet{ID: petID, UserID: userID, Name: "Bruno"}},
		addresses: &stubAddressLoader{address: &models.Address{ID: addrID, UserID: userID, Line1: "12 Lake Rd", City: "Pune", PostalCode: "411001"}},
		staff:     &stubStaffLoader{},
		tx:        tx,
		notifier:  notifier,
		logg:      logg,
		loc:       time.FixedZone("IST", 5*3600+30*60),
		opsNumber: "+911234567890",
		now:       func() time.Time { return bookingDate.Add(-24 * time.Hour) },
	}
	return &fixture{svc: svc, repo: repo, pricer: pricer, tx: tx, notifier: notifier,
		userID: userID, petID: petID, addrID: addrID, testID: testID}
}

func (f *fixture) createInput() CreateInput {
	return CreateInput{
		UserID:      f.userID,
		PetID:       f.petID,
		AddressID:   f.addrID,
		TestIDs:     []uuid.UUID{f.testID},
		BookingDate: bookingDate,
	}
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	domainErr := pkgerrors.As(err)
	if domainErr == nil {
		t.Fatalf("expected domain error, got %v", err)
	}
	if domainErr.Code() != code {
		t.Fatalf("expected %s, got %s (%s)", code, domainErr.Code(), domainErr.Message())
	}
}

func TestCreateSnapshotsUnitPrices(t *testing.T) {
	f := newBookingFixture(t)

	booking, err := f.svc.Create(context.Background(), f.createInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if len(booking.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(booking.Items))
	}
	item := booking.Items[0]
	if item.Quantity != 2 {
		t.Fatalf("quantity = %d, want 2", item.Quantity)
	}
	if item.UnitPrice.String() != "500" {
		t.Fatalf("unit price = %s, want 500", item.UnitPrice)
	}
	if item.Status != enums.BookingItemStatusPending {
		t.Fatalf("item status = %s", item.Status)
	}
	if f.tx.calls != 1 {
		t.Fatalf("expected a single transaction, got %d", f.tx.calls)
	}
}

func TestCreateRejectsForeignPet(t *testing.T) {
	f := newBookingFixture(t)
	f.svc.pets = &stubPetLoader{pet: &models.Pet{ID: f.petID, UserID: uuid.New()}}

	_, err := f.svc.Create(context.Background(), f.createInput())
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestCreateRejectsForeignAddress(t *testing.T) {
	f := newBookingFixture(t)
	f.svc.addresses = &stubAddressLoader{address: &models.Address{ID: f.addrID, UserID: uuid.New()}}

	_, err := f.svc.Create(context.Background(), f.createInput())
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestCreateRedeemFailureRollsBack(t *testing.T) {
	f := newBookingFixture(t)
	couponID := uuid.New()
	f.pricer.breakdown.CouponID = &couponID
	f.pricer.breakdown.Discount, _ = decimal.NewFromString("100.00")
	f.pricer.redeemErr = pkgerrors.New(pkgerrors.CodeConflict, "coupon has been fully redeemed")

	_, err := f.svc.Create(context.Background(), f.createInput())
	expectCode(t, err, pkgerrors.CodeConflict)
}

func TestCreateCommitFailureReturnsError(t *testing.T) {
	f := newBookingFixture(t)
	f.repo.createErr = errors.New("insert failed")

	_, err := f.svc.Create(context.Background(), f.createInput())
	expectCode(t, err, pkgerrors.CodeInternal)
}

func TestCreateDispatchesNotification(t *testing.T) {
	f := newBookingFixture(t)
	booking := &models.Booking{
		ID:          uuid.New(),
		UserID:      f.userID,
		BookingDate: bookingDate,
		User:        &models.User{Name: "Asha", Phone: "+919812345678"},
		Address:     &models.Address{Line1: "12 Lake Rd", City: "Pune", PostalCode: "411001"},
		Items: []models.BookingItem{{
			Quantity: 2,
			Test:     &models.Test{Name: "Complete Blood Count"},
		}},
	}
	f.repo.bookings[booking.ID] = booking
	f.repo.createErr = nil

	// Drive the dispatch path directly so the preloaded relations are present.
	f.svc.dispatchNotification(booking)

	select {
	case body := <-f.notifier.sent:
		if !strings.Contains(body, "Asha") {
			t.Fatalf("message missing customer: %q", body)
		}
		if !strings.Contains(body, "Complete Blood Count x2") {
			t.Fatalf("message missing test line: %q", body)
		}
		// 09:30 UTC renders as 15:00 IST.
		if !strings.Contains(body, "3:00 PM") {
			t.Fatalf("message not localized: %q", body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notification never dispatched")
	}
}

func TestCreateSurvivesNotifierFailure(t *testing.T) {
	f := newBookingFixture(t)
	f.notifier.err = errors.New("twilio down")
	f.notifier.sent = make(chan string, 1)

	booking, err := f.svc.Create(context.Background(), f.createInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if booking == nil {
		t.Fatal("expected booking despite notifier failure")
	}
	<-f.notifier.sent
}

func TestUpdateStatusTable(t *testing.T) {
	cases := []struct {
		from    enums.BookingStatus
		to      enums.BookingStatus
		allowed bool
	}{
		{enums.BookingStatusPending, enums.BookingStatusConfirmed, true},
		{enums.BookingStatusConfirmed, enums.BookingStatusCollected, true},
		{enums.BookingStatusCollected, enums.BookingStatusProcessing, true},
		{enums.BookingStatusProcessing, enums.BookingStatusDone, true},
		{enums.BookingStatusPending, enums.BookingStatusCancelled, true},
		{enums.BookingStatusProcessing, enums.BookingStatusCancelled, true},
		{enums.BookingStatusPending, enums.BookingStatusCollected, false},
		{enums.BookingStatusConfirmed, enums.BookingStatusDone, false},
		{enums.BookingStatusDone, enums.BookingStatusCancelled, false},
		{enums.BookingStatusCancelled, enums.BookingStatusConfirmed, false},
		{enums.BookingStatusCollected, enums.BookingStatusConfirmed, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			f := newBookingFixture(t)
			id := uuid.New()
			f.repo.bookings[id] = &models.Booking{ID: id, UserID: f.userID, Status: tc.from}

			updated, err := f.svc.UpdateStatus(context.Background(), id, tc.to)
			if tc.allowed {
				if err != nil {
					t.Fatalf("transition %s -> %s rejected: %v", tc.from, tc.to, err)
				}
				if updated.Status != tc.to {
					t.Fatalf("status = %s, want %s", updated.Status, tc.to)
				}
			} else {
				expectCode(t, err, pkgerrors.CodeStateConflict)
			}
		})
	}
}

func TestUpdateStatusCascadesItemStatus(t *testing.T) {
	f := newBookingFixture(t)
	id := uuid.New()
	f.repo.bookings[id] = &models.Booking{ID: id, Status: enums.BookingStatusConfirmed}

	if _, err := f.svc.UpdateStatus(context.Background(), id, enums.BookingStatusCollected); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if f.repo.itemStatus == nil || *f.repo.itemStatus != enums.BookingItemStatusCollected {
		t.Fatalf("item statuses not cascaded: %v", f.repo.itemStatus)
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	f := newBookingFixture(t)
	id := uuid.New()
	f.repo.bookings[id] = &models.Booking{ID: id, UserID: f.userID}

	if _, err := f.svc.Get(context.Background(), f.userID, enums.UserRoleUser, id); err != nil {
		t.Fatalf("owner read: %v", err)
	}

	_, err := f.svc.Get(context.Background(), uuid.New(), enums.UserRoleUser, id)
	expectCode(t, err, pkgerrors.CodeForbidden)

	if _, err := f.svc.Get(context.Background(), uuid.New(), enums.UserRoleStaff, id); err != nil {
		t.Fatalf("staff read: %v", err)
	}
}

func TestAssignStaffValidations(t *testing.T) {
	f := newBookingFixture(t)
	id := uuid.New()
	f.repo.bookings[id] = &models.Booking{ID: id, Status: enums.BookingStatusConfirmed}

	staffID := uuid.New()
	_, err := f.svc.AssignStaff(context.Background(), id, staffID)
	expectCode(t, err, pkgerrors.CodeNotFound)

	f.svc.staff = &stubStaffLoader{member: &models.Staff{ID: staffID, IsActive: false}}
	_, err = f.svc.AssignStaff(context.Background(), id, staffID)
	expectCode(t, err, pkgerrors.CodeValidation)

	f.svc.staff = &stubStaffLoader{member: &models.Staff{ID: staffID, IsActive: true, Role: enums.StaffRoleCollector}}
	booking, err := f.svc.AssignStaff(context.Background(), id, staffID)
	if err != nil {
		t.Fatalf("AssignStaff: %v", err)
	}
	if booking.CollectionStaffID == nil || *booking.CollectionStaffID != staffID {
		t.Fatal("staff not assigned")
	}
}
