package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawdx/vetlab-backend/pkg/db/models"
	"github.com/pawdx/vetlab-backend/pkg/enums"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type distancePricer interface {
	DistanceCharge(ctx context.Context, distanceKM float64, at time.Time) (decimal.Decimal, error)
}

// Service aggregates booking amounts into billing views and invoice records.
type Service interface {
	BillsForRange(ctx context.Context, start, end time.Time) ([]BillRow, error)
	BillsForBucket(ctx context.Context, bucket enums.BillingBucket) ([]BillRow, error)
	Finalize(ctx context.Context, bookingID uuid.UUID) (*models.BillingRecord, error)
	MarkInvoiced(ctx context.Context, bookingID uuid.UUID) (*models.BillingRecord, error)
	MarkPaid(ctx context.Context, bookingID uuid.UUID) (*models.BillingRecord, error)
}

// BillRow is one booking in the billing dashboard.
type BillRow struct {
	BookingID uuid.UUID       `json:"booking_id"`
	Customer  string          `json:"customer"`
	Phone     string          `json:"phone"`
	Date      time.Time       `json:"date"`
	LocalDate time.Time       `json:"local_date"`
	Status    string          `json:"status"`
	Tests     []string        `json:"tests"`
	Amount    decimal.Decimal `json:"amount"`
}

type service struct {
	repo   Repository
	pricer distancePricer
	tx     txRunner
	loc    *time.Location
	now    func() time.Time
}

// NewService builds the billing service. Bucket boundaries are computed in
// loc; all storage comparisons stay UTC.
func NewService(repo Repository, pricer distancePricer, tx txRunner, loc *time.Location) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("billing repository required")
	}
	if pricer == nil {
		return nil, fmt.Errorf("distance pricer required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{repo: repo, pricer: pricer, tx: tx, loc: loc, now: time.Now}, nil
}

func (s *service) BillsForRange(ctx context.Context, start, end time.Time) ([]BillRow, error) {
	if !end.After(start) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "range end must be after start")
	}
	bookings, err := s.repo.BookingsInRange(ctx, start.UTC(), end.UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load bookings in range")
	}
	return s.rows(bookings), nil
}

func (s *service) BillsForBucket(ctx context.Context, bucket enums.BillingBucket) ([]BillRow, error) {
	if !bucket.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown billing bucket %q", bucket))
	}

	now := s.now()
	var (
		bookings []models.Booking
		err      error
	)
	switch bucket {
	case enums.BillingBucketToday:
		start, end := localDayBounds(now, s.loc)
		bookings, err = s.repo.BookingsInRange(ctx, start, end)
	case enums.BillingBucketMonth:
		start, end := localMonthBounds(now, s.loc)
		bookings, err = s.repo.BookingsInRange(ctx, start, end)
	case enums.BillingBucketPending:
		bookings, err = s.repo.PendingBookings(ctx, now.UTC())
	case enums.BillingBucketFuture:
		bookings, err = s.repo.FutureBookings(ctx, now.UTC())
	case enums.BillingBucketAll:
		bookings, err = s.repo.AllBookings(ctx)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load bookings for bucket")
	}
	return s.rows(bookings), nil
}

// Finalize materializes the booking's billing record from its line-item
// snapshots and the redemption row, and moves it draft -> finalized.
func (s *service) Finalize(ctx context.Context, bookingID uuid.UUID) (*models.BillingRecord, error) {
	booking, err := s.repo.FindBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load booking")
	}
	if booking.Status == enums.BookingStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot bill a cancelled booking")
	}

	record, err := s.repo.FindRecordByBooking(ctx, bookingID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load billing record")
	}
	if record != nil {
		if record.Status != enums.BillingStatusDraft {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("billing record is already %s", record.Status))
		}
		if err := finalizeRecord(ctx, s.repo, record, s.now().UTC()); err != nil {
			return nil, err
		}
		return record, nil
	}

	base := decimal.Zero
	for _, item := range booking.Items {
		base = base.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	discount := decimal.Zero
	redemption, err := s.repo.RedemptionForBooking(ctx, bookingID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load coupon redemption")
	}
	if redemption != nil {
		discount = redemption.DiscountAmount
	}

	// Price the trip against the config that was active when the booking
	// was made, so the invoice matches the original quote.
	distance := decimal.Zero
	if booking.DistanceKM != nil {
		distance, err = s.pricer.DistanceCharge(ctx, *booking.DistanceKM, booking.CreatedAt)
		if err != nil {
			return nil, err
		}
	}

	final := base.Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}
	final = final.Add(distance)

	record = &models.BillingRecord{
		BookingID:      bookingID,
		BaseAmount:     base,
		DiscountAmount: discount,
		DistanceCharge: distance,
		FinalAmount:    final,
		BillingPeriod:  booking.BookingDate.In(s.loc).Format("2006-01"),
		Status:         enums.BillingStatusDraft,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.CreateRecord(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create billing record")
		}
		return finalizeRecord(ctx, txRepo, record, s.now().UTC())
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func finalizeRecord(ctx context.Context, repo Repository, record *models.BillingRecord, now time.Time) error {
	record.Status = enums.BillingStatusFinalized
	record.FinalizedAt = &now
	if err := repo.UpdateRecord(ctx, record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finalize billing record")
	}
	return nil
}

// MarkInvoiced assigns the next invoice number in the record's period and
// moves the record finalized -> invoiced.
func (s *service) MarkInvoiced(ctx context.Context, bookingID uuid.UUID) (*models.BillingRecord, error) {
	record, err := s.findRecord(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !record.Status.CanTransitionTo(enums.BillingStatusInvoiced) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot invoice a %s billing record", record.Status))
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		seq, err := txRepo.CountRecordsForPeriod(ctx, record.BillingPeriod)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count billing records")
		}
		invoice := fmt.Sprintf("INV-%s-%04d", record.BillingPeriod, seq+1)
		record.InvoiceNumber = &invoice
		record.Status = enums.BillingStatusInvoiced
		now := s.now().UTC()
		record.InvoicedAt = &now
		if err := txRepo.UpdateRecord(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark billing record invoiced")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) MarkPaid(ctx context.Context, bookingID uuid.UUID) (*models.BillingRecord, error) {
	record, err := s.findRecord(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !record.Status.CanTransitionTo(enums.BillingStatusPaid) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot mark a %s billing record paid", record.Status))
	}

	record.Status = enums.BillingStatusPaid
	now := s.now().UTC()
	record.PaidAt = &now
	if err := s.repo.UpdateRecord(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark billing record paid")
	}
	return record, nil
}

func (s *service) findRecord(ctx context.Context, bookingID uuid.UUID) (*models.BillingRecord, error) {
	record, err := s.repo.FindRecordByBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "billing record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load billing record")
	}
	return record, nil
}

func (s *service) rows(bookings []models.Booking) []BillRow {
	rows := make([]BillRow, 0, len(bookings))
	for _, booking := range bookings {
		row := BillRow{
			BookingID: booking.ID,
			Date:      booking.BookingDate,
			LocalDate: booking.BookingDate.In(s.loc),
			Status:    booking.Status.String(),
			Amount:    decimal.Zero,
		}
		if booking.User != nil {
			row.Customer = booking.User.Name
			row.Phone = booking.User.Phone
		}
		for _, item := range booking.Items {
			row.Amount = row.Amount.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
			if item.Test != nil {
				row.Tests = append(row.Tests, item.Test.Name)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// localDayBounds returns the UTC instants bracketing the local calendar day
// containing now.
func localDayBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

// localMonthBounds returns the UTC instants bracketing the local calendar
// month containing now.
func localMonthBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 1, 0).UTC()
}
