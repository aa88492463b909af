package fulfillment

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pawdx/vetlab-backend/pkg/db/models"
	"github.com/pawdx/vetlab-backend/pkg/enums"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
)

var uploadTime = time.Date(2026, time.May, 5, 10, 0, 0, 0, time.UTC)

type stubFulfillmentRepo struct {
	Repository
	items    map[uuid.UUID]*models.BookingItem
	reports  map[uuid.UUID]*models.TestReport
	groups   map[uuid.UUID]*models.TestBatchGroup
	attached map[uuid.UUID]uuid.UUID

	userBookings []models.Booking
}

func newStubFulfillmentRepo() *stubFulfillmentRepo {
	return &stubFulfillmentRepo{
		items:    map[uuid.UUID]*models.BookingItem{},
		reports:  map[uuid.UUID]*models.TestReport{},
		groups:   map[uuid.UUID]*models.TestBatchGroup{},
		attached: map[uuid.UUID]uuid.UUID{},
	}
}

func (s *stubFulfillmentRepo) WithTx(_ *gorm.DB) Repository { return s }

func (s *stubFulfillmentRepo) FindItem(_ context.Context, itemID uuid.UUID) (*models.BookingItem, error) {
	item, ok := s.items[itemID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (s *stubFulfillmentRepo) FindReport(_ context.Context, reportID uuid.UUID) (*models.TestReport, error) {
	report, ok := s.reports[reportID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return report, nil
}

func (s *stubFulfillmentRepo) FindReportByItem(_ context.Context, itemID uuid.UUID) (*models.TestReport, error) {
	for _, report := range s.reports {
		if report.BookingItemID == itemID {
			return report, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubFulfillmentRepo) CreateReport(_ context.Context, report *models.TestReport) error {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	s.reports[report.ID] = report
	return nil
}

func (s *stubFulfillmentRepo) UpdateReport(_ context.Context, report *models.TestReport) error {
	s.reports[report.ID] = report
	return nil
}

func (s *stubFulfillmentRepo) CreateBatchGroup(_ context.Context, group *models.TestBatchGroup) error {
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	s.groups[group.ID] = group
	return nil
}

func (s *stubFulfillmentRepo) FindBatchGroup(_ context.Context, groupID uuid.UUID) (*models.TestBatchGroup, error) {
	group, ok := s.groups[groupID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return group, nil
}

func (s *stubFulfillmentRepo) AttachReportToBatch(_ context.Context, reportID, groupID uuid.UUID) error {
	s.attached[reportID] = groupID
	return nil
}

func (s *stubFulfillmentRepo) BookingsWithReports(_ context.Context, _ uuid.UUID, _, _ *uuid.UUID) ([]models.Booking, error) {
	return s.userBookings, nil
}

type stubBookingLoader struct {
	bookings map[uuid.UUID]*models.Booking
}

func (s *stubBookingLoader) FindByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	booking, ok := s.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return booking, nil
}

type stubFileStore struct {
	puts map[string][]byte
}

func (s *stubFileStore) Put(_ context.Context, path string, data []byte, _ string) error {
	if s.puts == nil {
		s.puts = map[string][]byte{}
	}
	s.puts[path] = data
	return nil
}

func (s *stubFileStore) SignedURL(_ context.Context, path string, _ time.Duration) (string, error) {
	return "https://files.test/" + path + "?sig=abc", nil
}

func newUploadFixture() (*service, *stubFulfillmentRepo, uuid.UUID, uuid.UUID) {
	repo := newStubFulfillmentRepo()
	bookingID := uuid.New()
	itemID := uuid.New()
	repo.items[itemID] = &models.BookingItem{ID: itemID, BookingID: bookingID}
	loader := &stubBookingLoader{bookings: map[uuid.UUID]*models.Booking{
		bookingID: {
			ID:     bookingID,
			UserID: uuid.New(),
			User:   &models.User{Phone: "+919812345678"},
		},
	}}
	svc := &service{
		repo:     repo,
		bookings: loader,
		files:    &stubFileStore{},
		linkTTL:  time.Hour,
		now:      func() time.Time { return uploadTime },
	}
	return svc, repo, bookingID, itemID
}

func TestRecordReportUploadCreatesGeneratedReport(t *testing.T) {
	svc, repo, bookingID, itemID := newUploadFixture()

	report, err := svc.RecordReportUpload(context.Background(), UploadInput{
		BookingItemID: itemID,
		FileName:      "cbc.pdf",
		Data:          []byte("pdf-bytes"),
		UploaderID:    uuid.New(),
	})
	if err != nil {
		t.Fatalf("RecordReportUpload: %v", err)
	}

	if report.Status != enums.ReportStatusGenerated {
		t.Fatalf("status = %s, want generated", report.Status)
	}
	if report.GeneratedAt == nil || !report.GeneratedAt.Equal(uploadTime) {
		t.Fatalf("generated_at = %v", report.GeneratedAt)
	}
	wantPath := fmt.Sprintf("919812345678/booking_%s/report_%s.pdf", bookingID, itemID)
	if report.ReportFilePath != wantPath {
		t.Fatalf("path = %q, want %q", report.ReportFilePath, wantPath)
	}
	if len(repo.reports) != 1 {
		t.Fatalf("expected 1 report row, got %d", len(repo.reports))
	}
}

func TestRecordReportUploadSupersedesExisting(t *testing.T) {
	svc, repo, _, itemID := newUploadFixture()

	first, err := svc.RecordReportUpload(context.Background(), UploadInput{
		BookingItemID: itemID,
		FileName:      "v1.pdf",
		Data:          []byte("v1"),
		UploaderID:    uuid.New(),
	})
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	firstGeneratedAt := *first.GeneratedAt

	svc.now = func() time.Time { return uploadTime.Add(time.Hour) }
	second, err := svc.RecordReportUpload(context.Background(), UploadInput{
		BookingItemID: itemID,
		FileName:      "v2.pdf",
		Data:          []byte("v2"),
		UploaderID:    uuid.New(),
	})
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}

	if len(repo.reports) != 1 {
		t.Fatalf("expected a single report row, got %d", len(repo.reports))
	}
	if second.ID != first.ID {
		t.Fatal("second upload should supersede, not create")
	}
	if !second.GeneratedAt.Equal(firstGeneratedAt) {
		t.Fatalf("generated_at moved: %v -> %v", firstGeneratedAt, second.GeneratedAt)
	}
}

func TestRecordReportUploadUnknownItem(t *testing.T) {
	svc, _, _, _ := newUploadFixture()

	_, err := svc.RecordReportUpload(context.Background(), UploadInput{
		BookingItemID: uuid.New(),
		Data:          []byte("pdf"),
	})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestAdvanceReportStatusTable(t *testing.T) {
	cases := []struct {
		from    enums.ReportStatus
		to      enums.ReportStatus
		allowed bool
	}{
		{enums.ReportStatusPending, enums.ReportStatusGenerated, true},
		{enums.ReportStatusGenerated, enums.ReportStatusVerified, true},
		{enums.ReportStatusVerified, enums.ReportStatusDelivered, true},
		{enums.ReportStatusPending, enums.ReportStatusVerified, false},
		{enums.ReportStatusGenerated, enums.ReportStatusDelivered, false},
		{enums.ReportStatusDelivered, enums.ReportStatusVerified, false},
		{enums.ReportStatusVerified, enums.ReportStatusGenerated, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			svc, repo, _, itemID := newUploadFixture()
			report := &models.TestReport{ID: uuid.New(), BookingItemID: itemID, Status: tc.from}
			repo.reports[report.ID] = report

			updated, err := svc.AdvanceReportStatus(context.Background(), report.ID, tc.to)
			if tc.allowed {
				if err != nil {
					t.Fatalf("transition %s -> %s rejected: %v", tc.from, tc.to, err)
				}
				if updated.Status != tc.to {
					t.Fatalf("status = %s, want %s", updated.Status, tc.to)
				}
			} else {
				domainErr := pkgerrors.As(err)
				if domainErr == nil || domainErr.Code() != pkgerrors.CodeStateConflict {
					t.Fatalf("expected STATE_CONFLICT, got %v", err)
				}
			}
		})
	}
}

func TestAdvanceReportStatusKeepsTimestamps(t *testing.T) {
	svc, repo, _, itemID := newUploadFixture()
	earlier := uploadTime.Add(-48 * time.Hour)
	report := &models.TestReport{
		ID:            uuid.New(),
		BookingItemID: itemID,
		Status:        enums.ReportStatusGenerated,
		GeneratedAt:   &earlier,
	}
	repo.reports[report.ID] = report

	updated, err := svc.AdvanceReportStatus(context.Background(), report.ID, enums.ReportStatusVerified)
	if err != nil {
		t.Fatalf("AdvanceReportStatus: %v", err)
	}
	if !updated.GeneratedAt.Equal(earlier) {
		t.Fatalf("generated_at moved to %v", updated.GeneratedAt)
	}
	if updated.VerifiedAt == nil || !updated.VerifiedAt.Equal(uploadTime) {
		t.Fatalf("verified_at = %v", updated.VerifiedAt)
	}
}

func TestAttachReportToBatchRejectsCrossBooking(t *testing.T) {
	svc, repo, _, itemID := newUploadFixture()
	report := &models.TestReport{ID: uuid.New(), BookingItemID: itemID}
	repo.reports[report.ID] = report

	group := &models.TestBatchGroup{ID: uuid.New(), BookingID: uuid.New(), Name: "morning run"}
	repo.groups[group.ID] = group

	err := svc.AttachReportToBatch(context.Background(), group.ID, report.ID)
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	if !strings.Contains(domainErr.Message(), "different bookings") {
		t.Fatalf("unexpected message %q", domainErr.Message())
	}
}

func TestAttachReportToBatchSameBooking(t *testing.T) {
	svc, repo, bookingID, itemID := newUploadFixture()
	report := &models.TestReport{ID: uuid.New(), BookingItemID: itemID}
	repo.reports[report.ID] = report

	group := &models.TestBatchGroup{ID: uuid.New(), BookingID: bookingID, Name: "morning run"}
	repo.groups[group.ID] = group

	if err := svc.AttachReportToBatch(context.Background(), group.ID, report.ID); err != nil {
		t.Fatalf("AttachReportToBatch: %v", err)
	}
	if repo.attached[report.ID] != group.ID {
		t.Fatal("report not attached")
	}
}

func TestUserOrdersToleratesMissingReports(t *testing.T) {
	svc, repo, bookingID, itemID := newUploadFixture()
	repo.userBookings = []models.Booking{{
		ID:          bookingID,
		Status:      enums.BookingStatusConfirmed,
		BookingDate: uploadTime,
		Pet:         &models.Pet{Name: "Bruno"},
		Items: []models.BookingItem{{
			ID:       itemID,
			Quantity: 1,
			Status:   enums.BookingItemStatusPending,
			Test:     &models.Test{Name: "Complete Blood Count"},
		}},
	}}

	orders, err := svc.UserOrders(context.Background(), uuid.New(), nil, nil)
	if err != nil {
		t.Fatalf("UserOrders: %v", err)
	}
	if len(orders) != 1 || len(orders[0].Lines) != 1 {
		t.Fatalf("unexpected shape: %+v", orders)
	}
	line := orders[0].Lines[0]
	if line.ReportStatus != enums.ReportStatusPending {
		t.Fatalf("report status = %s, want pending", line.ReportStatus)
	}
	if line.FileLink != "" {
		t.Fatalf("file link should be empty, got %q", line.FileLink)
	}
}
