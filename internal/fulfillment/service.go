package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/pawdx/vetlab-backend/pkg/db"
	"github.com/pawdx/vetlab-backend/pkg/db/models"
	"github.com/pawdx/vetlab-backend/pkg/enums"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
	"github.com/pawdx/vetlab-backend/pkg/metrics"
	"github.com/pawdx/vetlab-backend/pkg/storage/supabase"
)

type bookingLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
}

// Service tracks report files and their lifecycle per booking item.
type Service interface {
	RecordReportUpload(ctx context.Context, input UploadInput) (*models.TestReport, error)
	AdvanceReportStatus(ctx context.Context, reportID uuid.UUID, next enums.ReportStatus) (*models.TestReport, error)
	ReportLink(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, reportID uuid.UUID) (string, error)
	UserOrders(ctx context.Context, userID uuid.UUID, bookingID, itemID *uuid.UUID) ([]BookingOrders, error)
	CreateBatchGroup(ctx context.Context, bookingID uuid.UUID, name string, notes *string) (*models.TestBatchGroup, error)
	ListBatchGroups(ctx context.Context, bookingID uuid.UUID) ([]models.TestBatchGroup, error)
	AttachReportToBatch(ctx context.Context, groupID, reportID uuid.UUID) error
}

// UploadInput is one report file for one booking item.
type UploadInput struct {
	BookingItemID uuid.UUID
	FileName      string
	Data          []byte
	ContentType   string
	UploaderID    uuid.UUID
	Findings      *string
}

// OrderLine is one test within the orders view.
type OrderLine struct {
	BookingItemID uuid.UUID          `json:"booking_item_id"`
	TestName      string             `json:"test_name"`
	Quantity      int                `json:"quantity"`
	ItemStatus    string             `json:"item_status"`
	ReportStatus  enums.ReportStatus `json:"report_status"`
	FileLink      string             `json:"file_link,omitempty"`
}

// BookingOrders groups the report lines of one booking.
type BookingOrders struct {
	BookingID   uuid.UUID   `json:"booking_id"`
	PetName     string      `json:"pet_name,omitempty"`
	BookingDate time.Time   `json:"booking_date"`
	Status      string      `json:"status"`
	Lines       []OrderLine `json:"lines"`
}

type service struct {
	repo     Repository
	bookings bookingLoader
	files    supabase.FileStore
	metrics  *metrics.BookingMetrics
	linkTTL  time.Duration
	now      func() time.Time
}

// NewService builds the fulfillment service.
func NewService(repo Repository, bookings bookingLoader, files supabase.FileStore, bookingMetrics *metrics.BookingMetrics, linkTTL time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("fulfillment repository required")
	}
	if bookings == nil {
		return nil, fmt.Errorf("booking loader required")
	}
	if files == nil {
		return nil, fmt.Errorf("file store required")
	}
	if linkTTL <= 0 {
		linkTTL = time.Hour
	}
	return &service{
		repo:     repo,
		bookings: bookings,
		files:    files,
		metrics:  bookingMetrics,
		linkTTL:  linkTTL,
		now:      time.Now,
	}, nil
}

// RecordReportUpload stores the file and creates or supersedes the item's
// report row. The first upload moves the report to generated; later uploads
// replace the file reference without touching lifecycle timestamps.
func (s *service) RecordReportUpload(ctx context.Context, input UploadInput) (*models.TestReport, error) {
	if len(input.Data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report file is empty")
	}

	item, err := s.repo.FindItem(ctx, input.BookingItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load booking item")
	}

	booking, err := s.bookings.FindByID(ctx, item.BookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load booking")
	}

	objectPath := reportObjectPath(booking, item.ID, input.FileName)
	contentType := input.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	if err := s.files.Put(ctx, objectPath, input.Data, contentType); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store report file")
	}
	fileURL, err := s.files.SignedURL(ctx, objectPath, s.linkTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign report url")
	}

	report, err := s.upsertReport(ctx, item.ID, objectPath, fileURL, input)
	if err != nil {
		return nil, err
	}
	s.metrics.IncReportUploaded()
	return report, nil
}

func (s *service) upsertReport(ctx context.Context, itemID uuid.UUID, objectPath, fileURL string, input UploadInput) (*models.TestReport, error) {
	existing, err := s.repo.FindReportByItem(ctx, itemID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load report")
	}

	if existing != nil {
		existing.ReportFilePath = objectPath
		existing.ReportFileURL = fileURL
		existing.UploadedBy = &input.UploaderID
		if input.Findings != nil {
			existing.Findings = input.Findings
		}
		if existing.Status == enums.ReportStatusPending {
			existing.Status = enums.ReportStatusGenerated
			now := s.now().UTC()
			existing.GeneratedAt = &now
		}
		if err := s.repo.UpdateReport(ctx, existing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update report")
		}
		return existing, nil
	}

	now := s.now().UTC()
	report := &models.TestReport{
		BookingItemID:  itemID,
		ReportFilePath: objectPath,
		ReportFileURL:  fileURL,
		Findings:       input.Findings,
		Status:         enums.ReportStatusGenerated,
		UploadedBy:     &input.UploaderID,
		GeneratedAt:    &now,
	}
	if err := s.repo.CreateReport(ctx, report); err != nil {
		// A concurrent first upload can win the unique race; fold into the
		// supersede path.
		if pkgdb.IsUniqueViolation(err, "") {
			return s.upsertReport(ctx, itemID, objectPath, fileURL, input)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create report")
	}
	return report, nil
}

// AdvanceReportStatus walks the report one step forward and stamps the
// matching timestamp. Timestamps never move once set.
func (s *service) AdvanceReportStatus(ctx context.Context, reportID uuid.UUID, next enums.ReportStatus) (*models.TestReport, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown report status %q", next))
	}

	report, err := s.findReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !report.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move report from %s to %s", report.Status, next))
	}

	report.Status = next
	now := s.now().UTC()
	switch next {
	case enums.ReportStatusGenerated:
		if report.GeneratedAt == nil {
			report.GeneratedAt = &now
		}
	case enums.ReportStatusVerified:
		if report.VerifiedAt == nil {
			report.VerifiedAt = &now
		}
	case enums.ReportStatusDelivered:
		if report.DeliveredAt == nil {
			report.DeliveredAt = &now
		}
	}

	if err := s.repo.UpdateReport(ctx, report); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update report status")
	}
	return report, nil
}

// ReportLink mints a fresh signed URL for the stored file. Customers can only
// reach reports on their own bookings.
func (s *service) ReportLink(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, reportID uuid.UUID) (string, error) {
	report, err := s.findReport(ctx, reportID)
	if err != nil {
		return "", err
	}
	if report.ReportFilePath == "" {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "report has no stored file")
	}

	if actorRole == enums.UserRoleUser {
		item, err := s.repo.FindItem(ctx, report.BookingItemID)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load booking item")
		}
		booking, err := s.bookings.FindByID(ctx, item.BookingID)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load booking")
		}
		if booking.UserID != actorID {
			return "", pkgerrors.New(pkgerrors.CodeForbidden, "report belongs to another user")
		}
	}

	url, err := s.files.SignedURL(ctx, report.ReportFilePath, s.linkTTL)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign report url")
	}
	return url, nil
}

// UserOrders flattens a user's bookings into the orders view. Bookings whose
// items have no reports yet still appear, with pending report status.
func (s *service) UserOrders(ctx context.Context, userID uuid.UUID, bookingID, itemID *uuid.UUID) ([]BookingOrders, error) {
	bookings, err := s.repo.BookingsWithReports(ctx, userID, bookingID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load bookings")
	}

	out := make([]BookingOrders, 0, len(bookings))
	for _, booking := range bookings {
		orders := BookingOrders{
			BookingID:   booking.ID,
			BookingDate: booking.BookingDate,
			Status:      booking.Status.String(),
		}
		if booking.Pet != nil {
			orders.PetName = booking.Pet.Name
		}
		for _, item := range booking.Items {
			if itemID != nil && item.ID != *itemID {
				continue
			}
			line := OrderLine{
				BookingItemID: item.ID,
				Quantity:      item.Quantity,
				ItemStatus:    item.Status.String(),
				ReportStatus:  enums.ReportStatusPending,
			}
			if item.Test != nil {
				line.TestName = item.Test.Name
			}
			if item.Report != nil {
				line.ReportStatus = item.Report.Status
				line.FileLink = item.Report.ReportFileURL
			}
			orders.Lines = append(orders.Lines, line)
		}
		out = append(out, orders)
	}
	return out, nil
}

func (s *service) CreateBatchGroup(ctx context.Context, bookingID uuid.UUID, name string, notes *string) (*models.TestBatchGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch group name is required")
	}
	if _, err := s.bookings.FindByID(ctx, bookingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load booking")
	}

	group := &models.TestBatchGroup{BookingID: bookingID, Name: name, Notes: notes}
	if err := s.repo.CreateBatchGroup(ctx, group); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create batch group")
	}
	return group, nil
}

func (s *service) ListBatchGroups(ctx context.Context, bookingID uuid.UUID) ([]models.TestBatchGroup, error) {
	groups, err := s.repo.ListBatchGroups(ctx, bookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list batch groups")
	}
	return groups, nil
}

// AttachReportToBatch links a report into a batch group on the same booking.
func (s *service) AttachReportToBatch(ctx context.Context, groupID, reportID uuid.UUID) error {
	group, err := s.repo.FindBatchGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "batch group not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load batch group")
	}

	report, err := s.findReport(ctx, reportID)
	if err != nil {
		return err
	}
	item, err := s.repo.FindItem(ctx, report.BookingItemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load booking item")
	}
	if item.BookingID != group.BookingID {
		return pkgerrors.New(pkgerrors.CodeValidation, "report and batch group belong to different bookings")
	}

	if err := s.repo.AttachReportToBatch(ctx, reportID, groupID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "attach report to batch group")
	}
	return nil
}

func (s *service) findReport(ctx context.Context, reportID uuid.UUID) (*models.TestReport, error) {
	report, err := s.repo.FindReport(ctx, reportID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "report not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load report")
	}
	return report, nil
}

// reportObjectPath keys stored files by customer phone and booking so the
// bucket stays browsable by operations staff.
func reportObjectPath(booking *models.Booking, itemID uuid.UUID, fileName string) string {
	phone := "unknown"
	if booking.User != nil && booking.User.Phone != "" {
		phone = sanitizePathSegment(booking.User.Phone)
	}
	ext := path.Ext(fileName)
	if ext == "" {
		ext = ".pdf"
	}
	return fmt.Sprintf("%s/booking_%s/report_%s%s", phone, booking.ID, itemID, ext)
}

func sanitizePathSegment(segment string) string {
	var b strings.Builder
	for _, r := range segment {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r == '+':
			// drop the plus so numbers stay one flat segment
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
