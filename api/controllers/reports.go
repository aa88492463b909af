package controllers

import (
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pawdx/vetlab-backend/api/middleware"
	"github.com/pawdx/vetlab-backend/api/responses"
	"github.com/pawdx/vetlab-backend/api/validators"
	"github.com/pawdx/vetlab-backend/internal/fulfillment"
	"github.com/pawdx/vetlab-backend/pkg/enums"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
	"github.com/pawdx/vetlab-backend/pkg/logger"
)

type reportStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

type batchGroupPayload struct {
	Name  string  `json:"name" validate:"required,min=1,max=160"`
	Notes *string `json:"notes" validate:"omitempty,max=1000"`
}

type attachReportPayload struct {
	ReportID uuid.UUID `json:"report_id" validate:"required"`
}

// ReportUpload stores a report file for one booking item. Multipart form with
// a "file" part and an optional "findings" field.
func ReportUpload(svc fulfillment.Service, maxUploadMB int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}

		uploaderID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if maxUploadMB <= 0 {
			maxUploadMB = 10
		}
		limit := int64(maxUploadMB) << 20
		r.Body = http.MaxBytesReader(w, r.Body, limit)

		if err := r.ParseMultipartForm(limit); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart request"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file part is required"))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload"))
			return
		}

		input := fulfillment.UploadInput{
			BookingItemID: itemID,
			FileName:      header.Filename,
			Data:          data,
			ContentType:   header.Header.Get("Content-Type"),
			UploaderID:    uploaderID,
		}
		if findings := r.FormValue("findings"); findings != "" {
			input.Findings = validators.SanitizeFreeText(&findings, 4000)
		}

		report, err := svc.RecordReportUpload(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"report": reportView(report)})
	}
}

// ReportAdvanceStatus moves a report one step forward.
func ReportAdvanceStatus(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}

		reportID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body reportStatusPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		next, err := enums.ParseReportStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		report, err := svc.AdvanceReportStatus(r.Context(), reportID, next)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"report": reportView(report)})
	}
}

// ReportLink returns a fresh signed download link.
func ReportLink(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reportID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role := enums.UserRole(middleware.RoleFromContext(r.Context()))
		link, err := svc.ReportLink(r.Context(), userID, role, reportID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"link": link})
	}
}

// MyOrders returns the caller's bookings with per-test report progress.
func MyOrders(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var bookingID, itemID *uuid.UUID
		if raw := strings.TrimSpace(r.URL.Query().Get("booking_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid booking_id"))
				return
			}
			bookingID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("item_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item_id"))
				return
			}
			itemID = &id
		}

		orders, err := svc.UserOrders(r.Context(), userID, bookingID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"orders": orders})
	}
}

// BatchGroupCreate opens a batch group under a booking.
func BatchGroupCreate(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}

		bookingID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body batchGroupPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		group, err := svc.CreateBatchGroup(r.Context(), bookingID, body.Name, validators.SanitizeFreeText(body.Notes, 1000))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"batch_group": batchGroupView(group)})
	}
}

// BatchGroupList returns the batch groups of a booking with their reports.
func BatchGroupList(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}

		bookingID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		groups, err := svc.ListBatchGroups(r.Context(), bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"batch_groups": batchGroupListView(groups)})
	}
}

// BatchGroupAttach files a report under a batch group.
func BatchGroupAttach(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}

		groupID, err := pathUUID(r, "group_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body attachReportPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.AttachReportToBatch(r.Context(), groupID, body.ReportID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "attached"})
	}
}
