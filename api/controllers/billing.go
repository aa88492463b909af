package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/pawdx/vetlab-backend/api/responses"
	"github.com/pawdx/vetlab-backend/internal/billing"
	"github.com/pawdx/vetlab-backend/pkg/enums"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
	"github.com/pawdx/vetlab-backend/pkg/logger"
)

// BillingList returns bill rows for a named bucket or an explicit UTC range.
// Query: bucket=today|month|pending|future|all, or start/end as RFC 3339.
func BillingList(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		startRaw := strings.TrimSpace(r.URL.Query().Get("start"))
		endRaw := strings.TrimSpace(r.URL.Query().Get("end"))
		if startRaw != "" || endRaw != "" {
			start, err := time.Parse(time.RFC3339, startRaw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid start"))
				return
			}
			end, err := time.Parse(time.RFC3339, endRaw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid end"))
				return
			}
			rows, err := svc.BillsForRange(r.Context(), start, end)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, map[string]any{"bills": rows})
			return
		}

		bucketRaw := strings.TrimSpace(r.URL.Query().Get("bucket"))
		if bucketRaw == "" {
			bucketRaw = string(enums.BillingBucketToday)
		}
		bucket, err := enums.ParseBillingBucket(bucketRaw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid bucket"))
			return
		}

		rows, err := svc.BillsForBucket(r.Context(), bucket)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"bills": rows})
	}
}

// BillingFinalize materializes the billing record of a booking.
func BillingFinalize(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		bookingID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Finalize(r.Context(), bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"billing_record": billingRecordView(record)})
	}
}

// BillingInvoice assigns an invoice number to a finalized record.
func BillingInvoice(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		bookingID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.MarkInvoiced(r.Context(), bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"billing_record": billingRecordView(record)})
	}
}

// BillingPay marks an invoiced record as settled.
func BillingPay(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		bookingID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.MarkPaid(r.Context(), bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"billing_record": billingRecordView(record)})
	}
}
