package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pawdx/vetlab-backend/api/middleware"
	"github.com/pawdx/vetlab-backend/api/responses"
	"github.com/pawdx/vetlab-backend/api/validators"
	"github.com/pawdx/vetlab-backend/internal/bookings"
	"github.com/pawdx/vetlab-backend/pkg/enums"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
	"github.com/pawdx/vetlab-backend/pkg/logger"
	"github.com/pawdx/vetlab-backend/pkg/pagination"
)

type bookingCreatePayload struct {
	PetID       uuid.UUID   `json:"pet_id" validate:"required"`
	AddressID   uuid.UUID   `json:"address_id" validate:"required"`
	TestIDs     []uuid.UUID `json:"test_ids" validate:"required,min=1,dive,required"`
	BookingDate time.Time   `json:"booking_date" validate:"required"`
	Notes       *string     `json:"notes" validate:"omitempty,max=1000"`
	DistanceKM  *float64    `json:"distance_km" validate:"omitempty,gte=0"`
	CouponCode  *string     `json:"coupon_code" validate:"omitempty,min=1,max=40"`
	Confirmed   bool        `json:"confirmed"`
}

type bookingStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

type assignStaffPayload struct {
	StaffID uuid.UUID `json:"staff_id" validate:"required"`
}

type phoneLookupPayload struct {
	Phone string `json:"phone" validate:"required,min=8,max=20"`
}

// BookingCreate books tests for a pet at an address, atomically.
func BookingCreate(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body bookingCreatePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.Create(r.Context(), bookings.CreateInput{
			UserID:      userID,
			PetID:       body.PetID,
			AddressID:   body.AddressID,
			TestIDs:     body.TestIDs,
			BookingDate: body.BookingDate,
			Notes:       validators.SanitizeFreeText(body.Notes, 1000),
			DistanceKM:  body.DistanceKM,
			CouponCode:  body.CouponCode,
			Confirmed:   body.Confirmed,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"booking": bookingView(booking)})
	}
}

// BookingGet returns one booking to its owner or any staff actor.
func BookingGet(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bookingID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role := enums.UserRole(middleware.RoleFromContext(r.Context()))
		booking, err := svc.Get(r.Context(), userID, role, bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"booking": bookingView(booking)})
	}
}

// BookingListMine returns the caller's bookings, newest first.
func BookingListMine(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{Cursor: r.URL.Query().Get("cursor")}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, convErr := strconv.Atoi(raw)
			if convErr != nil || limit < 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a non-negative integer"))
				return
			}
			params.Limit = limit
		}

		page, err := svc.ListMine(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := map[string]any{"bookings": bookingListView(page.Bookings)}
		if page.NextCursor != "" {
			payload["next_cursor"] = page.NextCursor
		}
		responses.WriteSuccess(w, payload)
	}
}

// BookingLookupByPhone finds open bookings for a customer phone number.
func BookingLookupByPhone(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		phone := strings.TrimSpace(r.URL.Query().Get("phone"))
		if phone == "" {
			var body phoneLookupPayload
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			phone = body.Phone
		}

		list, err := svc.LookupByPhone(r.Context(), phone)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"bookings": bookingListView(list)})
	}
}

// BookingUpcoming returns pending and confirmed bookings from now on, with
// local display times.
func BookingUpcoming(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		list, err := svc.Upcoming(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"bookings": upcomingView(list)})
	}
}

// BookingUpdateStatus advances the booking state machine.
func BookingUpdateStatus(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		bookingID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body bookingStatusPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		next, err := enums.ParseBookingStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		booking, err := svc.UpdateStatus(r.Context(), bookingID, next)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"booking": bookingView(booking)})
	}
}

// BookingAssignStaff attaches a collection staff member to a booking.
func BookingAssignStaff(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		bookingID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body assignStaffPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.AssignStaff(r.Context(), bookingID, body.StaffID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"booking": bookingView(booking)})
	}
}
