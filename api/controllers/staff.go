package controllers

import (
	"net/http"
	"strings"

	"github.com/pawdx/vetlab-backend/api/responses"
	"github.com/pawdx/vetlab-backend/api/validators"
	"github.com/pawdx/vetlab-backend/internal/staff"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
	"github.com/pawdx/vetlab-backend/pkg/logger"
)

type staffPayload struct {
	Name         string  `json:"name" validate:"required,min=2,max=120"`
	Phone        string  `json:"phone" validate:"required,min=8,max=20"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Role         string  `json:"role" validate:"required"`
	AssignedArea *string `json:"assigned_area" validate:"omitempty,max=120"`
}

type staffUpdatePayload struct {
	Name         *string `json:"name" validate:"omitempty,min=2,max=120"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Role         *string `json:"role"`
	AssignedArea *string `json:"assigned_area" validate:"omitempty,max=120"`
	IsActive     *bool   `json:"is_active"`
}

// StaffCreate adds a staff member to the directory.
func StaffCreate(svc staff.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "staff service unavailable"))
			return
		}

		var body staffPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		member, err := svc.Create(r.Context(), staff.CreateInput{
			Name:         body.Name,
			Phone:        body.Phone,
			Email:        body.Email,
			Role:         body.Role,
			AssignedArea: body.AssignedArea,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"staff": staffView(member)})
	}
}

// StaffList returns the directory, optionally filtered by role / active flag.
func StaffList(svc staff.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "staff service unavailable"))
			return
		}

		input := staff.ListInput{ActiveOnly: queryBool(r, "active")}
		if role := strings.TrimSpace(r.URL.Query().Get("role")); role != "" {
			input.Role = &role
		}

		list, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"staff": staffListView(list)})
	}
}

// StaffGet returns one staff member.
func StaffGet(svc staff.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "staff service unavailable"))
			return
		}

		staffID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		member, err := svc.Get(r.Context(), staffID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"staff": staffView(member)})
	}
}

// StaffUpdate patches one staff member.
func StaffUpdate(svc staff.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "staff service unavailable"))
			return
		}

		staffID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body staffUpdatePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		member, err := svc.Update(r.Context(), staffID, staff.UpdateInput{
			Name:         body.Name,
			Email:        body.Email,
			Role:         body.Role,
			AssignedArea: body.AssignedArea,
			IsActive:     body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"staff": staffView(member)})
	}
}

// StaffDeactivate retires a staff member without deleting history.
func StaffDeactivate(svc staff.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "staff service unavailable"))
			return
		}

		staffID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Deactivate(r.Context(), staffID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}
