package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pawdx/vetlab-backend/api/responses"
	"github.com/pawdx/vetlab-backend/api/validators"
	"github.com/pawdx/vetlab-backend/internal/catalog"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
	"github.com/pawdx/vetlab-backend/pkg/logger"
)

type categoryPayload struct {
	Name         string  `json:"name" validate:"required,min=2,max=120"`
	Description  *string `json:"description" validate:"omitempty,max=1000"`
	DisplayOrder int     `json:"display_order" validate:"gte=0"`
	IsActive     *bool   `json:"is_active"`
}

type testPayload struct {
	CategoryID      uuid.UUID `json:"category_id" validate:"required"`
	Name            string    `json:"name" validate:"required,min=2,max=160"`
	Code            string    `json:"code" validate:"required,min=2,max=40"`
	Description     *string   `json:"description" validate:"omitempty,max=2000"`
	Price           string    `json:"price" validate:"required"`
	DiscountedPrice *string   `json:"discounted_price"`
	SampleType      *string   `json:"sample_type" validate:"omitempty,max=80"`
	TurnaroundHours *int      `json:"turnaround_hours" validate:"omitempty,gt=0"`
}

type testUpdatePayload struct {
	Name            *string `json:"name" validate:"omitempty,min=2,max=160"`
	Description     *string `json:"description" validate:"omitempty,max=2000"`
	Price           *string `json:"price"`
	DiscountedPrice *string `json:"discounted_price"`
	ClearDiscount   bool    `json:"clear_discount"`
	SampleType      *string `json:"sample_type" validate:"omitempty,max=80"`
	TurnaroundHours *int    `json:"turnaround_hours" validate:"omitempty,gt=0"`
	IsActive        *bool   `json:"is_active"`
}

func parseAmount(value, field string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	if amount.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, field+" cannot be negative")
	}
	return amount, nil
}

// CategoryCreate adds a catalog category.
func CategoryCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body categoryPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.CreateCategory(r.Context(), catalog.CategoryInput{
			Name:         body.Name,
			Description:  body.Description,
			DisplayOrder: body.DisplayOrder,
			IsActive:     body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"category": categoryView(category)})
	}
}

// CategoryList returns catalog categories in display order.
func CategoryList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		list, err := svc.ListCategories(r.Context(), !queryBool(r, "include_inactive"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"categories": categoryListView(list)})
	}
}

// CategoryUpdate patches one category.
func CategoryUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categoryID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body categoryPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.UpdateCategory(r.Context(), categoryID, catalog.CategoryInput{
			Name:         body.Name,
			Description:  body.Description,
			DisplayOrder: body.DisplayOrder,
			IsActive:     body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"category": categoryView(category)})
	}
}

// TestCreate adds a diagnostic test to the catalog.
func TestCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body testPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := parseAmount(body.Price, "price")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := catalog.TestInput{
			CategoryID:      body.CategoryID,
			Name:            body.Name,
			Code:            body.Code,
			Description:     body.Description,
			Price:           price,
			SampleType:      body.SampleType,
			TurnaroundHours: body.TurnaroundHours,
		}
		if body.DiscountedPrice != nil {
			discounted, err := parseAmount(*body.DiscountedPrice, "discounted_price")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.DiscountedPrice = &discounted
		}

		test, err := svc.CreateTest(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"test": testView(test)})
	}
}

// TestList returns catalog tests, optionally scoped to a category.
func TestList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var categoryID *uuid.UUID
		if raw := strings.TrimSpace(r.URL.Query().Get("category_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category_id"))
				return
			}
			categoryID = &id
		}

		list, err := svc.ListTests(r.Context(), categoryID, !queryBool(r, "include_inactive"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"tests": testListView(list)})
	}
}

// TestGet returns one catalog test.
func TestGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		testID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		test, err := svc.GetTest(r.Context(), testID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"test": testView(test)})
	}
}

// TestUpdate patches one catalog test.
func TestUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		testID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body testUpdatePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.TestUpdateInput{
			Name:            body.Name,
			Description:     body.Description,
			ClearDiscount:   body.ClearDiscount,
			SampleType:      body.SampleType,
			TurnaroundHours: body.TurnaroundHours,
			IsActive:        body.IsActive,
		}
		if body.Price != nil {
			price, err := parseAmount(*body.Price, "price")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Price = &price
		}
		if body.DiscountedPrice != nil {
			discounted, err := parseAmount(*body.DiscountedPrice, "discounted_price")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.DiscountedPrice = &discounted
		}

		test, err := svc.UpdateTest(r.Context(), testID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"test": testView(test)})
	}
}

// TestRemove deactivates a referenced test or deletes an unreferenced one.
func TestRemove(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		testID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveTest(r.Context(), testID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}
