package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/pawdx/vetlab-backend/api/responses"
	"github.com/pawdx/vetlab-backend/api/validators"
	"github.com/pawdx/vetlab-backend/internal/pricing"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
	"github.com/pawdx/vetlab-backend/pkg/logger"
)

type quotePayload struct {
	TestIDs    []uuid.UUID `json:"test_ids" validate:"required,min=1,dive,required"`
	DistanceKM *float64    `json:"distance_km" validate:"omitempty,gte=0"`
	CouponCode *string     `json:"coupon_code" validate:"omitempty,min=1,max=40"`
}

func breakdownView(breakdown *pricing.Breakdown) map[string]any {
	if breakdown == nil {
		return nil
	}
	lines := make([]map[string]any, 0, len(breakdown.Lines))
	for _, line := range breakdown.Lines {
		lines = append(lines, map[string]any{
			"test_id":    line.Test.ID,
			"test_name":  line.Test.Name,
			"quantity":   line.Quantity,
			"unit_price": line.UnitPrice,
			"subtotal":   line.UnitPrice.Mul(decimalFromInt(line.Quantity)),
		})
	}
	view := map[string]any{
		"lines":           lines,
		"base":            breakdown.Base,
		"discount":        breakdown.Discount,
		"distance_charge": breakdown.DistanceCharge,
		"final":           breakdown.Final,
	}
	if breakdown.CouponID != nil {
		view["coupon_id"] = breakdown.CouponID
	}
	return view
}

// QuotePrice prices an order without creating a booking.
func QuotePrice(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body quotePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		breakdown, err := svc.Quote(r.Context(), pricing.QuoteInput{
			UserID:     userID,
			TestIDs:    body.TestIDs,
			DistanceKM: body.DistanceKM,
			CouponCode: body.CouponCode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"quote": breakdownView(breakdown)})
	}
}
