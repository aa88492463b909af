package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pawdx/vetlab-backend/api/responses"
	"github.com/pawdx/vetlab-backend/api/validators"
	"github.com/pawdx/vetlab-backend/internal/pricing"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
	"github.com/pawdx/vetlab-backend/pkg/logger"
)

type offerPayload struct {
	Name              string      `json:"name" validate:"required,min=2,max=160"`
	Description       *string     `json:"description" validate:"omitempty,max=1000"`
	DiscountType      string      `json:"discount_type" validate:"required"`
	DiscountValue     string      `json:"discount_value" validate:"required"`
	ApplicableTests   []uuid.UUID `json:"applicable_tests"`
	MinimumOrderValue *string     `json:"minimum_order_value"`
	StartsAt          time.Time   `json:"starts_at" validate:"required"`
	EndsAt            time.Time   `json:"ends_at" validate:"required"`
}

type offerUpdatePayload struct {
	Name          *string    `json:"name" validate:"omitempty,min=2,max=160"`
	Description   *string    `json:"description" validate:"omitempty,max=1000"`
	DiscountValue *string    `json:"discount_value"`
	EndsAt        *time.Time `json:"ends_at"`
	IsActive      *bool      `json:"is_active"`
}

type couponPayload struct {
	Code           string    `json:"code" validate:"required,min=3,max=40"`
	OfferID        uuid.UUID `json:"offer_id" validate:"required"`
	MaxUses        int       `json:"max_uses" validate:"required,gt=0"`
	MaxUsesPerUser int       `json:"max_uses_per_user" validate:"omitempty,gt=0"`
	StartsAt       time.Time `json:"starts_at" validate:"required"`
	EndsAt         time.Time `json:"ends_at" validate:"required"`
}

type couponUpdatePayload struct {
	MaxUses        *int       `json:"max_uses" validate:"omitempty,gt=0"`
	MaxUsesPerUser *int       `json:"max_uses_per_user" validate:"omitempty,gt=0"`
	EndsAt         *time.Time `json:"ends_at"`
	IsActive       *bool      `json:"is_active"`
}

type distanceConfigPayload struct {
	Name              string     `json:"name" validate:"required,min=2,max=160"`
	BaseCharge        string     `json:"base_charge" validate:"required"`
	ChargePerKM       string     `json:"charge_per_km" validate:"required"`
	MaxFreeDistanceKM float64    `json:"max_free_distance_km" validate:"gte=0"`
	EffectiveFrom     time.Time  `json:"effective_from" validate:"required"`
	EffectiveUntil    *time.Time `json:"effective_until"`
}

// OfferCreate adds a discount offer.
func OfferCreate(svc pricing.Admin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing admin unavailable"))
			return
		}

		var body offerPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		value, err := parseAmount(body.DiscountValue, "discount_value")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		minimum := decimal.Zero
		if body.MinimumOrderValue != nil {
			minimum, err = parseAmount(*body.MinimumOrderValue, "minimum_order_value")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		offer, err := svc.CreateOffer(r.Context(), pricing.OfferInput{
			Name:              body.Name,
			Description:       body.Description,
			DiscountType:      body.DiscountType,
			DiscountValue:     value,
			ApplicableTests:   body.ApplicableTests,
			MinimumOrderValue: minimum,
			StartsAt:          body.StartsAt,
			EndsAt:            body.EndsAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"offer": offerView(offer)})
	}
}

// OfferList returns offers, optionally active-only.
func OfferList(svc pricing.Admin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing admin unavailable"))
			return
		}

		list, err := svc.ListOffers(r.Context(), queryBool(r, "active"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]map[string]any, 0, len(list))
		for i := range list {
			views = append(views, offerView(&list[i]))
		}
		responses.WriteSuccess(w, map[string]any{"offers": views})
	}
}

// OfferUpdate patches one offer.
func OfferUpdate(svc pricing.Admin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing admin unavailable"))
			return
		}

		offerID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body offerUpdatePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := pricing.OfferUpdateInput{
			Name:        body.Name,
			Description: body.Description,
			EndsAt:      body.EndsAt,
			IsActive:    body.IsActive,
		}
		if body.DiscountValue != nil {
			value, err := parseAmount(*body.DiscountValue, "discount_value")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.DiscountValue = &value
		}

		offer, err := svc.UpdateOffer(r.Context(), offerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"offer": offerView(offer)})
	}
}

// CouponCreate mints a coupon code for an offer.
func CouponCreate(svc pricing.Admin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing admin unavailable"))
			return
		}

		var body couponPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.CreateCoupon(r.Context(), pricing.CouponInput{
			Code:           body.Code,
			OfferID:        body.OfferID,
			MaxUses:        body.MaxUses,
			MaxUsesPerUser: body.MaxUsesPerUser,
			StartsAt:       body.StartsAt,
			EndsAt:         body.EndsAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"coupon": couponView(coupon)})
	}
}

// CouponList returns coupons, optionally active-only.
func CouponList(svc pricing.Admin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing admin unavailable"))
			return
		}

		list, err := svc.ListCoupons(r.Context(), queryBool(r, "active"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]map[string]any, 0, len(list))
		for i := range list {
			views = append(views, couponView(&list[i]))
		}
		responses.WriteSuccess(w, map[string]any{"coupons": views})
	}
}

// CouponUpdate patches one coupon.
func CouponUpdate(svc pricing.Admin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing admin unavailable"))
			return
		}

		couponID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body couponUpdatePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.UpdateCoupon(r.Context(), couponID, pricing.CouponUpdateInput{
			MaxUses:        body.MaxUses,
			MaxUsesPerUser: body.MaxUsesPerUser,
			EndsAt:         body.EndsAt,
			IsActive:       body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"coupon": couponView(coupon)})
	}
}

// DistanceConfigCreate adds a distance pricing window.
func DistanceConfigCreate(svc pricing.Admin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing admin unavailable"))
			return
		}

		var body distanceConfigPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		base, err := parseAmount(body.BaseCharge, "base_charge")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		perKM, err := parseAmount(body.ChargePerKM, "charge_per_km")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cfg, err := svc.CreateDistanceConfig(r.Context(), pricing.DistanceConfigInput{
			Name:              body.Name,
			BaseCharge:        base,
			ChargePerKM:       perKM,
			MaxFreeDistanceKM: body.MaxFreeDistanceKM,
			EffectiveFrom:     body.EffectiveFrom,
			EffectiveUntil:    body.EffectiveUntil,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"config": distanceConfigView(cfg)})
	}
}

// DistanceConfigList returns all distance pricing windows, newest first.
func DistanceConfigList(svc pricing.Admin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing admin unavailable"))
			return
		}

		list, err := svc.ListDistanceConfigs(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]map[string]any, 0, len(list))
		for i := range list {
			views = append(views, distanceConfigView(&list[i]))
		}
		responses.WriteSuccess(w, map[string]any{"configs": views})
	}
}
