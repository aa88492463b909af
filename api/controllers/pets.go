package controllers

import (
	"net/http"

	"github.com/pawdx/vetlab-backend/api/responses"
	"github.com/pawdx/vetlab-backend/api/validators"
	"github.com/pawdx/vetlab-backend/internal/pets"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
	"github.com/pawdx/vetlab-backend/pkg/logger"
)

type petPayload struct {
	Name      string   `json:"name" validate:"required,min=1,max=80"`
	Species   string   `json:"species" validate:"required"`
	Breed     *string  `json:"breed" validate:"omitempty,max=80"`
	AgeMonths *int     `json:"age_months" validate:"omitempty,gte=0,lte=600"`
	WeightKG  *float64 `json:"weight_kg" validate:"omitempty,gt=0,lte=500"`
	Notes     *string  `json:"notes" validate:"omitempty,max=1000"`
}

type petUpdatePayload struct {
	Name      *string  `json:"name" validate:"omitempty,min=1,max=80"`
	Species   *string  `json:"species"`
	Breed     *string  `json:"breed" validate:"omitempty,max=80"`
	AgeMonths *int     `json:"age_months" validate:"omitempty,gte=0,lte=600"`
	WeightKG  *float64 `json:"weight_kg" validate:"omitempty,gt=0,lte=500"`
	Notes     *string  `json:"notes" validate:"omitempty,max=1000"`
}

// PetCreate registers a pet under the caller's account.
func PetCreate(svc pets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pets service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body petPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pet, err := svc.Create(r.Context(), userID, pets.CreateInput{
			Name:      body.Name,
			Species:   body.Species,
			Breed:     body.Breed,
			AgeMonths: body.AgeMonths,
			WeightKG:  body.WeightKG,
			Notes:     validators.SanitizeFreeText(body.Notes, 1000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"pet": petView(pet)})
	}
}

// PetList returns the caller's pets.
func PetList(svc pets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pets service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"pets": petListView(list)})
	}
}

// PetGet returns one owned pet.
func PetGet(svc pets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pets service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		petID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pet, err := svc.Get(r.Context(), userID, petID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"pet": petView(pet)})
	}
}

// PetUpdate patches one owned pet.
func PetUpdate(svc pets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pets service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		petID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body petUpdatePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pet, err := svc.Update(r.Context(), userID, petID, pets.UpdateInput{
			Name:      body.Name,
			Species:   body.Species,
			Breed:     body.Breed,
			AgeMonths: body.AgeMonths,
			WeightKG:  body.WeightKG,
			Notes:     validators.SanitizeFreeText(body.Notes, 1000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"pet": petView(pet)})
	}
}

// PetDelete removes one owned pet.
func PetDelete(svc pets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pets service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		petID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), userID, petID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
