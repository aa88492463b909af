package controllers

import (
	"net/http"
	"strings"

	"github.com/pawdx/vetlab-backend/api/responses"
	"github.com/pawdx/vetlab-backend/api/validators"
	"github.com/pawdx/vetlab-backend/internal/addresses"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
	"github.com/pawdx/vetlab-backend/pkg/logger"
	"github.com/pawdx/vetlab-backend/pkg/maps"
)

type addressPayload struct {
	Label      string   `json:"label" validate:"required,min=1,max=40"`
	Line1      string   `json:"line1" validate:"required,min=3,max=200"`
	Line2      *string  `json:"line2" validate:"omitempty,max=200"`
	City       string   `json:"city" validate:"required,min=2,max=80"`
	State      string   `json:"state" validate:"required,min=2,max=80"`
	PostalCode string   `json:"postal_code" validate:"required,min=4,max=12"`
	Country    string   `json:"country" validate:"omitempty,len=2"`
	Latitude   *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude  *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	MapsLink   *string  `json:"maps_link" validate:"omitempty,url"`
	IsDefault  bool     `json:"is_default"`
}

type addressUpdatePayload struct {
	Label      *string  `json:"label" validate:"omitempty,min=1,max=40"`
	Line1      *string  `json:"line1" validate:"omitempty,min=3,max=200"`
	Line2      *string  `json:"line2" validate:"omitempty,max=200"`
	City       *string  `json:"city" validate:"omitempty,min=2,max=80"`
	State      *string  `json:"state" validate:"omitempty,min=2,max=80"`
	PostalCode *string  `json:"postal_code" validate:"omitempty,min=4,max=12"`
	Latitude   *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude  *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	MapsLink   *string  `json:"maps_link" validate:"omitempty,url"`
}

// AddressCreate adds an address to the caller's book.
func AddressCreate(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "addresses service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addressPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addr, err := svc.Create(r.Context(), userID, addresses.CreateInput{
			Label:      body.Label,
			Line1:      body.Line1,
			Line2:      body.Line2,
			City:       body.City,
			State:      body.State,
			PostalCode: body.PostalCode,
			Country:    body.Country,
			Latitude:   body.Latitude,
			Longitude:  body.Longitude,
			MapsLink:   body.MapsLink,
			IsDefault:  body.IsDefault,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"address": addressView(addr)})
	}
}

// AddressList returns the caller's address book, default first.
func AddressList(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "addresses service unavailable"))
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

		responses.WriteSuccess(w, map[string]any{"addresses": addressListView(list)})
	}
}

// AddressGet returns one owned address.
func AddressGet(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "addresses service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		addressID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addr, err := svc.Get(r.Context(), userID, addressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"address": addressView(addr)})
	}
}

// AddressUpdate patches one owned address.
func AddressUpdate(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "addresses service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		addressID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addressUpdatePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addr, err := svc.Update(r.Context(), userID, addressID, addresses.UpdateInput{
			Label:      body.Label,
			Line1:      body.Line1,
			Line2:      body.Line2,
			City:       body.City,
			State:      body.State,
			PostalCode: body.PostalCode,
			Latitude:   body.Latitude,
			Longitude:  body.Longitude,
			MapsLink:   body.MapsLink,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"address": addressView(addr)})
	}
}

// AddressDelete removes one owned address.
func AddressDelete(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "addresses service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		addressID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), userID, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// AddressSetDefault flips the default flag to the named address.
func AddressSetDefault(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "addresses service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		addressID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetDefault(r.Context(), userID, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "default_set"})
	}
}

type resolvePlacePayload struct {
	PlaceID string `json:"place_id" validate:"required"`
}

// AddressSuggest returns autocomplete suggestions for the address form.
func AddressSuggest(client *maps.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "maps client unavailable"))
			return
		}

		query := strings.TrimSpace(r.URL.Query().Get("query"))
		if query == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "query is required"))
			return
		}

		req := maps.AutocompleteRequest{Input: query}
		if country := strings.TrimSpace(r.URL.Query().Get("country")); country != "" {
			req.IncludedRegionCodes = []string{country}
		}
		if language := strings.TrimSpace(r.URL.Query().Get("language")); language != "" {
			req.LanguageCode = language
		}

		suggestions, err := client.Autocomplete(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "address autocomplete"))
			return
		}

		responses.WriteSuccess(w, map[string]any{"suggestions": suggestions})
	}
}

// AddressResolve resolves a place id into a canonical address.
func AddressResolve(client *maps.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "maps client unavailable"))
			return
		}

		var body resolvePlacePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		place, err := client.ResolvePlace(r.Context(), body.PlaceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve place"))
			return
		}

		responses.WriteSuccess(w, map[string]any{"place": place})
	}
}
