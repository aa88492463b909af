package controllers

import (
	"net/http"
	"strings"

	"github.com/pawdx/vetlab-backend/api/responses"
	"github.com/pawdx/vetlab-backend/api/validators"
	internalauth "github.com/pawdx/vetlab-backend/internal/auth"
	pkgauth "github.com/pawdx/vetlab-backend/pkg/auth"
	"github.com/pawdx/vetlab-backend/pkg/config"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
	"github.com/pawdx/vetlab-backend/pkg/logger"
)

type registerPayload struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,min=8,max=20"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type loginPayload struct {
	Phone    string `json:"phone" validate:"omitempty,min=8,max=20"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

type refreshPayload struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func tokenPairView(pair *internalauth.TokenPair) map[string]any {
	if pair == nil {
		return nil
	}
	return map[string]any{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}
}

// AuthRegister opens a customer account and returns the first token pair.
func AuthRegister(svc internalauth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body registerPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pair, user, err := svc.Register(r.Context(), internalauth.RegisterInput{
			Name:     body.Name,
			Email:    body.Email,
			Phone:    body.Phone,
			Password: body.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"user":   userView(user),
			"tokens": tokenPairView(pair),
		})
	}
}

// AuthLogin exchanges phone/email + password for a token pair.
func AuthLogin(svc internalauth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body loginPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pair, user, err := svc.Login(r.Context(), internalauth.LoginInput{
			Phone:    body.Phone,
			Email:    body.Email,
			Password: body.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"user":   userView(user),
			"tokens": tokenPairView(pair),
		})
	}
}

// AuthRefresh rotates the token pair.
func AuthRefresh(svc internalauth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body refreshPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pair, err := svc.Refresh(r.Context(), body.AccessToken, body.RefreshToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"tokens": tokenPairView(pair)})
	}
}

// AuthLogout revokes the session behind the presented access token.
func AuthLogout(svc internalauth.Service, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		raw := strings.TrimSpace(r.Header.Get("Authorization"))
		if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
			raw = strings.TrimSpace(raw[7:])
		}
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		claims, err := pkgauth.ParseAccessTokenAllowExpired(jwtCfg, raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
			return
		}

		if err := svc.Logout(r.Context(), claims.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
