package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/pawdx/vetlab-backend/api/responses"
	"github.com/pawdx/vetlab-backend/pkg/config"
	pkgerrors "github.com/pawdx/vetlab-backend/pkg/errors"
	"github.com/pawdx/vetlab-backend/pkg/logger"
)

type dependencyPinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-VetLab-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the hard dependencies before reporting ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, database, cache dependencyPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-VetLab-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := []struct {
			name string
			dep  dependencyPinger
		}{
			{"database", database},
			{"redis", cache},
		}
		for _, check := range checks {
			if check.dep == nil {
				continue
			}
			if err := check.dep.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, check.name+" unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
