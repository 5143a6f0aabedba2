package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/mercapi/mercapi-backend/api/responses"
	"github.com/mercapi/mercapi-backend/pkg/config"
	"github.com/mercapi/mercapi-backend/pkg/db"
	pkgerrors "github.com/mercapi/mercapi-backend/pkg/errors"
	"github.com/mercapi/mercapi-backend/pkg/logger"
	"github.com/mercapi/mercapi-backend/pkg/redis"
)

const readyCheckTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Mercapi-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and redis. Any failing dependency makes
// the endpoint fail so the instance is pulled out of rotation.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Mercapi-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		checks := map[string]string{}

		if dbP == nil {
			checks["db"] = "not configured"
		} else if err := dbP.Ping(ctx); err != nil {
			checks["db"] = err.Error()
		}
		if redisP == nil {
			checks["redis"] = "not configured"
		} else if err := redisP.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
		}

		if len(checks) > 0 {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency not ready").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
