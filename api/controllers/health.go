package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/rdelacruz/freshmarket-backend/api/responses"
	"github.com/rdelacruz/freshmarket-backend/pkg/config"
	pkgerrors "github.com/rdelacruz/freshmarket-backend/pkg/errors"
	"github.com/rdelacruz/freshmarket-backend/pkg/logger"
)

const envHeader = "X-FreshMarket-Env"

// Pinger is the readiness probe surface backing dependencies expose.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when the backing store and the change feed
// both answer a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, db, feed Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		if db != nil {
			if err := db.Ping(ctx); err != nil {
				checks["database"] = "unreachable"
				healthy = false
			} else {
				checks["database"] = "ok"
			}
		}
		if feed != nil {
			if err := feed.Ping(ctx); err != nil {
				checks["change_feed"] = "unreachable"
				healthy = false
			} else {
				checks["change_feed"] = "ok"
			}
		}

		if !healthy {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency not ready").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
