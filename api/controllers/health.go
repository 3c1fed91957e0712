package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/streeteats-connect/api/responses"
	"github.com/angelmondragon/streeteats-connect/pkg/config"
	pkgerrors "github.com/angelmondragon/streeteats-connect/pkg/errors"
	"github.com/angelmondragon/streeteats-connect/pkg/logger"
)

const envHeader = "X-StreetEats-Env"

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and, when configured, Redis.
func HealthReady(cfg *config.Config, logg *logger.Logger, database pinger, cache pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{}
		if database != nil {
			if err := database.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database not ready"))
				return
			}
			checks["database"] = "ok"
		}
		if cache != nil {
			if err := cache.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis not ready"))
				return
			}
			checks["redis"] = "ok"
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
