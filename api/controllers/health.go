package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/speak2see-backend/api/responses"
	"github.com/angelmondragon/speak2see-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/speak2see-backend/pkg/errors"
	"github.com/angelmondragon/speak2see-backend/pkg/logger"
)

const (
	envHeader        = "X-Speak2See-Env"
	readinessTimeout = 3 * time.Second
)

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency. Nil pingers are skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	names := make([]string, 0, len(deps))
	for name, p := range deps {
		if p != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		// Every dependency is checked even when one fails, so the report is complete.
		results := make([]error, len(names))
		var g errgroup.Group
		for i, name := range names {
			g.Go(func() error {
				results[i] = deps[name].Ping(ctx)
				return nil
			})
		}
		_ = g.Wait()

		checks := make(map[string]string, len(names))
		healthy := true
		for i, name := range names {
			if err := results[i]; err != nil {
				checks[name] = "down"
				healthy = false
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", name), "readiness check failed", err)
				}
				continue
			}
			checks[name] = "ok"
		}

		if !healthy {
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").
				WithDetails(map[string]any{"checks": checks}))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
