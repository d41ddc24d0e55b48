package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/routine/internal/httpserver/deps"
	"github.com/MrSnakeDoc/routine/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/routine/internal/httpserver/mw"
)

// ops answers describe live state, so none of them may be cached
func init() { Register(registerOps, mw.NoStore) }

func registerOps(r chi.Router, d deps.Deps) {
	cidrs := mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)

	r.Get("/healthz", handlers.Healthz(d))
	r.With(cidrs).Get("/readyz", handlers.Readyz(d))
	r.With(cidrs).Get("/status", handlers.Status(d))
	r.With(cidrs, mw.EnforceHost(d.AllowedHosts, d.Logger)).Post("/reload", handlers.Reload(d))

	if d.Metrics != nil {
		r.With(cidrs).Handle("/metrics", d.Metrics.Handler())
	}
}
