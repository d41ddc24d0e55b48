package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/routine/internal/httpserver/deps"
	"github.com/MrSnakeDoc/routine/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/routine/internal/httpserver/mw"
)

func init() { Register(registerItems) }

func registerItems(r chi.Router, d deps.Deps) {
	r.Route("/api/items", func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))

		r.Get("/", handlers.ListItems(d))
		r.Get("/search", handlers.SearchItems(d))
		r.Get("/stats", handlers.ItemStats(d))
		r.Get("/{id}", handlers.GetItem(d))

		// one bucket set shared by every mutating route
		limited := r.With(mw.RateLimit(mw.RateLimitConfig{
			Burst:        d.RateBurst,
			RefillPerMin: d.RatePerMin,
			MaxEntries:   10000,
			TrustProxy:   d.TrustProxy,
			Now:          d.TimeNow,
		}))
		limited.Post("/", handlers.CreateItem(d))
		limited.Patch("/reorder", handlers.ReorderItems(d))
		limited.Patch("/{id}", handlers.UpdateItem(d))
		limited.Delete("/{id}", handlers.DeleteItem(d))
		limited.Post("/{id}/click", handlers.ClickItem(d))
	})
}
