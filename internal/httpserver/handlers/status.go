package handlers

import (
	"context"
	"net/http"

	"github.com/MrSnakeDoc/routine/internal/httpserver/deps"
	"github.com/MrSnakeDoc/routine/internal/logger"
)

type statusResponse struct {
	Store         string  `json:"store"`
	OK            bool    `json:"ok"`
	Items         int     `json:"items"`
	Error         string  `json:"error,omitempty"`
	ImportEnabled bool    `json:"import_enabled"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Status summarizes the store backend. It always answers 200; OK carries the ping result.
func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		resp := statusResponse{
			Store:         d.StoreBackend,
			ImportEnabled: d.ReloadTrigger != nil,
			UptimeSeconds: d.Now().Sub(d.StartTime).Seconds(),
		}

		if err := d.Items.Ping(ctx); err != nil {
			d.Logger.Warn("status ping failed", logger.Error(err))
			resp.Error = "store unavailable"
		} else if n, err := d.Items.Count(ctx); err != nil {
			d.Logger.Warn("status count failed", logger.Error(err))
			resp.Error = "store unavailable"
		} else {
			resp.OK = true
			resp.Items = n
		}

		writeJSON(w, d.Logger, http.StatusOK, resp)
	}
}
