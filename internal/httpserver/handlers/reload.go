package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/routine/internal/httpserver/deps"
	"github.com/MrSnakeDoc/routine/internal/logger"
)

// Reload queues a Homepage import: 202 when queued, 429 when one is already pending,
// 409 when no import source is configured.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.ReloadTrigger == nil {
			writeMessage(w, d.Logger, http.StatusConflict, "Import is not configured")
			return
		}

		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("manual import triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeMessage(w, d.Logger, http.StatusAccepted, "Reload triggered")
		default:
			d.Logger.Warn("import already queued",
				logger.String("remote_ip", r.RemoteAddr))
			writeMessage(w, d.Logger, http.StatusTooManyRequests, "Reload already in progress, please wait")
		}
	}
}
