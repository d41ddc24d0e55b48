package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/routine/internal/domain"
	"github.com/MrSnakeDoc/routine/internal/logger"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Message string              `json:"message"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, log logger.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("failed to write response", logger.Error(err))
	}
}

func writeMessage(w http.ResponseWriter, log logger.Logger, status int, msg string) {
	writeJSON(w, log, status, errorResponse{Message: msg})
}

// writeFailure maps a service error to its HTTP response.
// internalMsg is sent for anything that is neither a validation nor a not-found outcome.
func writeFailure(w http.ResponseWriter, log logger.Logger, err error, internalMsg string) {
	if ve, ok := domain.AsValidation(err); ok {
		writeJSON(w, log, http.StatusBadRequest, errorResponse{Message: "Validation error", Errors: ve.Errors})
		return
	}
	if domain.IsNotFound(err) {
		writeMessage(w, log, http.StatusNotFound, "Item not found")
		return
	}
	writeMessage(w, log, http.StatusInternalServerError, internalMsg)
}

// decodeJSON reads a JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
