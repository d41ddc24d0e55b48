package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/routine/internal/domain"
	"github.com/MrSnakeDoc/routine/internal/httpserver/deps"
)

// ListItems returns every item sorted by order.
func ListItems(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := d.Items.List(r.Context())
		if err != nil {
			writeMessage(w, d.Logger, http.StatusInternalServerError, "Failed to fetch items")
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, nonNil(items))
	}
}

// GetItem returns one item.
func GetItem(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		it, err := d.Items.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeFailure(w, d.Logger, err, "Failed to fetch item")
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, it)
	}
}

// CreateItem validates the body and stores a new item (201).
func CreateItem(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.CreateInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeMessage(w, d.Logger, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		it, err := d.Items.Create(r.Context(), in)
		if err != nil {
			writeFailure(w, d.Logger, err, "Failed to create item")
			return
		}
		writeJSON(w, d.Logger, http.StatusCreated, it)
	}
}

// UpdateItem applies the supplied fields. Unknown keys, including id,
// createdAt and clickCount, are ignored.
func UpdateItem(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.UpdateInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeMessage(w, d.Logger, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		it, err := d.Items.Update(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			writeFailure(w, d.Logger, err, "Failed to update item")
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, it)
	}
}

// DeleteItem removes an item (204) or reports it missing (404).
func DeleteItem(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Items.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeFailure(w, d.Logger, err, "Failed to delete item")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ClickItem records one activation (204). Unknown ids are accepted silently.
func ClickItem(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Items.Click(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeMessage(w, d.Logger, http.StatusInternalServerError, "Failed to record click")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type reorderRequest struct {
	ItemIDs json.RawMessage `json:"itemIds"`
}

// ReorderItems sets order = position for the ids in {"itemIds": [...]} (204).
func ReorderItems(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reorderRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeMessage(w, d.Logger, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		ids, ok := parseIDList(req.ItemIDs)
		if !ok {
			writeMessage(w, d.Logger, http.StatusBadRequest, "itemIds must be an array")
			return
		}

		if err := d.Items.Reorder(r.Context(), ids); err != nil {
			writeMessage(w, d.Logger, http.StatusInternalServerError, "Failed to reorder items")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// parseIDList accepts only a JSON array of strings.
func parseIDList(raw json.RawMessage) ([]string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal(trimmed, &ids); err != nil {
		return nil, false
	}
	return ids, true
}

// SearchItems filters by ?q= on name and description.
func SearchItems(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := d.Items.Search(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			writeMessage(w, d.Logger, http.StatusInternalServerError, "Failed to search items")
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, nonNil(items))
	}
}

// ItemStats returns totals, the most used and the last added item.
func ItemStats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := d.Items.Stats(r.Context())
		if err != nil {
			writeMessage(w, d.Logger, http.StatusInternalServerError, "Failed to fetch stats")
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, stats)
	}
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil(items []domain.RoutineItem) []domain.RoutineItem {
	if items == nil {
		return []domain.RoutineItem{}
	}
	return items
}
