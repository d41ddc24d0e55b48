package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandlerUsesRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.InstrumentHandler)
	r.Get("/api/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/items/{id}", "404"))
	assert.Equal(t, 3.0, got)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpInFlight))
}

func TestRecorders(t *testing.T) {
	m := New()

	m.RecordItemOp("create", ResultOK)
	m.RecordItemOp("create", ResultInvalid)
	m.RecordItemOp("create", ResultOK)
	m.RecordClick()
	m.RecordImport("services", 3, nil)
	m.RecordImport("services", 0, errors.New("boom"))
	m.SetStored(4, 105)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.itemOps.WithLabelValues("create", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.itemOps.WithLabelValues("create", ResultInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.clicks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.importRuns.WithLabelValues("services", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.importRuns.WithLabelValues("services", ResultError)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.importItems.WithLabelValues("services")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.storedItems))
	assert.Equal(t, 105.0, testutil.ToFloat64(m.storedClicks))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.RecordClick()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "routine_items_clicks_total 1"))
}
