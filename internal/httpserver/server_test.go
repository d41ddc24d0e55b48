package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/routine/internal/domain"
	"github.com/MrSnakeDoc/routine/internal/httpserver/deps"
	"github.com/MrSnakeDoc/routine/internal/logger"
	"github.com/MrSnakeDoc/routine/internal/metrics"
	"github.com/MrSnakeDoc/routine/internal/routine"
	"github.com/MrSnakeDoc/routine/internal/store"
	"github.com/MrSnakeDoc/routine/internal/store/memory"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestDeps(t *testing.T) (deps.Deps, *routine.Service) {
	t.Helper()
	log := logger.NewNop()
	svc := routine.NewService(memory.New(store.Options{}), log, nil)
	return deps.Deps{
		Logger:       log,
		StartTime:    fixedNow.Add(-time.Minute),
		Version:      "test",
		TimeNow:      func() time.Time { return fixedNow },
		CORSOrigins:  []string{"*"},
		RateBurst:    100,
		RatePerMin:   100,
		StoreBackend: "memory",
		Items:        svc,
	}, svc
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

type messageBody struct {
	Message string              `json:"message"`
	Errors  []domain.FieldError `json:"errors"`
}

func TestItemLifecycle(t *testing.T) {
	d, _ := newTestDeps(t)
	h := NewRouter(d)

	rec := do(t, h, http.MethodPost, "/api/items", `{"name":"  Gmail ","url":"https://gmail.com","description":"Mail"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[domain.RoutineItem](t, rec)
	assert.Equal(t, "Gmail", created.Name)
	assert.Equal(t, 0, created.Order)
	assert.Zero(t, created.ClickCount)
	assert.NotEmpty(t, created.ID)

	rec = do(t, h, http.MethodPost, "/api/items/"+created.ID+"/click", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/items/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[domain.RoutineItem](t, rec).ClickCount)

	rec = do(t, h, http.MethodPatch, "/api/items/"+created.ID, `{"description":null,"clickCount":99}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[domain.RoutineItem](t, rec)
	assert.Nil(t, updated.Description)
	assert.Equal(t, int64(1), updated.ClickCount)

	rec = do(t, h, http.MethodGet, "/api/items", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.RoutineItem](t, rec), 1)

	rec = do(t, h, http.MethodDelete, "/api/items/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/items/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Item not found", decode[messageBody](t, rec).Message)
}

func TestListEmptyIsArray(t *testing.T) {
	d, _ := newTestDeps(t)
	rec := do(t, NewRouter(d), http.MethodGet, "/api/items", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateValidationErrors(t *testing.T) {
	d, _ := newTestDeps(t)
	h := NewRouter(d)

	rec := do(t, h, http.MethodPost, "/api/items", `{"name":"","url":"not a url"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode[messageBody](t, rec)
	assert.Equal(t, "Validation error", body.Message)
	fields := make([]string, 0, len(body.Errors))
	for _, fe := range body.Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"name", "url"}, fields)

	rec = do(t, h, http.MethodPost, "/api/items", `{"name":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid JSON body", decode[messageBody](t, rec).Message)
}

func TestUpdateMissingItem(t *testing.T) {
	d, _ := newTestDeps(t)
	rec := do(t, NewRouter(d), http.MethodPatch, "/api/items/missing", `{"name":"x"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClickUnknownIsAccepted(t *testing.T) {
	d, _ := newTestDeps(t)
	rec := do(t, NewRouter(d), http.MethodPost, "/api/items/missing/click", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestReorder(t *testing.T) {
	ctx := context.Background()
	d, svc := newTestDeps(t)
	h := NewRouter(d)

	a, err := svc.Create(ctx, domain.CreateInput{Name: "A", URL: "https://a.example"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, domain.CreateInput{Name: "B", URL: "https://b.example"})
	require.NoError(t, err)

	rec := do(t, h, http.MethodPatch, "/api/items/reorder", `{"itemIds":["`+b.ID+`","`+a.ID+`"]}`)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, b.ID, items[0].ID)
	assert.Equal(t, a.ID, items[1].ID)

	for _, body := range []string{`{"itemIds":"nope"}`, `{}`, `{"itemIds":{"a":1}}`} {
		rec = do(t, h, http.MethodPatch, "/api/items/reorder", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "itemIds must be an array", decode[messageBody](t, rec).Message, body)
	}
}

func TestSearchAndStats(t *testing.T) {
	ctx := context.Background()
	d, svc := newTestDeps(t)
	h := NewRouter(d)

	_, err := svc.SeedDemo(ctx)
	require.NoError(t, err)

	rec := do(t, h, http.MethodGet, "/api/items/search?q=git", "")
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[[]domain.RoutineItem](t, rec)
	require.Len(t, found, 1)
	assert.Equal(t, "GitHub", found[0].Name)

	rec = do(t, h, http.MethodGet, "/api/items/search?q=%20%20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.RoutineItem](t, rec), 3)

	rec = do(t, h, http.MethodGet, "/api/items/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[domain.Stats](t, rec)
	assert.Equal(t, 3, stats.TotalItems)
	assert.Equal(t, int64(105), stats.TotalClicks)
	require.NotNil(t, stats.MostUsed)
	assert.Equal(t, "Gmail", stats.MostUsed.Name)
}

// failingItems answers every call with an error.
type failingItems struct {
	deps.Items
}

var errDown = errors.New("store down")

func (failingItems) List(context.Context) ([]domain.RoutineItem, error) { return nil, errDown }
func (failingItems) Ping(context.Context) error                         { return errDown }
func (failingItems) Count(context.Context) (int, error)                 { return 0, errDown }
func (failingItems) Reorder(context.Context, []string) error            { return errDown }

// countFailingItems pings fine but cannot count.
type countFailingItems struct {
	deps.Items
}

func (countFailingItems) Count(context.Context) (int, error) { return 0, errDown }

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	d, _ := newTestDeps(t)
	d.Items = failingItems{}
	h := NewRouter(d)

	rec := do(t, h, http.MethodGet, "/api/items", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to fetch items", decode[messageBody](t, rec).Message)
	assert.NotContains(t, rec.Body.String(), errDown.Error())

	rec = do(t, h, http.MethodPatch, "/api/items/reorder", `{"itemIds":[]}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to reorder items", decode[messageBody](t, rec).Message)
}

func TestHealthAndReadiness(t *testing.T) {
	d, _ := newTestDeps(t)

	rec := do(t, NewRouter(d), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	health := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", health["status"])
	assert.InDelta(t, 60.0, health["uptime_seconds"], 0.001)

	rec = do(t, NewRouter(d), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ready":true}`, rec.Body.String())

	healthy := d.Items
	d.Items = countFailingItems{Items: healthy}
	rec = do(t, NewRouter(d), http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), errDown.Error())
	assert.Equal(t, "store unavailable", decode[map[string]any](t, rec)["error"])

	d.Items = failingItems{}
	rec = do(t, NewRouter(d), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), errDown.Error())

	rec = do(t, NewRouter(d), http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), errDown.Error())
	status := decode[map[string]any](t, rec)
	assert.Equal(t, false, status["ok"])
	assert.Equal(t, "memory", status["store"])
	assert.Equal(t, "store unavailable", status["error"])
}

func TestReloadEndpoint(t *testing.T) {
	d, _ := newTestDeps(t)

	rec := do(t, NewRouter(d), http.MethodPost, "/reload", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	d.ReloadTrigger = make(chan struct{}, 1)
	h := NewRouter(d)

	rec = do(t, h, http.MethodPost, "/reload", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = do(t, h, http.MethodPost, "/reload", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	d, _ := newTestDeps(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/items", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()

	NewRouter(d).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestMutatingRoutesAreRateLimited(t *testing.T) {
	d, _ := newTestDeps(t)
	d.RateBurst = 2
	d.RatePerMin = 1
	h := NewRouter(d)

	for i := 0; i < 2; i++ {
		rec := do(t, h, http.MethodPost, "/api/items/x/click", "")
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
	rec := do(t, h, http.MethodPost, "/api/items/x/click", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "Too many requests", decode[messageBody](t, rec).Message)

	// reads are not limited
	rec = do(t, h, http.MethodGet, "/api/items", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHostGuardOnItems(t *testing.T) {
	d, _ := newTestDeps(t)
	d.AllowedHosts = []string{"routine.example"}
	h := NewRouter(d)

	rec := do(t, h, http.MethodGet, "/api/items", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Forbidden", decode[messageBody](t, rec).Message)

	req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
	req.Host = "routine.example:8080"
	ok := httptest.NewRecorder()
	h.ServeHTTP(ok, req)
	assert.Equal(t, http.StatusOK, ok.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	d, _ := newTestDeps(t)
	d.Metrics = metrics.New()
	h := NewRouter(d)

	do(t, h, http.MethodGet, "/api/items", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), `routine_http_requests_total{method="GET",route="/api/items`)
}
