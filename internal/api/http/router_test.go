package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-dashboard/internal/aggregate"
	"github.com/spec-kit/ticket-dashboard/internal/api/http/handlers"
	"github.com/spec-kit/ticket-dashboard/internal/events"
	"github.com/spec-kit/ticket-dashboard/internal/observability"
	"github.com/spec-kit/ticket-dashboard/internal/records"
	"github.com/spec-kit/ticket-dashboard/internal/service"
	"github.com/spec-kit/ticket-dashboard/internal/session"
)

var now = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

type stubPinger struct {
	configured bool
	err        error
}

func (p stubPinger) Configured() bool           { return p.configured }
func (p stubPinger) Ping(context.Context) error { return p.err }

type deadlinePinger struct {
	deadline chan time.Time
}

func (p deadlinePinger) Configured() bool { return true }

func (p deadlinePinger) Ping(ctx context.Context) error {
	d, _ := ctx.Deadline()
	p.deadline <- d
	return nil
}

var testRows = []records.RawRow{
	{ID: "A", Department: "X", Status: "Open", ProblemCategory: "Network", AssignedTo: "Ravi", CreatedAt: "2025-06-01 09:00:00"},
	{ID: "B", Department: "X", Status: "Closed", ProblemCategory: "Network", AssignedTo: "Asha", CreatedAt: "2025-05-01 09:00:00"},
	{ID: "C", Department: "Y", Status: "Open", ProblemCategory: "Hardware", AssignedTo: "Ravi", CreatedAt: "2025-01-01 09:00:00"},
}

func newTestApp(t *testing.T, deps map[string]handlers.Pinger) *fiber.App {
	t.Helper()
	return newTestAppWithRows(t, testRows, deps)
}

func newTestAppWithRows(t *testing.T, rows []records.RawRow, deps map[string]handlers.Pinger) *fiber.App {
	t.Helper()
	store := records.Load(rows, now)
	metrics := observability.NewMetrics()
	svc := service.NewDashboardService(service.DashboardDependencies{
		Store:      store,
		Engine:     aggregate.NewEngine(aggregate.DefaultTopN),
		Sessions:   session.NewStore(time.Hour),
		Dispatcher: events.NewInMemoryDispatcher(),
		Metrics:    metrics,
	})

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:    handlers.NewHealthHandler("ticket-dashboard", "test", deps, store.Len, metrics),
		Dashboard: handlers.NewDashboardHandler(svc),
	})
	return app
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

type snapshotBody struct {
	SessionID string `json:"session_id"`
	Phase     string `json:"phase"`
	Filter    struct {
		Departments    []string `json:"departments"`
		SelectedStatus *string  `json:"selected_status"`
		DrillDown      *struct {
			Dimension string `json:"dimension"`
			Value     string `json:"value"`
		} `json:"drill_down"`
	} `json:"filter"`
	Dashboard *aggregate.Dashboard `json:"dashboard"`
}

func decodeSnapshot(t *testing.T, env envelope) snapshotBody {
	t.Helper()
	var snap snapshotBody
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	return snap
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil)

	status, env := do(t, app, http.MethodPost, "/v1/sessions", "")
	require.Equal(t, http.StatusCreated, status)
	created := decodeSnapshot(t, env)
	require.NotEmpty(t, created.SessionID)
	assert.Equal(t, "default", created.Phase)
	require.NotNil(t, created.Dashboard)
	assert.Equal(t, 3, created.Dashboard.ScopeTotal)

	base := "/v1/sessions/" + created.SessionID

	status, env = do(t, app, http.MethodPost, base+"/events", `{"type":"filter_changed","departments":["X"]}`)
	require.Equal(t, http.StatusOK, status)
	filtered := decodeSnapshot(t, env)
	assert.Equal(t, "filtered", filtered.Phase)
	assert.Equal(t, []string{"X"}, filtered.Filter.Departments)
	assert.Equal(t, 2, filtered.Dashboard.ScopeTotal)

	status, env = do(t, app, http.MethodPost, base+"/events", `{"type":"chart_clicked","dimension":"assigned_to","value":"Ravi"}`)
	require.Equal(t, http.StatusOK, status)
	drilled := decodeSnapshot(t, env)
	require.NotNil(t, drilled.Filter.DrillDown)
	assert.Equal(t, 1, drilled.Dashboard.DetailTotal)

	status, env = do(t, app, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, decodeSnapshot(t, env).Dashboard)

	status, env = do(t, app, http.MethodGet, base+"/dashboard", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, decodeSnapshot(t, env).Dashboard.DetailTotal)

	status, _ = do(t, app, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, status)

	status, env = do(t, app, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestEventErrors(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil)
	_, env := do(t, app, http.MethodPost, "/v1/sessions", "")
	base := "/v1/sessions/" + decodeSnapshot(t, env).SessionID

	tests := []struct {
		name string
		body string
		code string
	}{
		{"unknown type", `{"type":"zoom"}`, "UNKNOWN_EVENT"},
		{"unknown dimension", `{"type":"chart_clicked","dimension":"priority","value":"High"}`, "UNKNOWN_DIMENSION"},
		{"unknown status", `{"type":"status_card_clicked","status":"Escalated"}`, "UNKNOWN_STATUS"},
		{"inverted range", `{"type":"date_range_changed","start":"2025-03-01","end":"2025-02-01"}`, "INVALID_FILTER_RANGE"},
		{"bad date", `{"type":"date_range_changed","start":"soon","end":"2025-02-01"}`, "VALIDATION_FAILED"},
		{"malformed body", `{"type":`, "VALIDATION_FAILED"},
	}
	for _, tt := range tests {
		status, env := do(t, app, http.MethodPost, base+"/events", tt.body)
		assert.Equal(t, http.StatusBadRequest, status, tt.name)
		require.NotNil(t, env.Error, tt.name)
		assert.Equal(t, tt.code, env.Error.Code, tt.name)
	}

	status, env := do(t, app, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "default", decodeSnapshot(t, env).Phase, "rejected events leave the session unchanged")
}

func TestFacets(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil)
	status, env := do(t, app, http.MethodGet, "/v1/facets", "")
	require.Equal(t, http.StatusOK, status)

	var facets struct {
		Tickets     int      `json:"tickets"`
		Departments []string `json:"departments"`
		Statuses    []string `json:"statuses"`
		DateRange   *struct {
			Start time.Time `json:"start"`
			End   time.Time `json:"end"`
		} `json:"date_range"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &facets))
	assert.Equal(t, 3, facets.Tickets)
	assert.Equal(t, []string{"X", "Y"}, facets.Departments)
	assert.Len(t, facets.Statuses, 6)
	require.NotNil(t, facets.DateRange)
	assert.True(t, facets.DateRange.Start.Before(facets.DateRange.End))
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, map[string]handlers.Pinger{
		"postgres": stubPinger{},
		"redis":    stubPinger{configured: true},
	})

	status, _ := do(t, app, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, status)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var ready map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ready))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"postgres": "disabled", "redis": "ok"}, ready["dependencies"])

	do(t, app, http.MethodGet, "/v1/facets", "")
	status, env := do(t, app, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, status)
	var snap observability.MetricsSnapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.NotEmpty(t, snap.Requests)
}

func TestReadyReportsUnavailableDependency(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, map[string]handlers.Pinger{
		"redis": stubPinger{configured: true, err: errors.New("dial tcp: refused")},
	})

	status, env := do(t, app, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", env.Error.Code)
	assert.Equal(t, "dial tcp: refused", env.Error.Details["redis"])
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil)
	status, env := do(t, app, http.MethodGet, "/v2/nothing", "")
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestFacetsEmptyStore(t *testing.T) {
	t.Parallel()

	app := newTestAppWithRows(t, nil, nil)
	status, env := do(t, app, http.MethodGet, "/v1/facets", "")
	require.Equal(t, http.StatusOK, status)

	var facets map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &facets))
	assert.Equal(t, []any{}, facets["departments"])
	assert.Equal(t, []any{}, facets["locations"])
	assert.Nil(t, facets["date_range"])
	assert.Equal(t, now.Format(time.RFC3339), facets["loaded_at"])
}

func TestReadyUsesRequestContext(t *testing.T) {
	t.Parallel()

	pinger := deadlinePinger{deadline: make(chan time.Time, 1)}
	app := newTestApp(t, map[string]handlers.Pinger{"redis": pinger})

	start := time.Now()
	status, _ := do(t, app, http.MethodGet, "/health/ready", "")
	require.Equal(t, http.StatusOK, status)

	deadline := <-pinger.deadline
	require.False(t, deadline.IsZero())
	assert.WithinDuration(t, start.Add(time.Second), deadline, 500*time.Millisecond,
		"ping is bounded by the 1s request timeout, not its own 2s")
}
