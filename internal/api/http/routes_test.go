package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/park-factors/internal/factors"
	"github.com/i474232898/park-factors/internal/refresh"
	"github.com/i474232898/park-factors/internal/store"
)

type stubService struct {
	stored     factors.Result
	storedErr  error
	current    factors.Result
	currentErr error
	refreshErr error
	refreshes  int
}

func (s *stubService) Current(context.Context) (factors.Result, error) {
	return s.current, s.currentErr
}

func (s *stubService) Refresh(context.Context) (factors.Result, error) {
	s.refreshes++
	return s.current, s.refreshErr
}

func (s *stubService) Stored(context.Context) (factors.Result, error) {
	return s.stored, s.storedErr
}

var sample = factors.Result{
	LastUpdated: time.Date(2025, 7, 4, 18, 0, 0, 0, time.UTC),
	ParkFactors: []factors.Record{
		{Park: "Coors Field", HRFactor: 1.28, RunsFactor: 1.137, BaseHRFactor: 1.255, BaseRunsFactor: 1.115, Weather: "85°F, 7 mph wind"},
		{Park: "Fenway Park", HRFactor: 1.095, RunsFactor: 1.019, BaseHRFactor: 1.095, BaseRunsFactor: 1.019, Weather: "Weather unavailable"},
	},
}

func newApp(svc ParkFactorService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, svc)
	return app
}

func do(t *testing.T, app *fiber.App, method, target string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Origin", "https://example.com")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestParkFactors_Persisted(t *testing.T) {
	app := newApp(&stubService{stored: sample})

	resp, body := do(t, app, http.MethodGet, "/api/v1/park-factors")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "public, max-age=3600", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	got, err := factors.Unmarshal(body)
	require.NoError(t, err)
	assert.Equal(t, sample, got)
}

func TestParkFactors_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"nothing persisted", store.ErrNotFound, http.StatusNotFound},
		{"store failure", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(&stubService{storedErr: tt.err})
			resp, body := do(t, app, http.MethodGet, "/api/v1/park-factors")
			assert.Equal(t, tt.status, resp.StatusCode)

			var payload map[string]any
			require.NoError(t, json.Unmarshal(body, &payload))
			assert.Equal(t, true, payload["error"])
		})
	}
}

func TestParkFactorsLive(t *testing.T) {
	app := newApp(&stubService{current: sample})
	resp, _ := do(t, app, http.MethodGet, "/api/v1/park-factors/live")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	unavailable := fmt.Errorf("%w: registry corrupted", refresh.ErrUnavailable)
	app = newApp(&stubService{currentErr: unavailable})
	resp, _ = do(t, app, http.MethodGet, "/api/v1/park-factors/live")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	app = newApp(&stubService{currentErr: errors.New("boom")})
	resp, _ = do(t, app, http.MethodGet, "/api/v1/park-factors/live")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestRefresh(t *testing.T) {
	svc := &stubService{current: sample}
	resp, _ := do(t, newApp(svc), http.MethodPost, "/api/v1/park-factors/refresh")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, svc.refreshes)

	svc = &stubService{refreshErr: refresh.ErrUnavailable}
	resp, _ = do(t, newApp(svc), http.MethodPost, "/api/v1/park-factors/refresh")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestWeatherLookup(t *testing.T) {
	app := newApp(&stubService{stored: sample})

	resp, body := do(t, app, http.MethodGet, "/api/v1/weather?team=col")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "COL", payload["team"])
	assert.Equal(t, "Coors Field", payload["park"])
	assert.Equal(t, "85°F, 7 mph wind", payload["weather"])
	assert.Equal(t, 1.28, payload["hr_factor"])
	assert.Equal(t, 1.137, payload["runs_factor"])
}

func TestWeatherLookup_Errors(t *testing.T) {
	tests := []struct {
		name   string
		svc    *stubService
		target string
		status int
	}{
		{"missing team", &stubService{stored: sample}, "/api/v1/weather", http.StatusBadRequest},
		{"unknown team", &stubService{stored: sample}, "/api/v1/weather?team=XYZ", http.StatusNotFound},
		{"venue not in result", &stubService{stored: sample}, "/api/v1/weather?team=NYY", http.StatusNotFound},
		{"nothing persisted", &stubService{storedErr: store.ErrNotFound}, "/api/v1/weather?team=BOS", http.StatusNotFound},
		{"store failure", &stubService{storedErr: errors.New("boom")}, "/api/v1/weather?team=BOS", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := do(t, newApp(tt.svc), http.MethodGet, tt.target)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	resp, body := do(t, newApp(&stubService{}), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")
}
