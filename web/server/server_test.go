package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webExperiment = `
name: web-sphere
sample:
  shape: {type: sphere, radius: 0.004}
  material: {numberDensity: 0.0722, scatterXSection: 5.08, absorbXSection: 5.08}
instrument: {l1: 10, l2: 2, twoThetaMin: 30, twoThetaMax: 120, detectors: 2}
wavelength: {values: [1.0, 1.5]}
sofq: {x: [0, 2, 4, 6, 8, 10], y: [0.5, 1, 1, 1, 1, 1]}
simulation: {eventsSingle: 20, eventsMultiple: 20, scatterings: 2}
`

func TestHandleHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(0).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleValidate(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantKey  string
	}{
		{"valid", webExperiment, http.StatusOK, ""},
		{"zero density", strings.Replace(webExperiment, "numberDensity: 0.0722", "numberDensity: 0", 1), http.StatusUnprocessableEntity, "Sample"},
		{"bad yaml", "sample: [", http.StatusUnprocessableEntity, "experiment"},
		{"table file", strings.Replace(webExperiment, "sofq: {x: [0, 2, 4, 6, 8, 10], y: [0.5, 1, 1, 1, 1, 1]}", "sofq: {file: sofq.dat}", 1), http.StatusUnprocessableEntity, "experiment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/validate", strings.NewReader(tt.body))
			NewServer(0).Handler().ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			var response struct {
				Valid  bool              `json:"valid"`
				Issues map[string]string `json:"issues"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			assert.Equal(t, tt.wantKey == "", response.Valid)
			if tt.wantKey != "" {
				assert.Contains(t, response.Issues, tt.wantKey)
			}
		})
	}
}

func TestHandleValidate_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(0).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/validate", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleSimulate_StreamsProgressAndResult(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/simulate?seed=42&workers=2", strings.NewReader(webExperiment))
	NewServer(0).Handler().ServeHTTP(rec, req)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := parseSSE(t, rec.Body.String())
	assert.Equal(t, 2, countEvents(events, "progress"))
	require.Equal(t, 1, countEvents(events, "result"))
	assert.Equal(t, 1, countEvents(events, "complete"))
	assert.Zero(t, countEvents(events, "error"))

	for _, e := range events {
		if e.Type != "result" {
			continue
		}
		var result ResultUpdate
		require.NoError(t, json.Unmarshal([]byte(e.Data), &result))
		assert.Equal(t, "web-sphere", result.Name)
		require.Len(t, result.Workspaces, 3)
		assert.Equal(t, "Scatter_1_NoAbs", result.Workspaces[0].Name)
		assert.Equal(t, int64(2*2*(20+20+20)), result.Stats.EventsAccepted)
	}
}

func TestHandleSimulate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		body  string
	}{
		{"bad seed", "?seed=abc", webExperiment},
		{"too many events", "", strings.Replace(webExperiment, "eventsSingle: 20", "eventsSingle: 1000000", 1)},
		{"invalid inputs", "", strings.Replace(webExperiment, "numberDensity: 0.0722", "numberDensity: 0", 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/simulate"+tt.query, strings.NewReader(tt.body))
			NewServer(0).Handler().ServeHTTP(rec, req)

			events := parseSSE(t, rec.Body.String())
			assert.Equal(t, 1, countEvents(events, "error"))
			assert.Zero(t, countEvents(events, "complete"))
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler := NewServer(0).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/simulate", strings.NewReader(webExperiment)))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "muscat_intercept_calls_total")
	assert.Contains(t, rec.Body.String(), "muscat_events_accepted_total")
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    int
		wantErr bool
	}{
		{"default", "", 3, false},
		{"value", "n=5", 5, false},
		{"below range", "n=0", 0, true},
		{"above range", "n=11", 0, true},
		{"not a number", "n=x", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			got, err := parseIntParam(req.URL.Query(), "n", 3, 1, 10)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type sseEvent struct {
	Type string
	Data string
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	for _, block := range strings.Split(body, "\n\n") {
		if strings.TrimSpace(block) == "" {
			continue
		}
		var e sseEvent
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "event: "):
				e.Type = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				e.Data = strings.TrimPrefix(line, "data: ")
			}
		}
		events = append(events, e)
	}
	return events
}

func countEvents(events []sseEvent, eventType string) int {
	n := 0
	for _, e := range events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}
