package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"reddit-bridge-wrapper/internal/metrics"
)

// requestSamples gathers reddit_bridge_wrapper_http_requests_total as label sets with their counts.
func requestSamples(t *testing.T, m *metrics.Metrics) map[[3]string]float64 {
	t.Helper()
	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	out := make(map[[3]string]float64)
	for _, f := range families {
		if f.GetName() != "reddit_bridge_wrapper_http_requests_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			key := [3]string{labels["method"], labels["status_code"], labels["path_prefix"]}
			out[key] = metric.GetCounter().GetValue()
		}
	}
	return out
}

func TestMetricsMiddleware_Labels(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		path    string
		handler echo.HandlerFunc
		want    [3]string
	}{
		{
			name:   "forwarded search",
			method: http.MethodPost,
			path:   "/api/search",
			handler: func(c echo.Context) error {
				return c.JSON(http.StatusOK, map[string]bool{"ok": true})
			},
			want: [3]string{"POST", "200", "/api/search"},
		},
		{
			name:   "forwarder 405",
			method: http.MethodGet,
			path:   "/api/search",
			handler: func(c echo.Context) error {
				return c.JSON(http.StatusMethodNotAllowed, map[string]string{"error": "x"})
			},
			want: [3]string{"GET", "405", "/api/search"},
		},
		{
			name:   "echo HTTP error",
			method: http.MethodPost,
			path:   "/api/search",
			handler: func(c echo.Context) error {
				return echo.NewHTTPError(http.StatusRequestEntityTooLarge)
			},
			want: [3]string{"POST", "413", "/api/search"},
		},
		{
			name:   "non-standard method",
			method: "XYZZY",
			path:   "/api/search",
			handler: func(c echo.Context) error {
				return c.String(http.StatusOK, "ok")
			},
			want: [3]string{"other", "200", "/api/search"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New()
			e := echo.New()
			e.Use(MetricsMiddleware(m))
			e.Add(tt.method, tt.path, tt.handler)

			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			samples := requestSamples(t, m)
			if got := samples[tt.want]; got != 1 {
				t.Errorf("count for %v = %v, want 1 (samples: %v)", tt.want, got, samples)
			}
		})
	}
}

func TestMetricsMiddleware_RecordsDuration(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(MetricsMiddleware(m))
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "reddit_bridge_wrapper_http_request_duration_seconds" {
			for _, metric := range f.GetMetric() {
				if metric.GetHistogram().GetSampleCount() > 0 {
					found = true
				}
			}
		}
	}
	if !found {
		t.Error("expected reddit_bridge_wrapper_http_request_duration_seconds with at least one sample")
	}
}

func TestMetricsMiddleware_RouterNotFound(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(MetricsMiddleware(m))
	// No routes registered; request should yield 404.

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	want := [3]string{"GET", "404", "other"}
	if got := requestSamples(t, m)[want]; got != 1 {
		t.Errorf("count for %v = %v, want 1", want, got)
	}
}
