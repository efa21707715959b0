package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reddit-bridge-wrapper/internal/config"
	"reddit-bridge-wrapper/internal/metrics"
)

// SearchPath is the forwarding endpoint. Every method is routed to it so
// non-POST requests get the forwarder's JSON 405.
const SearchPath = "/api/search"

// RegisterRoutes wires all route handlers onto the Echo instance.
func RegisterRoutes(e *echo.Echo, bridge *BridgeHandler, health *HealthHandler) {
	e.GET("/healthz", health.Healthz)
	e.GET("/bridge/status", health.Status)

	e.Any(SearchPath, bridge.Handle)
	// Any covers a fixed method list; other methods fall through to the
	// path's not-found handler, which must still be the forwarder's 405.
	e.RouteNotFound(SearchPath, bridge.Handle)
}

// RegisterMetrics exposes the registry at the configured path. It does
// nothing when metrics are disabled.
func RegisterMetrics(e *echo.Echo, cfg *config.Config, m *metrics.Metrics) {
	if !cfg.Metrics.Enabled || m == nil {
		return
	}
	e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
}
