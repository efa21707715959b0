package handler

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"reddit-bridge-wrapper/internal/config"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	cfg     *config.Config
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, v Version) *HealthHandler {
	return &HealthHandler{cfg: cfg, version: v}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Status reports the build version and which bridge settings are present.
// Secrets are never echoed; only the bridge host is shown.
func (h *HealthHandler) Status(c echo.Context) error {
	var host string
	if u, err := url.Parse(h.cfg.Bridge.URL); err == nil {
		host = u.Host
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":            "ok",
		"version":           string(h.version),
		"bridge_configured": h.cfg.Bridge.URL != "",
		"bridge_host":       host,
		"bypass_configured": h.cfg.Bridge.BypassSecret != "",
		"auth_enabled":      h.cfg.Auth.WrapperKey != "",
	})
}
