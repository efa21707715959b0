package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"reddit-bridge-wrapper/internal/config"
)

func TestHealthz(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewHealthHandler(&config.Config{}, "test")
	if err := h.Healthz(c); err != nil {
		t.Fatalf("Healthz() error = %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want %q", body["status"], "ok")
	}
}

func TestStatus(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/bridge/status", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	cfg := &config.Config{
		Bridge: config.BridgeConfig{
			URL:          "https://bridge.example.com/api/search",
			BypassSecret: "bypass-secret",
		},
		Auth: config.AuthConfig{WrapperKey: "wrapper-key"},
	}
	h := NewHealthHandler(cfg, "1.2.3")
	if err := h.Status(c); err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["version"] != "1.2.3" {
		t.Errorf("body.version = %v, want %q", body["version"], "1.2.3")
	}
	if body["bridge_host"] != "bridge.example.com" {
		t.Errorf("body.bridge_host = %v, want %q", body["bridge_host"], "bridge.example.com")
	}
	for _, key := range []string{"bridge_configured", "bypass_configured", "auth_enabled"} {
		if body[key] != true {
			t.Errorf("body.%s = %v, want true", key, body[key])
		}
	}

	raw := rec.Body.String()
	for _, secret := range []string{"bypass-secret", "wrapper-key"} {
		if strings.Contains(raw, secret) {
			t.Errorf("status leaked secret %q: %s", secret, raw)
		}
	}
}

func TestStatus_Unconfigured(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/bridge/status", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewHealthHandler(&config.Config{}, "dev")
	if err := h.Status(c); err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["bridge_configured"] != false {
		t.Errorf("body.bridge_configured = %v, want false", body["bridge_configured"])
	}
	if body["auth_enabled"] != false {
		t.Errorf("body.auth_enabled = %v, want false", body["auth_enabled"])
	}
}
