// Package handler is the Vercel serverless entry point for the bridge wrapper.
package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"reddit-bridge-wrapper/internal/client"
	"reddit-bridge-wrapper/internal/config"
	bridge "reddit-bridge-wrapper/internal/handler"
	"reddit-bridge-wrapper/internal/middleware"
	"reddit-bridge-wrapper/internal/service"
)

var (
	logger      *slog.Logger
	bridgeHTTP  *client.BridgeClient
	defaultEcho *echo.Echo
)

func init() {
	cfg := config.FromEnv()
	logger = newLogger(cfg.Log.Level)
	bridgeHTTP = client.NewBridgeClient(cfg, logger, nil)
	defaultEcho = newEcho(cfg)
}

// Handler is the entry point for Vercel's Go runtime. Every method and path
// routed to the function reaches the forwarder.
func Handler(w http.ResponseWriter, r *http.Request) {
	defaultEcho.ServeHTTP(w, r)
}

func newEcho(cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dB", cfg.Server.BodyMaxBytes)))
	e.Use(middleware.SecurityHeaders())

	e.Any("/", search)
	e.Any("/*", search)
	e.RouteNotFound("/", search)
	e.RouteNotFound("/*", search)
	return e
}

// search reads configuration on every invocation so environment changes
// apply without a redeploy of warm instances.
func search(c echo.Context) error {
	cfg := config.FromEnv()
	f := service.NewForwarder(bridgeHTTP, cfg, logger)
	return bridge.NewBridgeHandler(f, logger, nil).Handle(c)
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}
