// Package config handles TOML and environment configuration loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Environment variables read by the forwarder.
const (
	EnvBridgeURL    = "REDDIT_BRIDGE_URL"
	EnvBypassSecret = "REDDIT_BRIDGE_BYPASS_SECRET"
	EnvWrapperKey   = "MCP_WRAPPER_KEY"
	EnvLogLevel     = "LOG_LEVEL"
)

// placeholderSecret is the value shipped in example configs.
const placeholderSecret = "YOUR_SECRET_HERE"

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/reddit-bridge-wrapper/config.toml",
	"configs/config.toml",
}

// reservedRoutes are served by the wrapper itself and cannot host metrics.
var reservedRoutes = []string{"/api/search", "/healthz", "/bridge/status"}

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config       string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host         string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port         int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	LogLevel     string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
	BridgeURL    string `kong:"name='bridge-url',help='Upstream bridge endpoint (overrides config).',env='REDDIT_BRIDGE_URL'"`
	BypassSecret string `kong:"help='Protection bypass secret sent to the bridge (overrides config).',env='REDDIT_BRIDGE_BYPASS_SECRET'"`
	WrapperKey   string `kong:"help='Shared key callers must send in x-mcp-key (overrides config).',env='MCP_WRAPPER_KEY'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Bridge  BridgeConfig  `toml:"bridge"`
	Auth    AuthConfig    `toml:"auth"`
	Log     LogConfig     `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"` // 0 means "use default" (8000)
	BodyMaxBytes int64  `toml:"body_max_bytes"`
}

// BridgeConfig holds the upstream bridge endpoint and its connection settings.
// An empty URL is valid at load time; the forwarder rejects requests until it is set.
type BridgeConfig struct {
	URL             string `toml:"url"`
	BypassSecret    string `toml:"bypass_secret"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	IdleConnections int    `toml:"idle_connections"`
}

// AuthConfig holds caller authentication settings. An empty key disables authentication.
type AuthConfig struct {
	WrapperKey string `toml:"wrapper_key"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads the TOML config file, if any, and applies CLI overrides.
// An explicit path (via --config or CONFIG_PATH) must exist. Otherwise it
// searches /etc/reddit-bridge-wrapper/config.toml then configs/config.toml,
// and runs from flags and environment alone when neither exists.
func Load(cli *CLI) (*Config, error) {
	var cfg Config

	path := cli.Config
	if path == "" {
		path = findConfig()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// FromEnv builds a Config from the process environment only. Serverless
// entry points call it on every invocation, so it never fails: a malformed
// bridge URL surfaces when the upstream request is built.
func FromEnv() *Config {
	cfg := &Config{
		Bridge: BridgeConfig{
			URL:          strings.TrimSpace(os.Getenv(EnvBridgeURL)),
			BypassSecret: os.Getenv(EnvBypassSecret),
		},
		Auth: AuthConfig{WrapperKey: os.Getenv(EnvWrapperKey)},
		Log:  LogConfig{Level: strings.TrimSpace(os.Getenv(EnvLogLevel))},
	}
	cfg.setDefaults()
	return cfg
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
	if cli.BridgeURL != "" {
		c.Bridge.URL = cli.BridgeURL
	}
	if cli.BypassSecret != "" {
		c.Bridge.BypassSecret = cli.BypassSecret
	}
	if cli.WrapperKey != "" {
		c.Auth.WrapperKey = cli.WrapperKey
	}
}

func (c *Config) validate() error {
	if c.Bridge.BypassSecret == placeholderSecret {
		return fmt.Errorf("bridge.bypass_secret contains placeholder value; set a real secret or leave it empty")
	}
	if c.Auth.WrapperKey == placeholderSecret {
		return fmt.Errorf("auth.wrapper_key contains placeholder value; set a real key or leave it empty for open access")
	}

	// Bridge URL is optional here but must be usable when present.
	if c.Bridge.URL != "" {
		u, err := url.Parse(c.Bridge.URL)
		if err != nil {
			return fmt.Errorf("bridge.url is not a valid URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("bridge.url must use http or https; got %q", c.Bridge.URL)
		}
		if u.Host == "" {
			return fmt.Errorf("bridge.url must include a host; got %q", c.Bridge.URL)
		}
	}

	// Numeric bounds.
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 0–65535; got %d", c.Server.Port)
	}
	if c.Server.BodyMaxBytes < 0 {
		return fmt.Errorf("server.body_max_bytes must be non-negative; got %d", c.Server.BodyMaxBytes)
	}
	if c.Bridge.TimeoutSeconds < 0 {
		return fmt.Errorf("bridge.timeout_seconds must be non-negative; got %d", c.Bridge.TimeoutSeconds)
	}
	if c.Bridge.IdleConnections < 0 {
		return fmt.Errorf("bridge.idle_connections must be non-negative; got %d", c.Bridge.IdleConnections)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "":
		// valid
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text", "":
		// valid
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	if c.Metrics.Enabled && c.Metrics.Path != "" {
		p := c.Metrics.Path
		if p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		for _, reserved := range reservedRoutes {
			if p == reserved || strings.HasPrefix(p, reserved+"/") {
				return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
			}
		}
	}

	return nil
}

// setDefaults fills zero-valued fields with sensible defaults.
// TOML cannot distinguish an explicit 0 from an omitted key, so zero means "unset".
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 1 << 20 // 1 MiB
	}
	if c.Bridge.TimeoutSeconds == 0 {
		c.Bridge.TimeoutSeconds = 120
	}
	if c.Bridge.IdleConnections == 0 {
		c.Bridge.IdleConnections = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Secrets returns the configured secret values, skipping empty ones.
func (c *Config) Secrets() []string {
	var out []string
	for _, s := range []string{c.Bridge.BypassSecret, c.Auth.WrapperKey} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// WarnPermissions logs a warning if the config file is readable by group or others.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; it may hold secrets, consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
