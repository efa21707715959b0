// Package client provides the upstream HTTP client for the Reddit bridge.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"reddit-bridge-wrapper/internal/config"
	"reddit-bridge-wrapper/internal/metrics"
	"reddit-bridge-wrapper/internal/model"
)

// BridgeClient sends search requests to the upstream bridge.
type BridgeClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewBridgeClient creates a BridgeClient with connection pooling and timeouts.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewBridgeClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *BridgeClient {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Bridge.IdleConnections,
		MaxIdleConnsPerHost: cfg.Bridge.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &BridgeClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Bridge.TimeoutSeconds) * time.Second,
		},
		logger:  logger.With("component", "bridge_client"),
		metrics: m,
	}
}

// Post sends body to url and reads the whole reply. A reply that is not
// valid JSON is returned as its raw text rather than as an error.
func (c *BridgeClient) Post(ctx context.Context, url string, header http.Header, body []byte) (*model.UpstreamResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header = header

	c.logger.Debug("upstream request",
		"host", req.URL.Host,
		"path", req.URL.Path,
		"bytes_out", len(body),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(start, 0)
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	c.observe(start, resp.StatusCode)
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}

	c.logger.Debug("upstream response",
		"status", resp.StatusCode,
		"bytes_in", len(raw),
	)

	return &model.UpstreamResult{
		StatusCode: resp.StatusCode,
		Data:       parseBody(raw),
	}, nil
}

// observe records upstream latency and, when a response arrived, its status.
func (c *BridgeClient) observe(start time.Time, status int) {
	if c.metrics == nil {
		return
	}
	c.metrics.UpstreamDuration.Observe(time.Since(start).Seconds())
	if status != 0 {
		c.metrics.UpstreamResponses.WithLabelValues(strconv.Itoa(status)).Inc()
	}
}

// parseBody returns raw as a JSON document when it parses, otherwise as text.
func parseBody(raw []byte) any {
	if json.Valid(raw) {
		return json.RawMessage(raw)
	}
	return string(raw)
}
