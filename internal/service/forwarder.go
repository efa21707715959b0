// Package service implements the bridge forwarding pipeline.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"reddit-bridge-wrapper/internal/client"
	"reddit-bridge-wrapper/internal/config"
	"reddit-bridge-wrapper/internal/model"
)

// Errors returned by Forward for requests that never reach the bridge.
var (
	ErrUnauthorised    = errors.New("missing or mismatched " + WrapperKeyHeader + " header")
	ErrBridgeURLNotSet = errors.New(config.EnvBridgeURL + " not set")
	ErrInvalidJSON     = errors.New("request body is not valid JSON")
	ErrInvalidFields   = errors.New("request body lacks string fields subreddit and query")
)

const (
	// WrapperKeyHeader carries the caller's shared key when authentication is enabled.
	WrapperKeyHeader = "x-mcp-key"
	// BypassHeader carries the protection bypass secret to the bridge.
	BypassHeader = "x-vercel-protection-bypass"

	userAgent = "reddit-bridge-wrapper/1.0"
	redacted  = "[REDACTED]"

	minRedactLen = 6
)

// Forwarder authenticates, validates and forwards search requests to the bridge.
type Forwarder struct {
	client *client.BridgeClient
	cfg    *config.Config
	logger *slog.Logger
}

// NewForwarder creates a Forwarder. cfg is treated as read-only.
func NewForwarder(c *client.BridgeClient, cfg *config.Config, logger *slog.Logger) *Forwarder {
	return &Forwarder{
		client: c,
		cfg:    cfg,
		logger: logger.With("component", "forwarder"),
	}
}

// BridgeURL returns the configured upstream endpoint, possibly empty.
func (f *Forwarder) BridgeURL() string {
	return f.cfg.Bridge.URL
}

// Forward runs the pipeline for one inbound request: authentication, the
// bridge URL check, body validation, then a single POST to the bridge.
// Errors before dispatch are the package's sentinel errors; anything else
// is a transport failure.
//
// The bridge call is detached from ctx cancellation so a caller hanging up
// does not abort it; the HTTP client timeout still applies.
func (f *Forwarder) Forward(ctx context.Context, header http.Header, body []byte) (*model.UpstreamResult, error) {
	if err := f.authenticate(header); err != nil {
		return nil, err
	}

	if f.cfg.Bridge.URL == "" {
		return nil, ErrBridgeURLNotSet
	}

	payload, err := DecodePayload(body)
	if err != nil {
		return nil, err
	}

	encoded, err := encodePayload(payload)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("forwarding request",
		"subreddit", payload.Subreddit,
		"size", payload.Size != nil,
		"before", payload.Before != nil,
		"after", payload.After != nil,
	)

	res, err := f.client.Post(context.WithoutCancel(ctx), f.cfg.Bridge.URL, f.upstreamHeader(), encoded)
	if err != nil {
		return nil, fmt.Errorf("forward to bridge: %w", err)
	}
	return res, nil
}

// authenticate checks the wrapper key when one is configured.
func (f *Forwarder) authenticate(header http.Header) error {
	want := f.cfg.Auth.WrapperKey
	if want == "" {
		return nil
	}
	got := header.Get(WrapperKeyHeader)
	if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return ErrUnauthorised
	}
	return nil
}

func (f *Forwarder) upstreamHeader() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("User-Agent", userAgent)
	if secret := f.cfg.Bridge.BypassSecret; secret != "" {
		h.Set(BypassHeader, secret)
	}
	return h
}

// Redact replaces configured secret values in msg. Secrets shorter than
// minRedactLen would match ordinary text and are left alone.
func (f *Forwarder) Redact(msg string) string {
	for _, s := range f.cfg.Secrets() {
		if len(s) < minRedactLen {
			continue
		}
		msg = strings.ReplaceAll(msg, s, redacted)
	}
	return msg
}
