// Package model defines shared types for the bridge forwarder.
package model

import "encoding/json"

// BridgePayload is the normalized search request forwarded to the bridge.
// Size, Before and After are copied verbatim from the caller: a nil value
// means the key was absent and is omitted from the forwarded JSON.
type BridgePayload struct {
	Subreddit string          `json:"subreddit"`
	Query     string          `json:"query"`
	Size      json.RawMessage `json:"size,omitempty"`
	Before    json.RawMessage `json:"before,omitempty"`
	After     json.RawMessage `json:"after,omitempty"`
}

// UpstreamResult is the bridge's reply. Data holds the parsed JSON document
// as a json.RawMessage, or the raw body text as a string when it is not JSON.
type UpstreamResult struct {
	StatusCode int
	Data       any
}

// OK reports whether the bridge answered with a 2xx status. Redirects have
// already been followed by the HTTP client, so a 3xx here is a failure.
func (r *UpstreamResult) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

// ForwardResponse is the body returned to the caller on success.
type ForwardResponse struct {
	OK           bool   `json:"ok"`
	BridgeStatus int    `json:"bridge_status"`
	BridgeURL    string `json:"bridge_url"`
	Data         any    `json:"data"`
}

// ErrorResponse is the body returned for caller and configuration errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UpstreamErrorResponse is returned when the bridge answers with a failure status.
type UpstreamErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
	Detail any    `json:"detail"`
}

// InternalErrorResponse is returned for unexpected failures.
type InternalErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}
