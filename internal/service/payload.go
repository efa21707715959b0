package service

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"reddit-bridge-wrapper/internal/model"
)

// DecodePayload validates an inbound body and builds the payload forwarded
// to the bridge. It returns ErrInvalidJSON when body does not parse and
// ErrInvalidFields when subreddit or query is missing or not a string.
func DecodePayload(body []byte) (*model.BridgePayload, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidJSON
	}

	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return nil, ErrInvalidFields
	}

	// Map keeps the last value of a repeated key.
	fields := doc.Map()
	subreddit, query := fields["subreddit"], fields["query"]
	if subreddit.Type != gjson.String || query.Type != gjson.String {
		return nil, ErrInvalidFields
	}

	return &model.BridgePayload{
		Subreddit: subreddit.String(),
		Query:     query.String(),
		Size:      passthrough(fields, "size"),
		Before:    passthrough(fields, "before"),
		After:     passthrough(fields, "after"),
	}, nil
}

// passthrough returns the caller's raw JSON for key, or nil when absent.
func passthrough(fields map[string]gjson.Result, key string) json.RawMessage {
	r, ok := fields[key]
	if !ok {
		return nil
	}
	return json.RawMessage(r.Raw)
}

// encodePayload serializes p without HTML escaping so the bridge receives
// the caller's strings unchanged.
func encodePayload(p *model.BridgePayload) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("encode bridge payload: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
