package model

import (
	"encoding/json"
	"testing"
)

func TestUpstreamResult_OK(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{199, false},
		{200, true},
		{204, true},
		{299, true},
		{301, false},
		{304, false},
		{404, false},
		{503, false},
	}

	for _, tt := range tests {
		r := &UpstreamResult{StatusCode: tt.status}
		if got := r.OK(); got != tt.want {
			t.Errorf("OK() for %d = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestBridgePayload_OmitsAbsentOptionalFields(t *testing.T) {
	p := BridgePayload{Subreddit: "golang", Query: "generics"}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"subreddit":"golang","query":"generics"}`
	if string(b) != want {
		t.Errorf("Marshal = %s, want %s", b, want)
	}
}

func TestBridgePayload_KeepsPresentOptionalFields(t *testing.T) {
	p := BridgePayload{
		Subreddit: "golang",
		Query:     "generics",
		Size:      json.RawMessage(`25`),
		Before:    json.RawMessage(`null`),
		After:     json.RawMessage(`"1700000000"`),
	}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"subreddit":"golang","query":"generics","size":25,"before":null,"after":"1700000000"}`
	if string(b) != want {
		t.Errorf("Marshal = %s, want %s", b, want)
	}
}
