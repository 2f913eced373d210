package auth

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func headers(kv ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h[kv[i]] = []string{kv[i+1]}
	}
	return h
}

func TestGate_Open(t *testing.T) {
	gate := NewGate("")
	require.True(t, gate.Open())

	tests := []struct {
		name    string
		headers http.Header
	}{
		{name: "no header", headers: headers()},
		{name: "wrong scheme", headers: headers("Authorization", "Basic abc")},
		{name: "any token", headers: headers("Authorization", "Bearer whatever")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := gate.Check(context.Background(), tt.headers)
			require.True(t, res.Allowed)
			require.Empty(t, res.Reason)
		})
	}
}

func TestGate_Check(t *testing.T) {
	gate := NewGate("s3cret")
	require.False(t, gate.Open())

	tests := []struct {
		name        string
		headers     http.Header
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "valid token",
			headers:     headers("Authorization", "Bearer s3cret"),
			wantAllowed: true,
		},
		{
			name:        "lower case header name",
			headers:     headers("authorization", "Bearer s3cret"),
			wantAllowed: true,
		},
		{
			name:       "missing header",
			headers:    headers(),
			wantReason: ReasonMissingHeader,
		},
		{
			name:       "empty header",
			headers:    headers("Authorization", ""),
			wantReason: ReasonMissingHeader,
		},
		{
			name:       "basic scheme",
			headers:    headers("Authorization", "Basic s3cret"),
			wantReason: ReasonInvalidFormat,
		},
		{
			name:       "lower case scheme",
			headers:    headers("Authorization", "bearer s3cret"),
			wantReason: ReasonInvalidFormat,
		},
		{
			name:       "token only",
			headers:    headers("Authorization", "s3cret"),
			wantReason: ReasonInvalidFormat,
		},
		{
			name:       "wrong token",
			headers:    headers("Authorization", "Bearer nope"),
			wantReason: ReasonInvalidToken,
		},
		{
			name:       "token differs in case",
			headers:    headers("Authorization", "Bearer S3CRET"),
			wantReason: ReasonInvalidToken,
		},
		{
			name:       "trailing whitespace",
			headers:    headers("Authorization", "Bearer s3cret "),
			wantReason: ReasonInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := gate.Check(context.Background(), tt.headers)
			require.Equal(t, tt.wantAllowed, res.Allowed)
			require.Equal(t, tt.wantReason, res.Reason)
		})
	}
}

func TestGate_CheckCanonicalisedHeader(t *testing.T) {
	gate := NewGate("s3cret")

	h := http.Header{}
	h.Set("authorization", "Bearer s3cret")

	require.True(t, gate.Check(context.Background(), h).Allowed)
}
