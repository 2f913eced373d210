package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wolfeidau/c2pa-signer/internal/telemetry"
)

const bearerPrefix = "Bearer "

// Denial reasons returned in the 401 body
const (
	ReasonMissingHeader = "Missing Authorization header"
	ReasonInvalidFormat = "Invalid Authorization header format"
	ReasonInvalidToken  = "Invalid bearer token"
)

// Result is the outcome of a token check. A zero Result is a denial with no reason,
// use Allowed to test.
type Result struct {
	Allowed bool
	Reason  string
}

// Gate compares the bearer token on a request with a shared secret.
//
// The comparison is plain string equality and there is no rate limiting or lockout.
// An empty token disables the check entirely.
type Gate struct {
	token string
}

// NewGate creates a Gate. An empty token leaves every request allowed.
func NewGate(token string) *Gate {
	return &Gate{token: token}
}

// Open reports whether the gate admits every request.
func (g *Gate) Open() bool {
	return g.token == ""
}

// Check validates the Authorization header.
func (g *Gate) Check(ctx context.Context, headers http.Header) Result {
	if g.Open() {
		zerolog.Ctx(ctx).Debug().Msg("no token configured, allowing request")
		return Result{Allowed: true}
	}

	authHeader := headerValue(headers)
	if authHeader == "" {
		return g.deny(ctx, ReasonMissingHeader)
	}

	token, ok := strings.CutPrefix(authHeader, bearerPrefix)
	if !ok {
		return g.deny(ctx, ReasonInvalidFormat)
	}

	if token != g.token {
		return g.deny(ctx, ReasonInvalidToken)
	}

	return Result{Allowed: true}
}

// headerValue also accepts a lower case key for header maps built outside net/http
func headerValue(headers http.Header) string {
	if v := headers.Get("Authorization"); v != "" {
		return v
	}
	if v := headers["authorization"]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func (g *Gate) deny(ctx context.Context, reason string) Result {
	zerolog.Ctx(ctx).Warn().Str("reason", reason).Msg("bearer token rejected")
	telemetry.GetMetrics().AuthDeniedTotal.Add(ctx, 1)
	return Result{Reason: reason}
}
