// Package server routes C2PA signing API requests independently of the transport.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wolfeidau/c2pa-signer/internal/auth"
	"github.com/wolfeidau/c2pa-signer/internal/models"
)

const (
	serverVersion = "1.0.0"
	c2paVersion   = "1.0.0"

	defaultEnvironment = "production"
	defaultServerURL   = "http://localhost:3000"

	signingAlgorithm = "es256"
	timestampURL     = "http://timestamp.digicert.com"

	c2paPathPrefix = "/api/v1/c2pa/"
	signPath       = "/api/v1/c2pa/sign"

	msgBodyRequired = "Request body is required"
	msgInvalidJSON  = "Invalid JSON in request body"
	msgNotFound     = "Not found"
	msgInternal     = "Internal server error"
)

// Signer signs manifest claims and exposes the signing certificate chain.
type Signer interface {
	Sign(ctx context.Context, req models.SigningRequest) (*models.SigningResponse, error)
	CertificateChain(ctx context.Context) (string, error)
}

// Issuer issues certificates for certificate signing requests.
type Issuer interface {
	Issue(ctx context.Context, csrPEM string) (*models.SignedCertificateResponse, error)
}

// Authorizer checks request credentials.
type Authorizer interface {
	Check(ctx context.Context, headers http.Header) auth.Result
}

// Request is a transport neutral API request. A nil or empty Body is treated as missing.
type Request struct {
	Method  string
	Path    string
	Host    string
	Headers http.Header
	Body    []byte
}

// Response is a transport neutral API response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Config holds the router settings.
type Config struct {
	// Environment is reported as the mode on the health endpoint
	Environment string

	// SigningServerURL is the base of the advertised signing_url, the request host
	// is used when empty
	SigningServerURL string

	// RoutePrefix is stripped from request paths, for example the API Gateway stage
	RoutePrefix string

	// MaxBodyBytes caps request bodies read by the HTTP adapter
	MaxBodyBytes int64

	// ExternalCORS leaves the Access-Control headers to outer HTTP middleware
	ExternalCORS bool
}

const defaultMaxBodyBytes = 1 << 20

// Router dispatches requests to the signing service and certificate authority.
type Router struct {
	cfg    Config
	gate   Authorizer
	signer Signer
	issuer Issuer
}

// NewRouter creates a Router.
func NewRouter(cfg Config, gate Authorizer, signer Signer, issuer Issuer) *Router {
	if cfg.Environment == "" {
		cfg.Environment = defaultEnvironment
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	return &Router{
		cfg:    cfg,
		gate:   gate,
		signer: signer,
		issuer: issuer,
	}
}

// Handle routes a single request. It never returns an error, every failure is
// rendered as a JSON error response.
func (rt *Router) Handle(ctx context.Context, req Request) Response {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("method", req.Method).Str("path", req.Path).Msg("received request")

	if req.Method == http.MethodOptions {
		return respond(http.StatusOK, struct{}{})
	}

	path := rt.stripPrefix(req.Path)

	switch {
	case path == "/" && req.Method == http.MethodGet:
		return respond(http.StatusOK, models.Health{
			Status:      "C2PA Signing Server is running",
			Version:     serverVersion,
			Mode:        rt.cfg.Environment,
			C2PAVersion: c2paVersion,
		})

	case path == "/health" && req.Method == http.MethodGet:
		return respond(http.StatusOK, map[string]string{"status": "healthy"})

	case path == "/api/v1/certificates/sign" && req.Method == http.MethodPost:
		return rt.issueCertificate(ctx, req)

	case strings.HasPrefix(path, c2paPathPrefix):
		if res := rt.gate.Check(ctx, req.Headers); !res.Allowed {
			return errorResponse(http.StatusUnauthorized, res.Reason)
		}

		switch {
		case path == "/api/v1/c2pa/configuration" && req.Method == http.MethodGet:
			return rt.configuration(ctx, req)
		case path == signPath && req.Method == http.MethodPost:
			return rt.sign(ctx, req)
		}
	}

	return errorResponse(http.StatusNotFound, msgNotFound)
}

func (rt *Router) stripPrefix(path string) string {
	if rt.cfg.RoutePrefix != "" {
		path = strings.TrimPrefix(path, rt.cfg.RoutePrefix)
	}
	if path == "" {
		return "/"
	}
	return path
}

func (rt *Router) issueCertificate(ctx context.Context, req Request) Response {
	var csrReq models.CertificateSigningRequest
	if resp, ok := decodeBody(req.Body, &csrReq); !ok {
		return resp
	}

	if csrReq.CSR == "" {
		return errorFor(ctx, models.NewValidationError("Invalid CSR format"))
	}

	cert, err := rt.issuer.Issue(ctx, csrReq.CSR)
	if err != nil {
		return errorFor(ctx, err)
	}

	return respond(http.StatusOK, cert)
}

func (rt *Router) configuration(ctx context.Context, req Request) Response {
	chain, err := rt.signer.CertificateChain(ctx)
	if err != nil {
		return errorFor(ctx, err)
	}

	cfg := models.Configuration{
		Algorithm:        signingAlgorithm,
		TimestampURL:     timestampURL,
		SigningURL:       rt.baseURL(req) + signPath,
		CertificateChain: chain,
	}

	zerolog.Ctx(ctx).Info().Str("signing_url", cfg.SigningURL).Msg("serving configuration")

	return respond(http.StatusOK, cfg)
}

// baseURL prefers the configured URL, then the request host, then localhost
func (rt *Router) baseURL(req Request) string {
	if rt.cfg.SigningServerURL != "" {
		return strings.TrimSuffix(rt.cfg.SigningServerURL, "/")
	}
	if req.Host != "" {
		return "https://" + req.Host
	}
	return defaultServerURL
}

func (rt *Router) sign(ctx context.Context, req Request) Response {
	var signReq models.SigningRequest
	if resp, ok := decodeBody(req.Body, &signReq); !ok {
		return resp
	}

	signed, err := rt.signer.Sign(ctx, signReq)
	if err != nil {
		return errorFor(ctx, err)
	}

	return respond(http.StatusOK, signed)
}

func decodeBody(body []byte, v any) (Response, bool) {
	if len(body) == 0 {
		return errorResponse(http.StatusBadRequest, msgBodyRequired), false
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errorResponse(http.StatusBadRequest, msgInvalidJSON), false
	}
	return Response{}, true
}

// errorFor maps an operation error onto the response status and message
func errorFor(ctx context.Context, err error) Response {
	status := models.StatusCode(err)

	msg := err.Error()
	if msg == "" {
		msg = msgInternal
	}

	if status >= http.StatusInternalServerError {
		zerolog.Ctx(ctx).Error().Err(err).Msg("error processing request")
	}

	return errorResponse(status, msg)
}

func errorResponse(status int, msg string) Response {
	return respond(status, models.ErrorResponse{Error: msg})
}

func respond(status int, v any) Response {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"` + msgInternal + `"}`)
	}

	return Response{
		StatusCode: status,
		Headers:    defaultHeaders(),
		Body:       body,
	}
}

func defaultHeaders() http.Header {
	return http.Header{
		"Content-Type":                 []string{"application/json"},
		"Access-Control-Allow-Origin":  []string{"*"},
		"Access-Control-Allow-Headers": []string{"Content-Type,Authorization"},
		"Access-Control-Allow-Methods": []string{"GET,POST,OPTIONS"},
	}
}
