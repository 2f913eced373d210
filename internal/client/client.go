// Package client is a typed HTTP client for the C2PA signing API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/c2pa-signer/internal/models"
)

// Config holds common client configuration
type Config struct {
	ServerURL  string
	Token      string
	Timeout    time.Duration
	MaxRetries uint
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		ServerURL:  "http://localhost:3000",
		Timeout:    30 * time.Second,
		MaxRetries: 3,
	}
}

// APIError is a non 2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client calls the signing API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	backOff    func() backoff.BackOff
}

// New creates a Client. A nil httpClient uses one with the configured timeout.
func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 1
	}
	cfg.ServerURL = strings.TrimSuffix(cfg.ServerURL, "/")

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		backOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (map[string]string, error) {
	var out map[string]string
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Status calls GET / and returns the server banner.
func (c *Client) Status(ctx context.Context) (*models.Health, error) {
	var out models.Health
	if err := c.do(ctx, http.MethodGet, "/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Configuration calls GET /api/v1/c2pa/configuration.
func (c *Client) Configuration(ctx context.Context) (*models.Configuration, error) {
	var out models.Configuration
	if err := c.do(ctx, http.MethodGet, "/api/v1/c2pa/configuration", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Sign calls POST /api/v1/c2pa/sign with a base64 encoded claim.
func (c *Client) Sign(ctx context.Context, claim string) (*models.SigningResponse, error) {
	var out models.SigningResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/c2pa/sign", models.SigningRequest{Claim: claim}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IssueCertificate calls POST /api/v1/certificates/sign with a PEM encoded CSR.
func (c *Client) IssueCertificate(ctx context.Context, csrPEM string) (*IssuedCertificate, error) {
	var out IssuedCertificate
	if err := c.do(ctx, http.MethodPost, "/api/v1/certificates/sign", models.CertificateSigningRequest{CSR: csrPEM}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IssuedCertificate is the certificate response as sent on the wire.
type IssuedCertificate struct {
	CertificateID    string `json:"certificate_id" yaml:"certificate_id"`
	CertificateChain string `json:"certificate_chain" yaml:"certificate_chain"`
	ExpiresAt        string `json:"expires_at" yaml:"expires_at"`
	SerialNumber     string `json:"serial_number" yaml:"serial_number"`
}

// do sends the request, retrying network errors and 5xx responses. 4xx responses are
// returned immediately.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	op := func() ([]byte, error) {
		return c.send(ctx, method, path, payload)
	}

	body, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(c.backOff()),
		backoff.WithMaxTries(c.cfg.MaxRetries),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Debug().Err(err).Str("path", path).Dur("retry_in", next).Msg("retrying request")
		}),
	)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.ServerURL+path, reqBody)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, backoff.Permanent(err)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
		if resp.StatusCode < http.StatusInternalServerError {
			return nil, backoff.Permanent(apiErr)
		}
		return nil, apiErr
	}

	return body, nil
}

func errorMessage(body []byte) string {
	var errResp models.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return errResp.Error
	}
	return strings.TrimSpace(string(body))
}
