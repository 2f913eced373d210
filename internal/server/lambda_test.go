package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestHandleAPIGateway(t *testing.T) {
	ctx := context.Background()
	rt := newTestRouter(Config{RoutePrefix: "/dev"}, "secret")

	t.Run("lower case headers from the gateway", func(t *testing.T) {
		resp, err := rt.HandleAPIGateway(ctx, events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodGet,
			Path:       "/dev/api/v1/c2pa/configuration",
			Headers: map[string]string{
				"authorization": "Bearer secret",
				"host":          "abc.execute-api.us-east-1.amazonaws.com",
			},
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "application/json", resp.Headers["Content-Type"])
		require.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
		require.Contains(t, resp.Body, `"signing_url":"https://abc.execute-api.us-east-1.amazonaws.com/api/v1/c2pa/sign"`)
	})

	t.Run("multi value headers", func(t *testing.T) {
		resp, err := rt.HandleAPIGateway(ctx, events.APIGatewayProxyRequest{
			HTTPMethod:        http.MethodGet,
			Path:              "/api/v1/c2pa/configuration",
			MultiValueHeaders: map[string][]string{"Authorization": {"Bearer secret"}},
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("base64 body", func(t *testing.T) {
		resp, err := rt.HandleAPIGateway(ctx, events.APIGatewayProxyRequest{
			HTTPMethod:      http.MethodPost,
			Path:            "/dev/api/v1/c2pa/sign",
			Headers:         map[string]string{"Authorization": "Bearer secret"},
			Body:            base64.StdEncoding.EncodeToString([]byte(`{"claim":"aGVsbG8="}`)),
			IsBase64Encoded: true,
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.JSONEq(t, `{"signature":"c2ln"}`, resp.Body)
	})

	t.Run("missing body", func(t *testing.T) {
		resp, err := rt.HandleAPIGateway(ctx, events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodPost,
			Path:       "/dev/api/v1/certificates/sign",
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.JSONEq(t, `{"error":"Request body is required"}`, resp.Body)
	})

	t.Run("options", func(t *testing.T) {
		resp, err := rt.HandleAPIGateway(ctx, events.APIGatewayProxyRequest{HTTPMethod: http.MethodOptions, Path: "/anything"})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "{}", resp.Body)
	})
}

func TestHandleAPIGateway_LogsRequestContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())
	rt := newTestRouter(Config{}, "")

	resp, err := rt.HandleAPIGateway(ctx, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/health",
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID: "gw-req-1",
			Identity:  events.APIGatewayRequestIdentity{SourceIP: "198.51.100.7"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var logged map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &logged))
	require.Equal(t, "lambda request", logged["message"])
	require.Equal(t, "gw-req-1", logged["request_id"])
	require.Equal(t, "198.51.100.7", logged["client_ip"])
}
