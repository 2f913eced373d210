package server

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"

	httpmiddleware "github.com/wolfeidau/c2pa-signer/internal/http"
)

// HandleAPIGateway adapts the router to API Gateway REST proxy events.
func (rt *Router) HandleAPIGateway(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	headers := http.Header{}
	for k, v := range event.Headers {
		headers.Set(k, v)
	}
	for k, values := range event.MultiValueHeaders {
		if headers.Get(k) != "" {
			continue
		}
		for _, v := range values {
			headers.Add(k, v)
		}
	}

	ctx = httpmiddleware.WithRequestID(ctx, event.RequestContext.RequestID)
	ctx = httpmiddleware.WithClientIP(ctx, event.RequestContext.Identity.SourceIP)

	ctx = zerolog.Ctx(ctx).With().
		Str("request_id", httpmiddleware.RequestIDFromContext(ctx)).
		Str("client_ip", httpmiddleware.ClientIPFromContext(ctx)).
		Str("method", event.HTTPMethod).
		Str("path", event.Path).
		Logger().WithContext(ctx)

	body := []byte(event.Body)
	if event.IsBase64Encoded && event.Body != "" {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return toProxyResponse(errorResponse(http.StatusBadRequest, msgInvalidJSON)), nil
		}
		body = decoded
	}

	resp := rt.Handle(ctx, Request{
		Method:  event.HTTPMethod,
		Path:    event.Path,
		Host:    headers.Get("Host"),
		Headers: headers,
		Body:    body,
	})

	zerolog.Ctx(ctx).Info().Int("status", resp.StatusCode).Msg("lambda request")

	return toProxyResponse(resp), nil
}

func toProxyResponse(resp Response) events.APIGatewayProxyResponse {
	headers := make(map[string]string, len(resp.Headers))
	for k := range resp.Headers {
		headers[k] = resp.Headers.Get(k)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       string(resp.Body),
	}
}
