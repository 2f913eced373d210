package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	httpmiddleware "github.com/wolfeidau/c2pa-signer/internal/http"
	"github.com/wolfeidau/c2pa-signer/internal/logger"
)

// ServeHTTP adapts the router to net/http. Headers already set by outer middleware,
// such as CORS, take precedence over the router defaults.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, rt.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeResponse(w, errorResponse(http.StatusBadRequest, "Request body too large"))
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to read request body")
		writeResponse(w, errorResponse(http.StatusBadRequest, msgBodyRequired))
		return
	}

	resp := rt.Handle(r.Context(), Request{
		Method:  r.Method,
		Path:    r.URL.Path,
		Host:    r.Host,
		Headers: r.Header,
		Body:    body,
	})

	if rt.cfg.ExternalCORS {
		for k := range resp.Headers {
			if strings.HasPrefix(k, "Access-Control-") {
				resp.Headers.Del(k)
			}
		}
	}

	writeResponse(w, resp)
}

func writeResponse(w http.ResponseWriter, resp Response) {
	for k, v := range resp.Headers {
		if w.Header().Get(k) == "" {
			w.Header()[k] = v
		}
	}

	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

// Handler returns the HTTP handler with request ids, client ips and request logging applied
func (rt *Router) Handler(log zerolog.Logger) http.Handler {
	return httpmiddleware.RequestIDMiddleware()(
		httpmiddleware.ClientIPMiddleware()(
			logger.NewHTTPRequests(log).Wrap(rt),
		),
	)
}
