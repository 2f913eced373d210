package commands

import (
	"net/http"
	"time"

	"github.com/rs/cors"

	httpmiddleware "github.com/wolfeidau/c2pa-signer/internal/http"
)

type Globals struct {
	Dev     bool
	Version string
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	// Create HTTP server
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}

// withCORS adds CORS support to the API handler. Preflight requests are passed
// through so the router answers them with its own 200 {} response.
func withCORS(allowedOrigins []string, h http.Handler) http.Handler {
	middleware := cors.New(cors.Options{
		AllowedOrigins:     allowedOrigins,
		AllowedMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:     []string{"Content-Type", "Authorization"},
		ExposedHeaders:     []string{httpmiddleware.RequestIDHeader},
		OptionsPassthrough: true,
	})
	return middleware.Handler(h)
}
