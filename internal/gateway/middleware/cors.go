package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORSMiddleware admits browser calls from origins. "*" allows any origin.
func CORSMiddleware(origins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader},
		ExposedHeaders: []string{"Content-Length", "Retry-After", RequestIDHeader, "X-Error-Kind"},
		MaxAge:         12 * 60 * 60,
	})
	return c.Handler
}
