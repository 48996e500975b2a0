package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS answers preflight requests and decorates responses for the allowed
// origins. A single "*" entry allows every origin.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:       allowedOrigins,
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:       []string{"Content-Type", "Accept-Language", "X-Locale", "X-Request-ID"},
		ExposedHeaders:       []string{"X-Request-ID"},
		MaxAge:               600,
		OptionsSuccessStatus: http.StatusNoContent,
	})
	return c.Handler
}
