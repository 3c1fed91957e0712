package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/angelmondragon/streeteats-connect/pkg/auth"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8000",
}

// CORS returns middleware that applies the API's allowed origin policy.
// An empty origins list falls back to the local development hosts.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", auth.SessionHeader, "Idempotency-Key", "X-Requested-With", "X-Request-Id"},
		ExposedHeaders:   []string{auth.SessionHeader, "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
