package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the SPA, possibly hosted elsewhere, to call the API.
// Credentials are only allowed for an explicit origin list.
func CORS(origins []string) func(http.Handler) http.Handler {
	wildcard := len(origins) == 0
	for _, origin := range origins {
		if origin == "*" {
			wildcard = true
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: !wildcard,
		MaxAge:           86400,
	})
}
