package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/angelmondragon/pos-backend/pkg/config"
)

var devOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// CORS admits the till and back-office origins from POS_CORS_ALLOWED_ORIGINS.
// Outside prod an empty list admits the local dev servers; in prod it admits
// no browser origin at all.
func CORS(app config.AppConfig) func(http.Handler) http.Handler {
	origins := app.CORSAllowedOrigins
	if len(origins) == 0 && !app.IsProd() {
		origins = devOrigins
	}
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", idempotencyHeader, requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader, replayedHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(origins) == 0 {
		// go-chi/cors treats an empty list as "*".
		opts.AllowOriginFunc = func(*http.Request, string) bool { return false }
	}
	return cors.Handler(opts)
}
