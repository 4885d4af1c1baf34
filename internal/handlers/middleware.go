package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/newshub/apiserver/internal/apperr"
)

// CORS allows credentialed requests from a single origin. An empty origin
// disables CORS handling.
func CORS(origin string) func(http.Handler) http.Handler {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" {
		return func(next http.Handler) http.Handler { return next }
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{origin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           600,
	})
}

// Recoverer turns a panic into a logged InternalError response.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			slog.ErrorContext(r.Context(), "panic recovered",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"panic", rvr,
				"stack", string(debug.Stack()),
			)
			if r.Header.Get("Connection") != "Upgrade" {
				writeError(w, r, apperr.Internal(fmt.Errorf("panic: %v", rvr)))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
