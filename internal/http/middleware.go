package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"liveintent/internal/console"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func newSlogMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)
			duration := time.Since(start)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.status,
				"duration", duration.String(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const consoleContextKey contextKey = "console"

// SessionFromContext returns the console session attached by the session middleware.
func SessionFromContext(ctx context.Context) *console.Session {
	s, _ := ctx.Value(consoleContextKey).(*console.Session)
	return s
}

type sessionRegistry interface {
	Session(ctx context.Context, id string) (*console.Session, error)
	Discard(id string)
}

// newConsoleSessionMiddleware resolves the browser session cookie to a console
// session, minting a fresh id when the cookie is missing or does not verify.
func newConsoleSessionMiddleware(registry sessionRegistry, cookies sessionCookies, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := cookies.read(r)
			if err != nil {
				id = uuid.NewString()
				cookie, err := cookies.issue(id)
				if err != nil {
					logger.Error("issue session cookie", "error", err)
					writeError(w, http.StatusInternalServerError, "internal error")
					return
				}
				http.SetCookie(w, cookie)
			}

			s, err := registry.Session(r.Context(), id)
			if err != nil {
				logger.Error("load console session", "error", err)
				writeError(w, http.StatusServiceUnavailable, "session storage unavailable")
				return
			}

			ctx := context.WithValue(r.Context(), consoleContextKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newSecurityHeadersMiddleware(environment string) func(http.Handler) http.Handler {
	isDev := strings.EqualFold(environment, "development")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Permissions-Policy", "geolocation=(), camera=(), microphone=()")

			if !isDev {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}
