package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"liveintent/internal/config"
)

// NewRouter wires application routes and middleware using chi. tiktok may be
// nil when TikTok login is not configured.
func NewRouter(cfg config.Config, registry sessionRegistry, tiktok TikTokAuthenticator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(newSecurityHeadersMiddleware(cfg.Environment))
	r.Use(newSlogMiddleware(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"environment": cfg.Environment,
		})
	})

	cookies := newSessionCookies(cfg.SessionSecret, cfg.SecureCookies())
	sessionHandler := NewSessionHandler(registry, cookies, logger)
	connectionHandler := NewConnectionHandler(logger)
	oauthHandler := NewOAuthHandler(tiktok, cfg.FrontendURL, cfg.SecureCookies(), logger)
	var viewHandler ViewHandler

	if tiktok == nil {
		logger.Warn("TikTok login disabled; /api/auth/tiktok answers 503")
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(newConsoleSessionMiddleware(registry, cookies, logger))

		r.Route("/session", func(r chi.Router) {
			r.Get("/", sessionHandler.Status)
			r.Delete("/", sessionHandler.Logout)
		})

		r.Route("/auth/tiktok", func(r chi.Router) {
			r.Get("/", oauthHandler.InitiateTikTok)
			r.Get("/callback", oauthHandler.CallbackTikTok)
		})

		r.Route("/connection", func(r chi.Router) {
			r.Get("/", connectionHandler.Get)
			r.Delete("/", connectionHandler.Disconnect)
			r.Put("/handle", connectionHandler.UpdateHandle)
			r.Post("/connect", connectionHandler.Connect)
			r.Post("/dev-handle", connectionHandler.DevHandle)
		})

		r.Get("/views/resolve", viewHandler.Resolve)
	})

	r.NotFound(http.NotFoundHandler().ServeHTTP)

	return r
}
