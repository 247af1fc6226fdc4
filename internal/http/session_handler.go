package http

import (
	"log/slog"
	"net/http"

	"liveintent/internal/auth"
	"liveintent/internal/connection"
	"liveintent/internal/console"
)

// SessionHandler exposes the console session: who is logged in and how the
// TikTok connection stands.
type SessionHandler struct {
	registry sessionRegistry
	cookies  sessionCookies
	logger   *slog.Logger
}

func NewSessionHandler(registry sessionRegistry, cookies sessionCookies, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{registry: registry, cookies: cookies, logger: logger}
}

type sessionResponse struct {
	Auth       auth.State       `json:"auth"`
	Connection connection.State `json:"connection"`
}

func snapshot(s *console.Session) sessionResponse {
	return sessionResponse{Auth: s.Auth.State(), Connection: s.Connection.State()}
}

// Status handles GET /api/session.
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, snapshot(SessionFromContext(r.Context())))
}

// Logout handles DELETE /api/session. The console session is dropped along
// with the cookie so the next request starts like a fresh page load.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())

	view, err := s.Auth.Logout(r.Context())
	if err != nil {
		h.logger.Error("logout", "error", err)
	}
	s.SetRemoteSession(nil)
	h.registry.Discard(s.ID)

	http.SetCookie(w, h.cookies.clear())
	writeJSON(w, http.StatusOK, map[string]string{"redirectTo": view.Path()})
}
