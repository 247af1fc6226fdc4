package http

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"liveintent/internal/auth"
	"liveintent/internal/remote"
	"liveintent/internal/route"
)

// oauthStatePayload holds the CSRF state and optional redirect path.
type oauthStatePayload struct {
	State      string `json:"s"`
	RedirectTo string `json:"r,omitempty"`
}

// isValidRedirectPath validates that a path is a safe relative redirect.
// It prevents open redirect attacks by ensuring the path:
// - Starts with a single "/" (not "//")
// - Has no scheme or host component
// - Cannot be bypassed via URL encoding
func isValidRedirectPath(path string) bool {
	if path == "" {
		return false
	}

	// Decode to catch encoded bypass attempts like /%2f%2f
	decoded, err := url.QueryUnescape(path)
	if err != nil {
		return false
	}

	if !strings.HasPrefix(decoded, "/") || strings.HasPrefix(decoded, "//") || strings.Contains(decoded, `\`) {
		return false
	}

	parsed, err := url.Parse(decoded)
	if err != nil {
		return false
	}
	return parsed.Scheme == "" && parsed.Host == ""
}

const (
	oauthStateCookieName = "liveintent_oauth_state"
	oauthStateCookieTTL  = 10 * time.Minute
	oauthCookiePath      = "/api/auth"
)

// TikTokAuthenticator runs the browser side of the TikTok login.
type TikTokAuthenticator interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.Identity, error)
}

// OAuthHandler handles the TikTok login endpoints.
type OAuthHandler struct {
	tiktok       TikTokAuthenticator
	logger       *slog.Logger
	secureCookie bool
	frontendURL  string
}

// NewOAuthHandler creates a new OAuthHandler. A nil authenticator disables TikTok login.
func NewOAuthHandler(tiktok TikTokAuthenticator, frontendURL string, secureCookie bool, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{
		tiktok:       tiktok,
		logger:       logger,
		secureCookie: secureCookie,
		frontendURL:  strings.TrimSuffix(frontendURL, "/"),
	}
}

// InitiateTikTok handles GET /api/auth/tiktok
// Redirects the user to TikTok's consent screen.
func (h *OAuthHandler) InitiateTikTok(w http.ResponseWriter, r *http.Request) {
	if h.tiktok == nil {
		writeError(w, http.StatusServiceUnavailable, "TikTok login is not configured")
		return
	}

	state, err := auth.GenerateState()
	if err != nil {
		h.logger.Error("failed to generate state", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    state,
		Path:     oauthCookiePath,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(oauthStateCookieTTL.Seconds()),
	})

	payload := oauthStatePayload{State: state}
	if redirectTo := r.URL.Query().Get("redirectTo"); isValidRedirectPath(redirectTo) {
		payload.RedirectTo = redirectTo
	}

	// Encode state as base64 JSON to avoid delimiter issues
	stateJSON, _ := json.Marshal(payload)
	fullState := base64.RawURLEncoding.EncodeToString(stateJSON)

	http.Redirect(w, r, h.tiktok.AuthURL(fullState), http.StatusTemporaryRedirect)
}

// CallbackTikTok handles GET /api/auth/tiktok/callback
// Hands the code to the exchange function, logs the user into the console
// session and keeps the hosted session for later profile updates.
func (h *OAuthHandler) CallbackTikTok(w http.ResponseWriter, r *http.Request) {
	if h.tiktok == nil {
		h.redirectWithError(w, r, "unavailable", "TikTok login is not configured.")
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookieName)
	if err != nil {
		h.logger.Warn("oauth callback: missing state cookie")
		h.redirectWithError(w, r, "invalid_request", "Session expired. Please try again.")
		return
	}

	query := r.URL.Query()
	redirectTo := route.Dashboard.Path()

	stateBytes, err := base64.RawURLEncoding.DecodeString(query.Get("state"))
	if err != nil {
		h.logger.Warn("oauth callback: invalid state encoding")
		h.redirectWithError(w, r, "invalid_request", "Invalid state. Please try again.")
		return
	}

	var statePayload oauthStatePayload
	if err := json.Unmarshal(stateBytes, &statePayload); err != nil {
		h.logger.Warn("oauth callback: invalid state JSON")
		h.redirectWithError(w, r, "invalid_request", "Invalid state. Please try again.")
		return
	}

	if isValidRedirectPath(statePayload.RedirectTo) {
		redirectTo = statePayload.RedirectTo
	}

	if subtle.ConstantTimeCompare([]byte(statePayload.State), []byte(stateCookie.Value)) != 1 {
		h.logger.Warn("oauth callback: state mismatch")
		h.redirectWithError(w, r, "invalid_request", "Invalid state. Please try again.")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    "",
		Path:     oauthCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
	})

	if errParam := query.Get("error"); errParam != "" {
		h.logger.Warn("oauth callback: provider error", "error", errParam)
		h.redirectWithError(w, r, errParam, query.Get("error_description"))
		return
	}

	code := query.Get("code")
	if code == "" {
		h.redirectWithError(w, r, "invalid_request", "Missing authorization code.")
		return
	}

	identity, err := h.tiktok.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed", "error", err)
		message := "Failed to complete authentication."
		var exchangeErr *remote.ExchangeError
		if errors.As(err, &exchangeErr) && exchangeErr.Details != "" {
			message = exchangeErr.Details
		}
		h.redirectWithError(w, r, "exchange_error", message)
		return
	}

	s := SessionFromContext(r.Context())
	if err := s.Auth.Login(r.Context(), identity.User); err != nil {
		h.logger.Error("oauth callback: session not persisted", "user_id", identity.User.ID, "error", err)
	}
	s.SetRemoteSession(identity.Session)

	h.logger.Info("oauth login successful", "user_id", identity.User.ID, "connected", identity.User.Connected())

	http.Redirect(w, r, h.frontendURL+redirectTo, http.StatusTemporaryRedirect)
}

// redirectWithError redirects to the login page with error details.
func (h *OAuthHandler) redirectWithError(w http.ResponseWriter, r *http.Request, code, message string) {
	target := h.frontendURL + route.Login.Path() + "?error=" + url.QueryEscape(code)
	if message != "" {
		target += "&message=" + url.QueryEscape(message)
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}
