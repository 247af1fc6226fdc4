package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/oauth2"

	"liveintent/internal/remote"
)

// tiktokEndpoint is TikTok Login Kit v2. The token URL is only listed for
// completeness; the code exchange itself runs in the hosted edge function.
var tiktokEndpoint = oauth2.Endpoint{
	AuthURL:   "https://www.tiktok.com/v2/auth/authorize/",
	TokenURL:  "https://open.tiktokapis.com/v2/oauth/token/",
	AuthStyle: oauth2.AuthStyleInParams,
}

var tiktokScopes = []string{"user.info.basic"}

type codeExchanger interface {
	ExchangeTikTokCode(ctx context.Context, code string) (remote.ExchangeResult, error)
}

// Identity is what a completed TikTok login yields.
type Identity struct {
	User    User
	Session *remote.Session
}

// TikTokAuthenticator drives the browser side of TikTok's authorization code flow.
type TikTokAuthenticator struct {
	config    *oauth2.Config
	exchanger codeExchanger
}

// NewTikTokAuthenticator creates a TikTokAuthenticator.
func NewTikTokAuthenticator(clientKey, redirectURL string, exchanger codeExchanger) *TikTokAuthenticator {
	return &TikTokAuthenticator{
		config: &oauth2.Config{
			ClientID:    clientKey,
			RedirectURL: redirectURL,
			Endpoint:    tiktokEndpoint,
		},
		exchanger: exchanger,
	}
}

// AuthURL builds the TikTok consent URL carrying state. TikTok names the client
// "client_key" and expects comma-separated scopes.
func (a *TikTokAuthenticator) AuthURL(state string) string {
	return a.config.AuthCodeURL(
		state,
		oauth2.SetAuthURLParam("client_key", a.config.ClientID),
		oauth2.SetAuthURLParam("scope", strings.Join(tiktokScopes, ",")),
	)
}

// Exchange hands the authorization code to the exchange function and maps the
// returned profile onto a User.
func (a *TikTokAuthenticator) Exchange(ctx context.Context, code string) (*Identity, error) {
	result, err := a.exchanger.ExchangeTikTokCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("tiktok exchange: %w", err)
	}
	return &Identity{User: UserFromProfile(result.Profile), Session: result.Session}, nil
}

// UserFromProfile converts a hosted profile into the console's User.
func UserFromProfile(p remote.Profile) User {
	return User{
		ID:           p.ID,
		DisplayName:  p.DisplayName,
		AvatarURL:    p.AvatarURL,
		TikTokHandle: p.Handle(),
	}
}

// GenerateState generates a cryptographically secure random state string.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
