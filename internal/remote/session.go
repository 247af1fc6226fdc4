package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

// ErrAuthRequired means an operation needs an active hosted-backend session and none is available.
var ErrAuthRequired = errors.New("an active session is required")

// SessionVerifier decides whether a Session is still usable. With a JWKS URL it
// also checks the access token's signature and issuer.
type SessionVerifier struct {
	verifier *oidc.IDTokenVerifier
	now      func() time.Time
}

// NewSessionVerifier builds a verifier. ctx must outlive the verifier; it scopes
// the background JWKS fetches. An empty jwksURL disables signature checks.
func NewSessionVerifier(ctx context.Context, issuer, jwksURL string) *SessionVerifier {
	v := &SessionVerifier{now: time.Now}
	if strings.TrimSpace(jwksURL) == "" {
		return v
	}

	keySet := oidc.NewRemoteKeySet(ctx, jwksURL)
	v.verifier = oidc.NewVerifier(issuer, keySet, &oidc.Config{
		SkipClientIDCheck:    true,
		SupportedSigningAlgs: []string{oidc.RS256, oidc.ES256},
		Now:                  func() time.Time { return v.now() },
	})
	return v
}

// Active returns nil when session can be used for an authenticated call.
func (v *SessionVerifier) Active(ctx context.Context, session *Session) error {
	if session == nil || session.AccessToken == "" {
		return ErrAuthRequired
	}
	if !session.ExpiresAt.IsZero() && !v.now().Before(session.ExpiresAt) {
		return fmt.Errorf("%w: session expired", ErrAuthRequired)
	}
	if v.verifier == nil {
		return nil
	}
	if _, err := v.verifier.Verify(ctx, session.AccessToken); err != nil {
		return fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}
	return nil
}
