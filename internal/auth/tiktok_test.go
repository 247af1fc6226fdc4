package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"liveintent/internal/remote"
)

type exchangerStub struct {
	result remote.ExchangeResult
	err    error
	code   string
}

func (s *exchangerStub) ExchangeTikTokCode(ctx context.Context, code string) (remote.ExchangeResult, error) {
	s.code = code
	return s.result, s.err
}

func TestAuthURLUsesTikTokParameters(t *testing.T) {
	authenticator := NewTikTokAuthenticator("client-key", "http://localhost/api/auth/tiktok/callback", nil)

	authURL := authenticator.AuthURL("state123")
	parsed, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("failed to parse auth URL: %v", err)
	}

	if !strings.HasPrefix(authURL, "https://www.tiktok.com/v2/auth/authorize/") {
		t.Fatalf("unexpected authorize endpoint %q", authURL)
	}
	query := parsed.Query()
	if query.Get("client_key") != "client-key" {
		t.Fatalf("expected client_key, got %q", query.Get("client_key"))
	}
	if query.Get("scope") != "user.info.basic" {
		t.Fatalf("expected scope user.info.basic, got %q", query.Get("scope"))
	}
	if query.Get("state") != "state123" {
		t.Fatalf("expected state to round-trip, got %q", query.Get("state"))
	}
	if query.Get("response_type") != "code" {
		t.Fatalf("expected response_type=code, got %q", query.Get("response_type"))
	}
}

func TestExchangeMapsProfile(t *testing.T) {
	handle := "@seller"
	stub := &exchangerStub{result: remote.ExchangeResult{
		Profile: remote.Profile{ID: "open-1", DisplayName: "Seller", AvatarURL: "a.png", CustomTikTokHandle: &handle},
		Session: &remote.Session{AccessToken: "token"},
	}}
	authenticator := NewTikTokAuthenticator("key", "http://localhost/cb", stub)

	identity, err := authenticator.Exchange(context.Background(), "code-1")
	if err != nil {
		t.Fatalf("Exchange returned error: %v", err)
	}
	if stub.code != "code-1" {
		t.Fatalf("expected code to be forwarded, got %q", stub.code)
	}
	if identity.User.ID != "open-1" || identity.User.TikTokHandle != "@seller" || identity.User.IsDev {
		t.Fatalf("unexpected user %+v", identity.User)
	}
	if identity.Session == nil || identity.Session.AccessToken != "token" {
		t.Fatalf("expected session to be carried, got %+v", identity.Session)
	}
}

func TestExchangeWrapsErrors(t *testing.T) {
	stub := &exchangerStub{err: &remote.ExchangeError{Details: "invalid_grant"}}
	authenticator := NewTikTokAuthenticator("key", "http://localhost/cb", stub)

	_, err := authenticator.Exchange(context.Background(), "code")
	var exchangeErr *remote.ExchangeError
	if !errors.As(err, &exchangeErr) {
		t.Fatalf("expected wrapped ExchangeError, got %v", err)
	}
}

func TestGenerateState(t *testing.T) {
	state1, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState returned error: %v", err)
	}
	state2, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState returned error: %v", err)
	}
	if state1 == "" || state2 == "" {
		t.Fatal("expected non-empty state")
	}
	if state1 == state2 {
		t.Fatal("expected unique state values")
	}
}
