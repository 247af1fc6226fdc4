package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestExchangeTikTokCodeReturnsProfileAndSession(t *testing.T) {
	var gotCode string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tiktok-auth" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotCode = body["code"]
		writeTestJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"user": map[string]any{
				"id":           "open-123",
				"display_name": "Live Seller",
				"avatar_url":   "https://cdn.test/seller.png",
			},
			"session": map[string]any{
				"access_token": "jwt-token",
				"expires_at":   1767268800,
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client())
	result, err := client.ExchangeTikTokCode(context.Background(), " auth-code ")
	if err != nil {
		t.Fatalf("ExchangeTikTokCode returned error: %v", err)
	}
	if gotCode != "auth-code" {
		t.Fatalf("expected trimmed code, got %q", gotCode)
	}
	if result.Profile.ID != "open-123" || result.Profile.DisplayName != "Live Seller" {
		t.Fatalf("unexpected profile %+v", result.Profile)
	}
	if result.Session == nil || result.Session.AccessToken != "jwt-token" {
		t.Fatalf("expected session, got %+v", result.Session)
	}
	if !result.Session.ExpiresAt.Equal(time.Unix(1767268800, 0)) {
		t.Fatalf("unexpected expiry %v", result.Session.ExpiresAt)
	}
}

func TestExchangeTikTokCodeSurfacesDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Authentication failed",
			"details": "invalid_grant",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client())
	_, err := client.ExchangeTikTokCode(context.Background(), "bad")

	var exchangeErr *ExchangeError
	if !errors.As(err, &exchangeErr) {
		t.Fatalf("expected ExchangeError, got %v", err)
	}
	if exchangeErr.Details != "invalid_grant" {
		t.Fatalf("expected details to pass through, got %q", exchangeErr.Details)
	}
	if !strings.HasPrefix(err.Error(), "authentication failed") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestExchangeTikTokCodeRejectsEmptyCode(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", nil)
	if _, err := client.ExchangeTikTokCode(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty code")
	}
}
