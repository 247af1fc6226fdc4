// Package remote talks to the hosted edge functions that own user profiles and
// the TikTok OAuth code exchange.
package remote

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	updateProfilePath  = "/update-profile"
	tiktokExchangePath = "/tiktok-auth"
	defaultTimeout     = 10 * time.Second
)

// Client is a thin JSON client for the edge functions base URL.
type Client struct {
	http *resty.Client
}

// Option configures the Client during construction.
type Option func(*resty.Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *resty.Client) {
		if timeout > 0 {
			c.SetTimeout(timeout)
		}
	}
}

// WithAnonKey sends the project's public API key with every request.
func WithAnonKey(key string) Option {
	return func(c *resty.Client) {
		if key = strings.TrimSpace(key); key != "" {
			c.SetHeader("apikey", key)
		}
	}
}

// NewClient constructs a Client for baseURL. A nil httpClient uses resty's default transport.
func NewClient(baseURL string, httpClient *http.Client, opts ...Option) *Client {
	var rc *resty.Client
	if httpClient != nil {
		rc = resty.NewWithClient(httpClient)
	} else {
		rc = resty.New()
	}

	rc.SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	for _, opt := range opts {
		opt(rc)
	}
	return &Client{http: rc}
}

// Profile mirrors the user record returned by the edge functions.
type Profile struct {
	ID                 string  `json:"id"`
	DisplayName        string  `json:"display_name"`
	AvatarURL          string  `json:"avatar_url"`
	CustomTikTokHandle *string `json:"custom_tiktok_handle"`
}

// Handle returns the linked handle, or "" when none is set.
func (p Profile) Handle() string {
	if p.CustomTikTokHandle == nil {
		return ""
	}
	return strings.TrimSpace(*p.CustomTikTokHandle)
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}
