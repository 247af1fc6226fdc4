package remote

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ExchangeError is returned when the TikTok code exchange fails.
type ExchangeError struct {
	Status  int
	Details string
	Err     error
}

func (e *ExchangeError) Error() string {
	msg := "authentication failed"
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	return msg
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// Session is the hosted-backend session minted for a user after a successful exchange.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
}

// ExchangeResult is the outcome of a completed TikTok OAuth exchange.
type ExchangeResult struct {
	Profile Profile
	Session *Session
}

type exchangeRequest struct {
	Code string `json:"code"`
}

type exchangeResponse struct {
	Success bool    `json:"success"`
	User    Profile `json:"user"`
	Session *struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
	} `json:"session"`
}

// ExchangeTikTokCode hands an authorization code to the token-exchange function,
// which trades it for a TikTok access token, fetches the creator's basic profile
// and upserts the user keyed by open_id.
func (c *Client) ExchangeTikTokCode(ctx context.Context, code string) (ExchangeResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return ExchangeResult{}, &ExchangeError{Details: "missing authorization code"}
	}

	var (
		result  exchangeResponse
		failure errorBody
	)

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(exchangeRequest{Code: code}).
		SetResult(&result).
		SetError(&failure).
		Post(tiktokExchangePath)
	if err != nil {
		return ExchangeResult{}, &ExchangeError{Details: "token exchange unavailable", Err: err}
	}

	if !resp.IsSuccess() {
		details := failure.Details
		if details == "" {
			details = failure.Error
		}
		return ExchangeResult{}, &ExchangeError{Status: resp.StatusCode(), Details: details}
	}

	if !result.Success || result.User.ID == "" {
		return ExchangeResult{}, &ExchangeError{Status: resp.StatusCode(), Details: "no profile returned"}
	}

	out := ExchangeResult{Profile: result.User}
	if result.Session != nil && result.Session.AccessToken != "" {
		out.Session = &Session{AccessToken: result.Session.AccessToken}
		if result.Session.ExpiresAt > 0 {
			out.Session.ExpiresAt = time.Unix(result.Session.ExpiresAt, 0).UTC()
		}
	}
	return out, nil
}
