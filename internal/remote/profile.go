package remote

import (
	"context"
	"fmt"
)

const genericUpdateFailure = "failed to update profile"

// RemoteUpdateError reports a non-success answer from the profile-update function.
type RemoteUpdateError struct {
	Status  int
	Message string
	Err     error
}

func (e *RemoteUpdateError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

func (e *RemoteUpdateError) Unwrap() error {
	return e.Err
}

type updateProfileRequest struct {
	CustomTikTokHandle *string `json:"custom_tiktok_handle"`
}

type updateProfileResponse struct {
	Success bool    `json:"success"`
	User    Profile `json:"user"`
}

// UpdateProfile sets (or with a nil handle, clears) the caller's custom TikTok
// handle. The returned profile carries the handle as the function stored it,
// which may be normalized differently from what was sent.
func (c *Client) UpdateProfile(ctx context.Context, accessToken string, handle *string) (Profile, error) {
	var (
		result  updateProfileResponse
		failure errorBody
	)

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(updateProfileRequest{CustomTikTokHandle: handle}).
		SetResult(&result).
		SetError(&failure).
		Post(updateProfilePath)
	if err != nil {
		return Profile{}, &RemoteUpdateError{Message: genericUpdateFailure, Err: err}
	}

	if !resp.IsSuccess() {
		message := failure.Error
		if message == "" {
			message = genericUpdateFailure
		}
		return Profile{}, &RemoteUpdateError{Status: resp.StatusCode(), Message: message}
	}

	if !result.Success {
		return Profile{}, &RemoteUpdateError{Status: resp.StatusCode(), Message: genericUpdateFailure}
	}

	return result.User, nil
}
