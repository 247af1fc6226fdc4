package connection

import "liveintent/internal/auth"

// State is the connection snapshot handed to views. TikTokHandle and Error
// are nil when absent.
type State struct {
	IsConnected  bool    `json:"isConnected"`
	TikTokHandle *string `json:"tiktokHandle"`
	IsLoading    bool    `json:"isLoading"`
	Error        *string `json:"error"`
}

// Handle returns the linked handle or "".
func (s State) Handle() string {
	if s.TikTokHandle == nil {
		return ""
	}
	return *s.TikTokHandle
}

// ErrorMessage returns the last failure message or "".
func (s State) ErrorMessage() string {
	if s.Error == nil {
		return ""
	}
	return *s.Error
}

// Derive projects a user onto a settled connection state.
func Derive(user *auth.User) State {
	if user == nil || !user.Connected() {
		return State{}
	}
	handle := user.TikTokHandle
	return State{IsConnected: true, TikTokHandle: &handle}
}
