package auth

import "strings"

// User represents an authenticated creator.
type User struct {
	ID           string `json:"id"`
	DisplayName  string `json:"displayName"`
	AvatarURL    string `json:"avatarUrl,omitempty"`
	TikTokHandle string `json:"tiktokHandle,omitempty"`
	IsDev        bool   `json:"isDev,omitempty"`
}

// Connected reports whether a TikTok identity is linked.
func (u User) Connected() bool {
	return strings.TrimSpace(u.TikTokHandle) != ""
}

// WithHandle returns a copy of u linked to handle; an empty handle unlinks.
func (u User) WithHandle(handle string) User {
	u.TikTokHandle = strings.TrimSpace(handle)
	return u
}

// State is the auth snapshot handed to views.
type State struct {
	User            *User `json:"user"`
	IsLoading       bool  `json:"isLoading"`
	IsAuthenticated bool  `json:"isAuthenticated"`
}

const (
	devUserID     = "dev-user-001"
	devUserName   = "Dev Creator"
	devUserAvatar = "https://api.dicebear.com/7.x/avataaars/svg?seed=devmode"
	devUserHandle = "@devmode"
)

// DevUser is the synthetic identity used by the development bypass.
func DevUser() User {
	return User{
		ID:           devUserID,
		DisplayName:  devUserName,
		AvatarURL:    devUserAvatar,
		TikTokHandle: devUserHandle,
		IsDev:        true,
	}
}
