package connection

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const minHandleLength = 2

var (
	// ErrValidation is the sentinel all handle validation failures unwrap to.
	ErrValidation = errors.New("invalid tiktok handle")

	handlePattern = regexp.MustCompile(`^[A-Za-z0-9._]+$`)
	handleStrip   = regexp.MustCompile(`[^a-z0-9._]+`)
)

// ValidationError describes why a handle was rejected.
type ValidationError struct {
	Handle string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NormalizeHandle validates raw and returns it with a single leading "@".
func NormalizeHandle(raw string) (string, error) {
	name := strings.TrimPrefix(strings.TrimSpace(raw), "@")

	switch {
	case name == "":
		return "", &ValidationError{Handle: raw, Reason: "Please enter your TikTok handle"}
	case utf8.RuneCountInString(name) < minHandleLength:
		return "", &ValidationError{Handle: raw, Reason: "TikTok handle must be at least 2 characters"}
	case !handlePattern.MatchString(name):
		return "", &ValidationError{Handle: raw, Reason: "TikTok handle can only contain letters, numbers, dots and underscores"}
	}
	return "@" + name, nil
}

// withPrefix returns handle with exactly one leading "@".
func withPrefix(handle string) string {
	return "@" + strings.TrimPrefix(strings.TrimSpace(handle), "@")
}

// DeriveHandle builds a plausible handle from a display name.
func DeriveHandle(displayName string) string {
	name := handleStrip.ReplaceAllString(strings.ToLower(displayName), "")
	name = strings.Trim(name, ".")
	if utf8.RuneCountInString(name) < minHandleLength {
		return "@creator"
	}
	return "@" + name
}
