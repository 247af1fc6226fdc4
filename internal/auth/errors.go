package auth

import "fmt"

// SessionParseError means the persisted user record could not be decoded.
// It is recovered from by treating the session as absent.
type SessionParseError struct {
	Err error
}

func (e *SessionParseError) Error() string {
	return fmt.Sprintf("auth: stored session is corrupt: %v", e.Err)
}

func (e *SessionParseError) Unwrap() error {
	return e.Err
}
