package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	sessionCookieName   = "liveintent_session"
	sessionCookieIssuer = "liveintent"
)

var errInvalidSessionCookie = errors.New("invalid session cookie")

// sessionCookies issues and reads the browser-session cookie. The value is an
// HS256 token whose subject is the console session id. The cookie carries no
// Max-Age so it ends with the browser session.
type sessionCookies struct {
	secret []byte
	secure bool
	now    func() time.Time
}

func newSessionCookies(secret string, secure bool) sessionCookies {
	return sessionCookies{secret: []byte(secret), secure: secure, now: time.Now}
}

func (c sessionCookies) issue(id string) (*http.Cookie, error) {
	claims := jwt.RegisteredClaims{
		Subject:  id,
		Issuer:   sessionCookieIssuer,
		IssuedAt: jwt.NewNumericDate(c.now()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return nil, err
	}

	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.secure,
	}, nil
}

// read returns the session id carried by r, or an error if there is none or it
// does not verify.
func (c sessionCookies) read(r *http.Request) (string, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", errInvalidSessionCookie
	}

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(cookie.Value, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionCookieIssuer),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", errors.Join(errInvalidSessionCookie, err)
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", errors.Join(errInvalidSessionCookie, err)
	}
	return claims.Subject, nil
}

func (c sessionCookies) clear() *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.secure,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	}
}
