// Package token issues and verifies stateless session tokens. A token
// carries the username and a subject identifier, signed with a
// server-held secret; validity depends only on the signature and the
// embedded expiry.
package token

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the session token lifetime.
const DefaultTTL = 7 * 24 * time.Hour

// CookieName is the session cookie carrying the token.
const CookieName = "rc_token"

// ErrInvalidToken covers every verification failure: bad signature,
// expired, malformed.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the decoded subject of a verified token.
type Identity struct {
	Username string
	Subject  string
}

type sessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer constructs an Issuer with the default 7-day lifetime.
func NewIssuer(secret string) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
}

// WithNow overrides the clock. Used by tests to exercise expiry.
func (i *Issuer) WithNow(now func() time.Time) *Issuer {
	clone := *i
	clone.now = now
	return &clone
}

// Issue signs a token for the given username and subject identifier.
func (i *Issuer) Issue(username, subject string) (string, error) {
	now := i.now()
	claims := sessionClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify validates signature and expiry, returning the decoded identity.
// Any failure is reported as ErrInvalidToken.
func (i *Issuer) Verify(tokenString string) (Identity, error) {
	claims := sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Username) == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{Username: claims.Username, Subject: claims.Subject}, nil
}

// Cookie wraps a token in the session cookie: HTTP-only, same-site,
// path /, max-age matching the signed expiry. The Secure flag is set
// only in production so local development over plain HTTP keeps working.
func Cookie(tokenString string, production bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    tokenString,
		Path:     "/",
		MaxAge:   int(DefaultTTL / time.Second),
		HttpOnly: true,
		Secure:   production,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie expires the session cookie.
func ClearCookie(production bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   production,
		SameSite: http.SameSiteLaxMode,
	}
}
