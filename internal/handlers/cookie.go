package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/newshub/apiserver/config"
)

// SessionCookie writes and reads the session cookie. The cookie value is the
// opaque session token sealed in an HS256 JWT, so tampered or forged cookies
// are rejected before any store lookup.
type SessionCookie struct {
	name       string
	secret     []byte
	ttl        time.Duration
	trustProxy bool
}

func NewSessionCookie(cfg config.SessionConfig) *SessionCookie {
	return &SessionCookie{
		name:       cfg.Name,
		secret:     []byte(cfg.Secret),
		ttl:        cfg.TTL,
		trustProxy: cfg.TrustProxy,
	}
}

// Set issues the cookie for a session token.
func (c *SessionCookie) Set(w http.ResponseWriter, r *http.Request, token string) error {
	value, err := c.seal(token)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.ttl / time.Second),
		Expires:  time.Now().Add(c.ttl),
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the cookie on the client.
func (c *SessionCookie) Clear(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// Token returns the session token carried by the request, or "" when the
// cookie is absent or fails verification.
func (c *SessionCookie) Token(r *http.Request) string {
	cookie, err := r.Cookie(c.name)
	if err != nil || cookie.Value == "" {
		return ""
	}
	token, err := c.unseal(cookie.Value)
	if err != nil {
		return ""
	}
	return token
}

func (c *SessionCookie) secure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return c.trustProxy && strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func (c *SessionCookie) seal(token string) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:       token,
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *SessionCookie) unseal(value string) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(value, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.ID) == "" {
		return "", errors.New("missing session id")
	}
	return claims.ID, nil
}
