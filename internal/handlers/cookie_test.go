package handlers

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/newshub/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCookie(trustProxy bool) *SessionCookie {
	return NewSessionCookie(config.SessionConfig{
		Name:       "sid",
		Secret:     "test-secret",
		TTL:        2 * time.Hour,
		TrustProxy: trustProxy,
	})
}

func TestSessionCookie_RoundTrip(t *testing.T) {
	c := newTestCookie(false)

	rec := httptest.NewRecorder()
	require.NoError(t, c.Set(rec, httptest.NewRequest(http.MethodPost, "/login", nil), "opaque-token"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	issued := cookies[0]
	assert.Equal(t, "sid", issued.Name)
	assert.Equal(t, "/", issued.Path)
	assert.True(t, issued.HttpOnly)
	assert.False(t, issued.Secure)
	assert.Equal(t, http.SameSiteLaxMode, issued.SameSite)
	assert.Equal(t, 7200, issued.MaxAge)
	assert.NotEqual(t, "opaque-token", issued.Value)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(issued)
	assert.Equal(t, "opaque-token", c.Token(req))
}

func TestSessionCookie_RejectsForeignSignature(t *testing.T) {
	other := NewSessionCookie(config.SessionConfig{Name: "sid", Secret: "another-secret", TTL: time.Hour})
	value, err := other.seal("opaque-token")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: value})
	assert.Empty(t, newTestCookie(false).Token(req))
}

func TestSessionCookie_RejectsUnsignedToken(t *testing.T) {
	value, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{ID: "opaque-token"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: value})
	assert.Empty(t, newTestCookie(false).Token(req))
}

func TestSessionCookie_MissingOrGarbage(t *testing.T) {
	c := newTestCookie(false)

	assert.Empty(t, c.Token(httptest.NewRequest(http.MethodGet, "/me", nil)))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "garbage"})
	assert.Empty(t, c.Token(req))
}

func TestSessionCookie_Secure(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		tls        bool
		proto      string
		want       bool
	}{
		{name: "plain http", want: false},
		{name: "direct tls", tls: true, want: true},
		{name: "forwarded https untrusted", proto: "https", want: false},
		{name: "forwarded https trusted", trustProxy: true, proto: "https", want: true},
		{name: "forwarded http trusted", trustProxy: true, proto: "http", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/login", nil)
			if tt.tls {
				req.TLS = &tls.ConnectionState{}
			}
			if tt.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tt.proto)
			}

			rec := httptest.NewRecorder()
			require.NoError(t, newTestCookie(tt.trustProxy).Set(rec, req, "t"))
			assert.Equal(t, tt.want, rec.Result().Cookies()[0].Secure)
		})
	}
}

func TestSessionCookie_Clear(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestCookie(false).Clear(rec, httptest.NewRequest(http.MethodPost, "/logout", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
