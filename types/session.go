package types

import "time"

// Session binds an opaque token to a user until it expires.
type Session struct {
	// Token is the opaque session identifier carried by the client cookie.
	Token string `json:"token" db:"token"`

	// UserID references the authenticated user.
	UserID string `json:"userId" db:"user_id"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// ExpiresAt is renewed on every authenticated request.
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
