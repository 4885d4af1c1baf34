package types

import "time"

// User represents an account in the system.
// It contains identity and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID string `json:"id" db:"id"`

	// Name is the user's display name.
	Name string `json:"name" db:"name"`

	// Email is the user's lowercase-normalized email address.
	// It is unique across all users.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// AuthContext is the minimal projection of an authenticated user that is
// handed to downstream operations. It never carries credentials.
type AuthContext struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// AuthContext returns the minimal projection of the user.
func (u User) AuthContext() AuthContext {
	return AuthContext{UserID: u.ID, Name: u.Name, Email: u.Email}
}

// ProfileUpdate describes a partial update of a user's profile.
// Nil fields are left unchanged.
type ProfileUpdate struct {
	Name            *string `json:"name,omitempty"`
	Email           *string `json:"email,omitempty"`
	CurrentPassword *string `json:"currentPassword,omitempty"`
	NewPassword     *string `json:"newPassword,omitempty"`
}
