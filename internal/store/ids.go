package store

import "github.com/google/uuid"

// NewID returns a new time-ordered identifier. Later ids compare greater,
// which keeps id tie-breaks in listings aligned with creation order.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ValidID reports whether id is a well-formed identifier.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
