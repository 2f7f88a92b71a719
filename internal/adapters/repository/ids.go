package repository

import "github.com/google/uuid"

// NewID returns a time-ordered unique record id.
func NewID() string {
	if u, err := uuid.NewV7(); err == nil {
		return u.String()
	}
	return uuid.NewString()
}
