package store

import "github.com/google/uuid"

// NewID returns a random UUID string used as an entity primary key.
func NewID() string {
	return uuid.NewString()
}
