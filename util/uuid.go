package util

import "github.com/google/uuid"

// NewUUID returns a time-ordered v7 id, or a random v4 id when the v7
// generator fails.
func NewUUID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
