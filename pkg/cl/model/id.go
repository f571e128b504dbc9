package model

import (
	"strings"

	"github.com/google/uuid"
)

// NewID generates a new random (v4) UUID.
func NewID() uuid.UUID {
	return uuid.New()
}

// ShortID returns the first n hex characters of a fresh random UUID. n is
// clamped to [1, 32]. uuid.New reads from crypto/rand.
func ShortID(n int) string {
	if n < 1 {
		n = 1
	}
	if n > 32 {
		n = 32
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}
