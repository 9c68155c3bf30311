package keygen

import (
	"github.com/google/uuid"
)

// Generator produces globally unique identifiers
type Generator interface {
	NewID() string
}

// UUIDGenerator generates random (version 4) UUIDs
type UUIDGenerator struct{}

// NewID returns a new random UUID string
func (UUIDGenerator) NewID() string {
	return uuid.New().String()
}

// IsValid reports whether id parses as a UUID
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Mask hides all but the first 8 characters of an identifier for logging
func Mask(id string) string {
	if len(id) <= 8 {
		return "***"
	}
	return id[:8] + "***"
}
