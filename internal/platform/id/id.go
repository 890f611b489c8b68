package id

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// Generator creates opaque identifiers.
type Generator interface {
	New() string
}

// RandomHex produces 128-bit hex strings, used for bearer tokens.
type RandomHex struct{}

func (RandomHex) New() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// UUID produces random version 4 UUIDs, used for stored entities.
type UUID struct{}

func (UUID) New() string {
	return uuid.NewString()
}
