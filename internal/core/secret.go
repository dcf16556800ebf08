// Package core provides small value helpers shared by the scaffold stages.
package core

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// SecretBytes is the number of random bytes in a generated signing secret.
const SecretBytes = 64

// NewSecret returns SecretBytes random bytes from crypto/rand, hex encoded.
// Error only if crypto/rand read fails.
func NewSecret() (string, error) {
	b := make([]byte, SecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// StagingName returns the hidden sibling directory name a project is built
// in before being renamed into place: ".<name>.tin-<uuid>".
func StagingName(name string) string {
	return "." + name + ".tin-" + uuid.NewString()
}
