package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
)

// GenerateInviteToken returns a url-safe random token for invitation
// links. 32 bytes of entropy keeps tokens unguessable.
func GenerateInviteToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// StoredFileName prefixes an uploaded file's name with a UUID so two
// uploads of the same file never collide in the store.
func StoredFileName(original string) string {
	return uuid.New().String() + "_" + filepath.Base(original)
}
