package core

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"

	"convbackend/utils"
)

// NewID generates a new ULID with the given prefix.
// The format is: prefix_ULID
// Example: core.NewID("req") returns "req_01G0EZ1XTM37C5X11SQTDNCTM1"
func NewID(prefix string) string {
	utils.AssertInvariant(prefix != "" && strings.TrimSpace(prefix) != "", "prefix cannot be empty")

	// ulid.Make draws from a process-wide monotonic entropy source
	return strings.ToLower(strings.TrimSpace(prefix)) + "_" + ulid.Make().String()
}

// NewBranchSuffix returns a lowercase ULID. Values created later in the same
// process always sort after earlier ones, so two calls never collide.
func NewBranchSuffix() string {
	return strings.ToLower(ulid.Make().String())
}

// IsValidULID checks if the given string is a valid ULID format with prefix.
func IsValidULID(id string) bool {
	prefix, ulidPart, found := strings.Cut(id, "_")
	if !found || prefix == "" || strings.Contains(ulidPart, "_") {
		return false
	}
	for _, r := range prefix {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	if len(ulidPart) != ulid.EncodedSize || strings.ToUpper(ulidPart) != ulidPart {
		return false
	}
	_, err := ulid.ParseStrict(ulidPart)
	return err == nil
}

// NewStateToken generates the single-use value that binds an OAuth callback to
// the browser that started the authorization. Uses 32 random bytes, URL-safe base64.
func NewStateToken() (string, error) {
	stateBytes := make([]byte, 32)
	if _, err := rand.Read(stateBytes); err != nil {
		return "", fmt.Errorf("failed to generate random state token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(stateBytes), nil
}
