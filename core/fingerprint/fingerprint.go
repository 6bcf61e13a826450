package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Version is the algorithm tag prefixed to every fingerprint. It must never
// change once baselines exist, or every stored snapshot becomes meaningless.
const Version = "v1"

// Separator joins the text fields before hashing.
const Separator = "\x1f|\x1f"

// Of returns the fingerprint of the ordered text fields.
func Of(fields ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(fields, Separator)))
	return Version + ":" + hex.EncodeToString(sum[:])
}

// IsValid reports whether s looks like a fingerprint produced by Of.
func IsValid(s string) bool {
	hexPart, ok := strings.CutPrefix(s, Version+":")
	if !ok || len(hexPart) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(hexPart)
	return err == nil && strings.ToLower(hexPart) == hexPart
}
