// Package checksum fingerprints project file contents for optimistic
// concurrency.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag quotes sum as an HTTP entity tag.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// FromETag strips the quotes and any weak prefix from an entity tag. A bare
// checksum is returned unchanged.
func FromETag(tag string) string {
	tag = strings.TrimSpace(tag)
	tag = strings.TrimPrefix(tag, "W/")
	return strings.Trim(tag, `"`)
}
