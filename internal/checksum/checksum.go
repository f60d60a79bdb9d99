package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag returns a quoted strong entity tag derived from data.
func ETag(data []byte) string {
	return `"` + Sum(data)[:16] + `"`
}
