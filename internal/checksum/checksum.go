// Package checksum fingerprints note contents so unchanged notes can be
// skipped on re-publish.
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

// Matches reports whether data hashes to sum. An empty sum never matches.
func Matches(data []byte, sum string) bool {
	return sum != "" && Sum(data) == sum
}
