// Package checksum fingerprints note content recorded in run history.
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

// Content returns the digest of s, or "" for empty content so that runs
// without a body carry no fingerprint.
func Content(s string) string {
	if s == "" {
		return ""
	}
	return Sum([]byte(s))
}
