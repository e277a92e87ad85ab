// Package fingerprint computes the content hash used by the sync engine to
// decide whether a pull or push would be a no-op.
//
// The hash is taken over the serialized file bytes, not the parsed
// structure. Whitespace or formatting differences introduced by hand
// editing therefore count as real changes — a spurious sync is preferred
// over a missed one.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of the raw file bytes.
// Collision resistance here is a correctness property, not a security one:
// two different files must not fingerprint identically in practice.
func Sum(raw []byte) string {
	h := sha256.Sum256(raw)
	return hex.EncodeToString(h[:])
}
