package encoding

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns hex(sha256(Encode(v))). The stdlib crypto/sha256
// implementation is used directly: no example repo in the retrieval pack
// carries a third-party SHA-256 implementation, and the standard library's
// is the idiomatic, constant-time-audited choice for content addressing.
func ContentHash(v Value) (string, error) {
	encoded, err := Encode(v)
	if err != nil {
		return "", err
	}
	return HashBytes(encoded), nil
}

// HashBytes hex-encodes the SHA-256 digest of raw bytes, used by
// components (proof pack manifests and signatures) that hash already
// canonicalized content directly rather than re-encoding a Value tree.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
