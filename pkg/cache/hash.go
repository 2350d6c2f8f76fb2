package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash computes the content hash identifying a serialized document. The
// graph hash (input document) and layout hash (laid-out document) are
// both full 64-character SHA-256 hex digests; truncating would risk
// collisions between near-identical graphs.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey builds a fixed-length cache key for one item class. Keys have
// the form "class:digest" where the digest streams every identity
// component through one hash, so layout, report and artifact entries for
// the same document never collide.
func hashKey(class string, parts ...any) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, part := range parts {
		_ = enc.Encode(part)
	}
	return class + ":" + hex.EncodeToString(h.Sum(nil))
}
