package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// GenerateIdempotencyKey derives a stable provider key from the linking key.
// Concurrent or retried creates for the same key carry the same header, so
// the provider collapses them into a single object.
func GenerateIdempotencyKey(prefix, key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s-%s", prefix, hex.EncodeToString(sum[:16]))
}
