package util

import (
	"crypto/sha256"
	"fmt"
)

// maxEncodedKey bounds the encoded-key part of a storage key. Longer keys
// are replaced by a sha256 prefix so providers with key-size limits stay
// usable.
const maxEncodedKey = 128

// StorageKey builds the provider key for one cache entry, isolated by
// cache name: "cache:<name>:<encodedKey>". Oversized encoded keys are
// compacted to a short hash; the prefix stays intact so prefix deletion
// keeps working.
func StorageKey(cacheName, encodedKey string) string {
	prefix := "cache:" + cacheName + ":"
	if len(encodedKey) <= maxEncodedKey {
		return prefix + encodedKey
	}
	sum := sha256.Sum256([]byte(encodedKey))
	return fmt.Sprintf("%s%x", prefix, sum)[:len(prefix)+16] // first 16 hex chars
}

// StoragePrefix returns the keyspace prefix owned by one cache.
func StoragePrefix(cacheName string) string {
	return "cache:" + cacheName + ":"
}
