// Package keycodec renders opaque cache keys in a stable string form.
//
// The string form is the storage representation: the Redis tag store embeds
// it in set members and Backed caches build storage keys from it. Encoding
// must be deterministic - two equal keys must always produce the same
// string.
package keycodec

import (
	"encoding/json"
	"fmt"
)

// Codec serializes a cache key to its stable string form.
type Codec interface {
	EncodeKey(key any) (string, error)
}

// Strings renders keys with fmt verbs. String keys pass through unchanged;
// fmt.Stringer is honored. The default codec.
type Strings struct{}

func (Strings) EncodeKey(key any) (string, error) {
	switch k := key.(type) {
	case string:
		return k, nil
	case fmt.Stringer:
		return k.String(), nil
	default:
		return fmt.Sprintf("%v", key), nil
	}
}

// JSON renders keys as their JSON encoding. Use for structured keys where
// fmt formatting is not stable enough (maps, nested structs).
type JSON struct{}

func (JSON) EncodeKey(key any) (string, error) {
	b, err := json.Marshal(key)
	if err != nil {
		return "", fmt.Errorf("keycodec: marshal key: %w", err)
	}
	return string(b), nil
}
