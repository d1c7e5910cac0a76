// Package codec serializes cache values to and from the byte form stored
// by providers. Pick one codec per cache; decoding with a different codec
// than the one that encoded is undefined.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
