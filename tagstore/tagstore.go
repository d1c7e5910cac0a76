// Package tagstore defines the tag index: a bipartite association between
// opaque tag strings and (cacheName, key) cache references.
//
// A reference may carry any number of tags and a tag any number of
// references; a tag with zero references is simply absent. Mappings are
// only ever added (AddMappings unions, never overwrites) or dropped
// wholesale (RemoveTag deletes the whole tag). Implementations must be safe
// for unbounded concurrent callers.
//
// Use Local (default) for in-process indexes, or Redis for indexes shared
// between replicas.
package tagstore

import (
	"context"
)

// Store abstracts where the tag index lives.
type Store interface {
	// AddMappings unions the (cacheName, key) reference into each tag's
	// set. Empty tags is a no-op, never an error.
	AddMappings(ctx context.Context, tags []string, cacheName string, key any) error

	// KeysForTags returns the union of the requested tags' references,
	// grouped by cache name. Tags with no entry contribute nothing.
	KeysForTags(ctx context.Context, tags []string) (map[string][]any, error)

	// RemoveTag deletes the tag's entire association set. Removing an
	// absent tag is a no-op.
	RemoveTag(ctx context.Context, tag string) error

	// Close releases resources (no-op ok).
	Close(ctx context.Context) error
}
