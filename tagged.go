package tagcache

import (
	"context"
)

// Tagged decorates a Cache so that every write publishes its (cacheName,
// key) into the invocation's write scope before delegating. Publishing
// happens before the underlying write completes, so nested interception
// triggered by the write already sees the scope populated. All non-write
// operations delegate unchanged.
type Tagged struct {
	Cache
}

// Wrap returns c decorated with write interception.
func Wrap(c Cache) *Tagged { return &Tagged{Cache: c} }

// Unwrap returns the underlying cache.
func (t *Tagged) Unwrap() Cache { return t.Cache }

func (t *Tagged) Put(ctx context.Context, key, value any) error {
	publishWrite(ctx, t.Cache.Name(), key)
	return t.Cache.Put(ctx, key, value)
}

func (t *Tagged) PutIfAbsent(ctx context.Context, key, value any) (any, bool, error) {
	publishWrite(ctx, t.Cache.Name(), key)
	return t.Cache.PutIfAbsent(ctx, key, value)
}
